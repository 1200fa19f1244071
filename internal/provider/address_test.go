// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ParsedAddress
	}{
		{
			"comma delimited",
			"123 Main St, Springfield, IL 62704",
			ParsedAddress{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62704"},
		},
		{
			"comma delimited two parts",
			"123 Main St, Springfield IL 62704",
			ParsedAddress{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62704"},
		},
		{
			"all caps space delimited",
			"123 MAIN ST SPRINGFIELD IL 62704",
			ParsedAddress{Street: "123 MAIN ST", City: "SPRINGFIELD", State: "IL", Zip: "62704"},
		},
		{
			"last suffix wins",
			"500 AVE OF THE OAKS RD CEDAR FALLS IA 50613",
			ParsedAddress{Street: "500 AVE OF THE OAKS RD", City: "CEDAR FALLS", State: "IA", Zip: "50613"},
		},
		{
			"zip plus four",
			"42 ELM DR AUSTIN TX 78701-1234",
			ParsedAddress{Street: "42 ELM DR", City: "AUSTIN", State: "TX", Zip: "78701-1234"},
		},
		{
			"no recognized suffix passes through",
			"RURAL ROUTE 7 BOX 12 TULSA OK 74101",
			ParsedAddress{Street: "RURAL ROUTE 7 BOX 12 TULSA", State: "OK", Zip: "74101"},
		},
		{
			"suffix is final token",
			"123 MAIN ST",
			ParsedAddress{Street: "123 MAIN ST"},
		},
		{
			"empty input",
			"   ",
			ParsedAddress{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAddress(tt.in)
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
