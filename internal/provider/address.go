// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"regexp"
	"strings"
)

// ParsedAddress is a free-text address decomposed into the fields the
// Frontier API wants. Best effort: unparseable input lands whole in Street.
type ParsedAddress struct {
	Street string
	City   string
	State  string
	Zip    string
}

// streetSuffixes are the recognized street-type abbreviations used to split
// street from city in space-delimited addresses.
var streetSuffixes = map[string]bool{
	"RD": true, "ROAD": true,
	"ST": true, "STREET": true,
	"AVE": true, "AVENUE": true,
	"DR": true, "DRIVE": true,
	"LN": true, "LANE": true,
	"CT": true, "COURT": true,
	"BLVD": true, "BOULEVARD": true,
	"WAY": true, "CIR": true, "CIRCLE": true,
	"PL": true, "PLACE": true,
	"TRL": true, "TRAIL": true,
	"PKWY": true, "PARKWAY": true,
	"HWY": true, "HIGHWAY": true,
	"TER": true, "TERRACE": true,
	"LOOP": true, "RUN": true, "XING": true,
}

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// ParseAddress decomposes a free-text address into street/city/state/zip.
// Two input shapes are supported:
//
//	comma-delimited:  "123 Main St, Springfield, IL 62704"
//	space-delimited:  "123 MAIN ST SPRINGFIELD IL 62704"
//
// The space-delimited shape splits street from city at the LAST recognized
// street-suffix token before the state/zip tail. When no suffix is found the
// whole remainder passes through as a single address line. Never fails.
func ParseAddress(address string) ParsedAddress {
	address = strings.TrimSpace(address)
	if address == "" {
		return ParsedAddress{}
	}

	if strings.Contains(address, ",") {
		return parseCommaDelimited(address)
	}
	return parseSpaceDelimited(address)
}

func parseCommaDelimited(address string) ParsedAddress {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var p ParsedAddress
	p.Street = parts[0]

	// The final segment carries "STATE ZIP" (or just one of them).
	tail := strings.Fields(parts[len(parts)-1])
	tail = p.consumeStateZip(tail)

	switch {
	case len(parts) >= 3:
		p.City = parts[1]
		if p.City == "" && len(tail) > 0 {
			p.City = strings.Join(tail, " ")
		}
	case len(parts) == 2:
		// "street, CITY ST 12345" — whatever the tail didn't claim is city.
		p.City = strings.Join(tail, " ")
	}
	return p
}

func parseSpaceDelimited(address string) ParsedAddress {
	var p ParsedAddress
	tokens := p.consumeStateZip(strings.Fields(address))
	if len(tokens) == 0 {
		return p
	}

	// Split street from city at the last recognized suffix token.
	split := -1
	for i, tok := range tokens {
		if streetSuffixes[strings.ToUpper(tok)] {
			split = i
		}
	}
	if split < 0 || split == len(tokens)-1 {
		p.Street = strings.Join(tokens, " ")
		return p
	}
	p.Street = strings.Join(tokens[:split+1], " ")
	p.City = strings.Join(tokens[split+1:], " ")
	return p
}

// consumeStateZip strips a trailing zip and two-letter state off the token
// list, recording them on p, and returns the remaining tokens.
func (p *ParsedAddress) consumeStateZip(tokens []string) []string {
	if len(tokens) > 0 && zipPattern.MatchString(tokens[len(tokens)-1]) {
		p.Zip = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if len(last) == 2 && isAlpha(last) {
			p.State = strings.ToUpper(last)
			tokens = tokens[:len(tokens)-1]
		}
	}
	return tokens
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
