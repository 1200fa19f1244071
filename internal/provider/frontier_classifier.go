// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// frontierResponse is the flat address-search shape the Frontier API returns.
type frontierResponse struct {
	AddressKey       string `json:"addressKey"`
	ValidationResult string `json:"validationResult"`
	TechnologyType   string `json:"technologyType"`
	HouseholdSegment string `json:"householdSegment"`
	CreateDate       string `json:"createDate"`
	UpdateDate       string `json:"updateDate"`
}

// unserviceableResults is the allow-list of validation results that
// short-circuit to no service regardless of the technology fields.
var unserviceableResults = map[string]bool{
	"UNSERVICEABLE":     true,
	"ADDRESS_NOT_FOUND": true,
	"OUT_OF_FOOTPRINT":  true,
	"INVALID_ADDRESS":   true,
}

// classifyFrontier maps a Frontier address-search document onto the
// normalized result. This provider has no way to signal preorder.
//
// COPPER plus a DSL household segment is a deliberately suppressed
// legacy-technology market, not an unknown state: it classifies as none.
func classifyFrontier(data []byte) models.ServiceabilityResult {
	result := models.NoService()

	var resp frontierResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return result
	}

	result.Status = resp.ValidationResult
	result.SalesType = resp.TechnologyType
	result.CStatus = resp.HouseholdSegment
	result.APICreateDate = resp.CreateDate
	result.APIUpdateDate = resp.UpdateDate

	validation := strings.ToUpper(strings.TrimSpace(resp.ValidationResult))
	if resp.AddressKey == "" || unserviceableResults[validation] {
		return result
	}

	tech := strings.ToUpper(strings.TrimSpace(resp.TechnologyType))
	segment := strings.ToUpper(strings.TrimSpace(resp.HouseholdSegment))
	switch {
	case tech == "FIBER":
		result.Serviceable = true
		result.Type = models.TypeServiceable
	case tech == "COPPER" && segment == "DSL":
		result.Type = models.TypeNone
	default:
		result.Type = models.TypeNone
	}
	return result
}
