// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package provider

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/scdemanett/omni-fiber-service-mapper-sub001/internal/models"
)

// The AT&T response shape is reverse-engineered from production traffic and
// inconsistent across variants: the content sits either under "shopper" or at
// the top level, and the pre-sale flag lives in configItems on newer variants
// but only in the generic catalogConfig name/value list on older ones. Both
// lookup paths are kept; the frequency of each firing upstream is unknown.

type attEnvelope struct {
	Shopper *attContent `json:"shopper"`
	attContent
}

type attContent struct {
	NoMatchFound   bool               `json:"noMatchFound"`
	MatchType      string             `json:"addressMatchType"`
	MatchedAddress *attMatchedAddress `json:"matchedAddress"`
}

type attMatchedAddress struct {
	StatusTags    *attStatusTags    `json:"statusTags"`
	ConfigItems   *attConfigItems   `json:"configItems"`
	CatalogConfig []attCatalogEntry `json:"catalogConfig"`
	CreateDate    string            `json:"createDate"`
	UpdateDate    string            `json:"updateDate"`
}

type attStatusTags struct {
	SalesType   string `json:"salesType"`
	Status      string `json:"status"`
	CStatus     string `json:"cstatus"`
	SalesStatus string `json:"salesStatus"`
}

type attConfigItems struct {
	IsPreSale *float64 `json:"isPreSale"`
}

type attCatalogEntry struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// classifyATT maps a decoded AT&T response document onto the normalized
// three-state result. Shape mismatches are not errors: anything the
// classifier cannot read resolves to the no-service default, preserving
// whatever diagnostics could still be extracted.
func classifyATT(data []byte) models.ServiceabilityResult {
	result := models.NoService()

	var env attEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return result
	}

	content := env.Shopper
	if content == nil {
		content = &env.attContent
	}

	result.MatchType = content.MatchType
	if content.NoMatchFound || content.MatchedAddress == nil {
		return result
	}

	matched := content.MatchedAddress
	result.APICreateDate = matched.CreateDate
	result.APIUpdateDate = matched.UpdateDate

	tags := matched.StatusTags
	if tags == nil {
		tags = &attStatusTags{}
	}
	result.SalesType = tags.SalesType
	result.Status = tags.Status
	result.CStatus = tags.CStatus
	result.SalesStatus = tags.SalesStatus

	preSale := lookupPreSale(matched)
	if preSale != nil {
		result.IsPreSale = strconv.FormatFloat(*preSale, 'f', -1, 64)
	}

	// Tie-break priority: explicit preorder/planned signals outrank explicit
	// serviceable signals, which outrank everything else. Encodes business
	// rules observed in production traffic; do not reorder.
	switch {
	case isPreorderSignal(tags, preSale):
		result.Type = models.TypePreorder
	case isServiceableSignal(tags):
		result.Type = models.TypeServiceable
		result.Serviceable = true
	default:
		result.Type = models.TypeNone
	}
	return result
}

// lookupPreSale reads the pre-sale flag from configItems, falling back to a
// scan of the generic catalogConfig list when configItems is absent.
func lookupPreSale(matched *attMatchedAddress) *float64 {
	if matched.ConfigItems != nil && matched.ConfigItems.IsPreSale != nil {
		return matched.ConfigItems.IsPreSale
	}
	for _, entry := range matched.CatalogConfig {
		if !strings.EqualFold(entry.Name, "isPreSale") {
			continue
		}
		switch v := entry.Value.(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func isPreorderSignal(tags *attStatusTags, preSale *float64) bool {
	if preSale != nil && *preSale != 0 {
		return true
	}
	for _, v := range []string{tags.CStatus, tags.SalesStatus, tags.Status, tags.SalesType} {
		switch strings.ToLower(v) {
		case "presales", "presale", "preorder", "planned":
			return true
		}
	}
	return false
}

func isServiceableSignal(tags *attStatusTags) bool {
	for _, v := range []string{tags.Status, tags.SalesStatus, tags.CStatus} {
		switch strings.ToLower(v) {
		case "serviceable", "available":
			return true
		}
	}
	return false
}
