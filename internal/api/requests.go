// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StartJobRequest is the validated request body for POST /jobs.
//
// Fields:
//   - Name: Human-readable job label (1-200 characters)
//   - SelectionID: The address selection to check
//   - ProviderID: The provider adapter to check against
//   - RecheckMode: Which addresses of the selection to (re)check
type StartJobRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	SelectionID string `json:"selection_id" validate:"required,min=1"`
	ProviderID  string `json:"provider_id" validate:"required,min=1"`
	RecheckMode string `json:"recheck_mode" validate:"required,oneof=all unchecked errors serviceable preorder none"`
}

// ListChecksRequest is the validated query parameters for GET /jobs/{id}/checks.
type ListChecksRequest struct {
	Limit int `validate:"min=0,max=100000"`
}

// ListJobsRequest is the validated query parameters for GET /jobs.
type ListJobsRequest struct {
	Limit int `validate:"min=0,max=10000"`
}

var validate = validator.New()

// validateRequest validates a struct using go-playground/validator.
// Returns nil when validation passes, or a field-keyed error map suitable
// for the Details of a VALIDATION_FAILED response.
func validateRequest(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			details[field] = "is required"
		case "oneof":
			details[field] = fmt.Sprintf("must be one of: %s", fe.Param())
		case "min":
			details[field] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max":
			details[field] = fmt.Sprintf("must be at most %s", fe.Param())
		default:
			details[field] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return details
}
