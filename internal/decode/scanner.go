// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

package decode

import (
	"strings"

	"github.com/goccy/go-json"
)

// ExtractJSON locates and parses the first JSON document inside text that may
// carry leading garbage and trailing noise. It prefers an object, falls back
// to an array, and returns the validated document bytes or nil.
//
// Fast path: parse from the first opening brace/bracket and hope the tail is
// clean. Slow path: the balanced-span scanner below isolates the first
// complete top-level document before parsing.
func ExtractJSON(text string) []byte {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		start = strings.IndexByte(text, '[')
	}
	if start < 0 {
		return nil
	}

	candidate := text[start:]

	var v interface{}
	if err := json.Unmarshal([]byte(candidate), &v); err == nil {
		return []byte(candidate)
	}

	span, ok := balancedSpan(candidate)
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil
	}
	return []byte(span)
}

// scanState is the state of the balanced-span scanner. Quoted strings and
// escape sequences must be tracked explicitly so braces inside string values
// are not counted.
type scanState int

const (
	scanNormal scanState = iota
	scanInString
	scanEscaped
)

// balancedSpan returns the prefix of s covering the first complete balanced
// top-level {...} or [...] span. s must start at an opening brace or bracket.
func balancedSpan(s string) (string, bool) {
	state := scanNormal
	depth := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case scanNormal:
			switch c {
			case '"':
				state = scanInString
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return s[:i+1], true
				}
				if depth < 0 {
					return "", false
				}
			}
		case scanInString:
			switch c {
			case '\\':
				state = scanEscaped
			case '"':
				state = scanNormal
			}
		case scanEscaped:
			state = scanInString
		}
	}
	return "", false
}
