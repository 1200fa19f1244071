// Omni Fiber Service Mapper - Fiber Serviceability Tracking
// Copyright 2026 S. Demanett (scdemanett)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/scdemanett/omni-fiber-service-mapper-sub001

// Package transform holds the stateless byte-level primitives used by the
// response decoder: the ROT13 substitution cipher and the packed 6-bit block
// codec the upstream obfuscation layer is built from.
package transform

// Rot13 rotates each ASCII letter by 13 positions within its case and passes
// every other byte through unchanged. Self-inverse: Rot13(Rot13(s)) == s.
func Rot13(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = 'a' + (c-'a'+13)%26
		case c >= 'A' && c <= 'Z':
			out[i] = 'A' + (c-'A'+13)%26
		default:
			out[i] = c
		}
	}
	return string(out)
}
