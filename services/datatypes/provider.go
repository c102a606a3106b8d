// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "fmt"

// Kind identifies a text-generation backend variant.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
	KindDeepSeek  Kind = "deepseek"
)

// Kinds lists every supported backend variant.
var Kinds = []Kind{KindOpenAI, KindAnthropic, KindGemini, KindDeepSeek}

// ParseKind converts a stored string into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown backend kind %q", s)
}

// ProviderConfig is one configured generation backend.
//
// # Description
//
// The at-rest form (in the device settings document) stores Credential
// encrypted; the in-memory form returned to callers always holds the
// decrypted credential. The failover engine tries enabled entries with a
// non-empty credential in ascending Priority order (lower = tried first).
type ProviderConfig struct {
	Kind       Kind   `json:"kind" validate:"required,oneof=openai anthropic gemini deepseek"`
	Credential string `json:"credential"`
	Enabled    bool   `json:"enabled"`
	Priority   int    `json:"priority" validate:"gte=0"`
}
