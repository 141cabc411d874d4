// Copyright 2026 Openquill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analyze

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// canonicalLocations maps raw location strings, as users type them, to
// canonical place names used for boosting against document locations.
var canonicalLocations = map[string]string{
	"sf":            "San Francisco",
	"san francisco": "San Francisco",
	"the city":      "San Francisco",
	"mission":       "San Francisco",
	"soma":          "San Francisco",
	"nyc":           "New York",
	"new york":      "New York",
	"new york city": "New York",
	"brooklyn":      "New York",
	"manhattan":     "New York",
	"la":            "Los Angeles",
	"los angeles":   "Los Angeles",
	"oakland":       "Oakland",
	"east bay":      "Oakland",
	"berkeley":      "Berkeley",
	"seattle":       "Seattle",
	"portland":      "Portland",
	"chicago":       "Chicago",
	"austin":        "Austin",
	"boston":        "Boston",
}

// CanonicalLocation resolves a raw location string to its canonical place
// name. Unrecognized strings are title-cased and passed through so they can
// still match document locations verbatim.
func CanonicalLocation(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if canonical, ok := canonicalLocations[raw]; ok {
		return canonical
	}

	words := strings.Fields(raw)
	for i, w := range words {
		// Uppercase the first rune, not the first byte
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
