// Copyright 2025 Poiesic Systems
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


package enhance

import (
	"encoding/json"
	"strings"
	"unicode"
)

// conceptPrompt is the fixed instruction of the concept extraction stage.
// The single %s verb receives the raw query.
const conceptPrompt = "You are a highly specialized API endpoint that translates English concepts into Sanskrit. " +
	"Your only function is to receive an English query and return a JSON array of up to 5 core Sanskrit philosophical terms that capture the query's essence. " +
	"Do not include any conversational text, explanations, or markdown formatting. Your response must be only the raw JSON array. " +
	"For example, for the query 'the nature of the self', your entire response must be: [\"ātman\", \"jīva\"]\n\n" +
	"Process the following query:\n" +
	"Query: \"%s\""

// stripCodeFence removes a surrounding markdown code fence and its info
// string, if any.
func stripCodeFence(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && isInfoString(s[:i]) {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isInfoString(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// parseConcepts decodes a reply that must be a JSON array whose every
// element is a string. ok is false for anything else, including null.
func parseConcepts(reply string) (concepts []string, ok bool) {
	var decoded any
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &decoded); err != nil {
		return nil, false
	}
	items, isList := decoded.([]any)
	if !isList {
		return nil, false
	}
	concepts = make([]string, 0, len(items))
	for _, item := range items {
		s, isString := item.(string)
		if !isString {
			return nil, false
		}
		concepts = append(concepts, s)
	}
	return concepts, true
}
