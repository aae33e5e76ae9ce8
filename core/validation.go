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


package core

import (
	"fmt"
	"strings"
)

// ValidateQuery checks that a query has non-whitespace content.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// ValidateEnhancedQuery validates an EnhancedQuery according to domain rules.
//
// Validation rules:
//   - Original must not be empty
//   - FinalQuery must not be empty
//   - ConceptSource must be valid (Model or Fallback)
//
// NOT validated:
//   - Expansions and Tags (either may legitimately be empty)
func ValidateEnhancedQuery(q *EnhancedQuery) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidEnhancedQuery)
	}

	if err := ValidateQuery(q.Original); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnhancedQuery, err)
	}

	if strings.TrimSpace(q.FinalQuery) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEnhancedQuery, ErrEmptyFinalQuery)
	}

	if err := ValidateConceptSource(q.ConceptSource); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnhancedQuery, err)
	}

	return nil
}

// ValidateConceptSource validates that a ConceptSource has a valid value.
func ValidateConceptSource(s ConceptSource) error {
	if s != ConceptSourceModel && s != ConceptSourceFallback {
		return fmt.Errorf("%w: value %d", ErrInvalidConceptSource, s)
	}
	return nil
}

// ValidateVerse validates a fetched Verse. Content may be empty; the source key may not.
func ValidateVerse(v *Verse) error {
	if v == nil {
		return fmt.Errorf("%w: verse is nil", ErrInvalidVerse)
	}
	if v.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidVerse, ErrEmptyVerseSource)
	}
	return nil
}
