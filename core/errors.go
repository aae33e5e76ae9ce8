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

import "errors"

// Domain validation errors
var (
	// ErrAssetLoad indicates a required asset (synonym map, tag vocabulary,
	// tag index) is missing or corrupt.
	ErrAssetLoad = errors.New("asset load failed")

	// ErrEmptyQuery indicates a query or question is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidEnhancedQuery indicates an EnhancedQuery failed validation.
	ErrInvalidEnhancedQuery = errors.New("invalid enhanced query")

	// ErrInvalidVerse indicates a Verse failed validation.
	ErrInvalidVerse = errors.New("invalid verse")

	// ErrEmptyFinalQuery indicates the merged query string is empty.
	ErrEmptyFinalQuery = errors.New("final query cannot be empty")

	// ErrInvalidConceptSource indicates an unknown ConceptSource value.
	ErrInvalidConceptSource = errors.New("invalid concept source")

	// ErrEmptyVerseSource indicates a verse has no content key.
	ErrEmptyVerseSource = errors.New("verse source cannot be empty")
)
