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


package thesaurus

import "errors"

var (
	// ErrNoDocuments is returned when a build is started without input.
	ErrNoDocuments = errors.New("no documents to build from")

	// ErrEmptySource is returned when a corpus file has no content.
	ErrEmptySource = errors.New("corpus source is empty")

	// ErrUnparsableSource is returned when neither XML parsing nor the verse
	// splitter could extract any line from a corpus file.
	ErrUnparsableSource = errors.New("corpus source could not be parsed")

	// ErrInvalidThreshold is returned for negative threshold options.
	ErrInvalidThreshold = errors.New("threshold must not be negative")
)
