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


package badger

const (
	// keyPrefix namespaces store entries inside the database.
	keyPrefix = "kv:"
)

// makeKey generates the database key for a store key.
func makeKey(key string) []byte {
	buf := make([]byte, 0, len(keyPrefix)+len(key))
	buf = append(buf, keyPrefix...)
	return append(buf, key...)
}
