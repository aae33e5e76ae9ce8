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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MarshalString serializes a string to bytes.
func MarshalString(s string) []byte {
	buf := make([]byte, ord.String.Size(s))
	ord.String.Marshal(s, buf)
	return buf
}

// UnmarshalString deserializes a string from bytes.
func UnmarshalString(data []byte) (string, error) {
	s, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return "", fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return s, nil
}

// MarshalStrings serializes a string slice as a count followed by the strings.
func MarshalStrings(ss []string) []byte {
	size := varint.Int.Size(len(ss))
	for _, s := range ss {
		size += ord.String.Size(s)
	}

	buf := make([]byte, size)
	n := varint.Int.Marshal(len(ss), buf)
	for _, s := range ss {
		n += ord.String.Marshal(s, buf[n:])
	}
	return buf
}

// UnmarshalStrings deserializes a string slice from bytes.
func UnmarshalStrings(data []byte) ([]string, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if count < 0 || count > len(data) {
		return nil, fmt.Errorf("%w: invalid count %d", ErrSerializationFailed, count)
	}

	off := n
	ss := make([]string, count)
	for i := range ss {
		if off >= len(data) {
			return nil, ErrTruncatedData
		}
		ss[i], n, err = ord.String.Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrSerializationFailed, i, err)
		}
		off += n
	}
	if off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-off)
	}
	return ss, nil
}

// Record is a stored value with an optional expiry, for backends that have
// no native TTL support.
type Record struct {
	Value     []byte
	ExpiresAt time.Time // zero means never
}

// Expired reports whether the record has expired at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// MarshalRecord serializes a Record as expiry (unix micro, 0 for none) then value.
func MarshalRecord(r Record) []byte {
	var expires int64
	if !r.ExpiresAt.IsZero() {
		expires = r.ExpiresAt.UnixMicro()
	}
	value := string(r.Value)

	buf := make([]byte, varint.Int64.Size(expires)+ord.String.Size(value))
	n := varint.Int64.Marshal(expires, buf)
	ord.String.Marshal(value, buf[n:])
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (Record, error) {
	expires, n, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return Record{}, fmt.Errorf("%w: expiry: %w", ErrSerializationFailed, err)
	}
	value, err := UnmarshalString(data[n:])
	if err != nil {
		return Record{}, err
	}

	r := Record{Value: []byte(value)}
	if expires != 0 {
		r.ExpiresAt = time.UnixMicro(expires)
	}
	return r, nil
}
