package thesaurus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/internal/atomicfile"
)

// SaveMap writes m as an indented JSON object with sorted keys.
// The file is written to a temporary sibling and renamed into place, so a
// failed save never leaves partial output at path.
func SaveMap(path string, m core.SynonymMap) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding synonym map: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes())
}

// LoadMap reads a synonym map written by SaveMap or by any tool emitting a
// flat JSON object of strings. Keys are passed through Normalize on load.
// Entries are applied in file order: when several keys normalize to the
// same key, the last one in the file wins and the collision is logged.
func LoadMap(path string) (core.SynonymMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: synonym map: %w", core.ErrAssetLoad, err)
	}

	m, err := decodeMap(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: synonym map %s: %w", core.ErrAssetLoad, path, err)
	}
	return m, nil
}

func decodeMap(path string, data []byte) (core.SynonymMap, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("not a JSON object")
	}

	logger := slog.Default().With("component", "thesaurus")
	m := make(core.SynonymMap)
	sources := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}

		norm := Normalize(key)
		if prev, seen := sources[norm]; seen && m[norm] != value {
			logger.Warn("synonym map keys collide after normalization",
				"path", path, "key", norm, "earlier", prev, "later", key,
				"dropped", m[norm], "kept", value)
		}
		sources[norm] = key
		m[norm] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON object")
	}
	return m, nil
}

// Lookup normalizes word and returns its headword.
func Lookup(m core.SynonymMap, word string) (string, bool) {
	h, ok := m[Normalize(word)]
	return h, ok
}
