package thesaurus

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/gurukul/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thesaurus.json")
	m := core.SynonymMap{"satya": "dharma", "atman": "ātman", "dharma": "dharma"}

	require.NoError(t, SaveMap(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	// UTF-8 kept as-is, keys sorted, indented
	assert.Contains(t, text, `"atman": "ātman"`)
	assert.Less(t, strings.Index(text, `"atman"`), strings.Index(text, `"satya"`))
	assert.True(t, strings.HasPrefix(text, "{\n  "))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoadMap_NormalizesKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thesaurus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ātman": "ātman", "Jīva": "ātman"}`), 0644))

	m, err := LoadMap(path)
	require.NoError(t, err)

	assert.Equal(t, core.SynonymMap{"atman": "ātman", "jiva": "ātman"}, m)
	got, ok := Lookup(m, "jīva")
	assert.True(t, ok)
	assert.Equal(t, "ātman", got)
}

func TestLoadMap_CollisionsLastInFileWins(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "thesaurus.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"ātman":"ātman","atman":"ahaṃ","śiva":"śiva","siva":"rudra"}`), 0644))

	for range 50 {
		m, err := LoadMap(path)
		require.NoError(t, err)
		assert.Equal(t, core.SynonymMap{"atman": "ahaṃ", "siva": "rudra"}, m)
	}
	assert.Contains(t, logs.String(), "synonym map keys collide after normalization")
	assert.Contains(t, logs.String(), "later=siva")
}

func TestLoadMap_CollisionOrderFollowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thesaurus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"atman":"ahaṃ","ātman":"ātman"}`), 0644))

	m, err := LoadMap(path)
	require.NoError(t, err)
	assert.Equal(t, core.SynonymMap{"atman": "ātman"}, m)
}

func TestLoadMap_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content *string
	}{
		{"missing file", nil},
		{"corrupt json", ptr(`{"a": `)},
		{"array instead of object", ptr(`["a", "b"]`)},
		{"null", ptr(`null`)},
		{"non-string values", ptr(`{"a": 1}`)},
		{"empty file", ptr(``)},
		{"trailing data", ptr(`{"a": "b"} {}`)},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "map"+string(rune('0'+i))+".json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0644))
			}
			_, err := LoadMap(path)
			assert.ErrorIs(t, err, core.ErrAssetLoad)
		})
	}
}

func TestSaveLoadMap_PreservesLookups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thesaurus.json")
	built := core.SynonymMap{"satya": "dharma", "dharma": "dharma", "atman": "ātman"}
	require.NoError(t, SaveMap(path, built))

	loaded, err := LoadMap(path)
	require.NoError(t, err)
	assert.Equal(t, built, loaded)
}

func ptr(s string) *string { return &s }
