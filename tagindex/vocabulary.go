package tagindex

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/internal/atomicfile"
)

// maxRecordSize bounds a single JSONL metadata record.
const maxRecordSize = 16 * 1024 * 1024

// metadataRecord is the subset of a verse metadata record the miner reads.
type metadataRecord struct {
	StructData struct {
		LLMTags []string `json:"llm_tags"`
	} `json:"structData"`
}

// MineStats counts what a Miner has seen.
type MineStats struct {
	Sources   int
	Records   int
	Malformed int
}

// Miner collects the unique tags of verse metadata records.
type Miner struct {
	tags   map[string]struct{}
	stats  MineStats
	logger *slog.Logger
}

// NewMiner creates an empty Miner. A nil logger uses slog.Default().
func NewMiner(logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{
		tags:   make(map[string]struct{}),
		logger: logger.With("component", "tag-miner"),
	}
}

// Mine reads JSONL records from r. Malformed records are logged and skipped.
func (m *Miner) Mine(source string, r io.Reader) error {
	m.stats.Sources++

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec metadataRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			m.stats.Malformed++
			m.logger.Warn("skipping malformed metadata record", "source", source, "line", lineNo, "err", err)
			continue
		}
		m.stats.Records++
		for _, tag := range rec.StructData.LLMTags {
			if tag != "" {
				m.tags[tag] = struct{}{}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}
	return nil
}

// MineFile opens path and mines it.
func (m *Miner) MineFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Mine(path, f)
}

// Tags returns the mined tags in sorted order.
func (m *Miner) Tags() []string {
	tags := make([]string, 0, len(m.tags))
	for tag := range m.tags {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Stats returns the counters accumulated so far.
func (m *Miner) Stats() MineStats {
	return m.stats
}

// SaveTags writes tags as an indented JSON array, replacing any existing
// file atomically.
func SaveTags(path string, tags []string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tags); err != nil {
		return err
	}
	return atomicfile.Write(path, buf.Bytes())
}

// LoadTags reads a JSON array of tags.
func LoadTags(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: tag vocabulary: %w", core.ErrAssetLoad, err)
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("%w: tag vocabulary %s: %w", core.ErrAssetLoad, path, err)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: tag vocabulary %s is empty", core.ErrAssetLoad, path)
	}
	return tags, nil
}
