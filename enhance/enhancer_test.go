package enhance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/gurukul/ai/mock"
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/tagindex"
	"github.com/poiesic/gurukul/thesaurus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAssets builds a two-dimensional index whose i-th vector is {i, 0}.
func newTestAssets(t *testing.T, synonyms core.SynonymMap, tags ...string) *Assets {
	t.Helper()
	index, err := tagindex.NewIndex(2)
	require.NoError(t, err)
	for i := range tags {
		require.NoError(t, index.Add([]float32{float32(i), 0}))
	}
	return &Assets{SynonymMap: synonyms, Tags: tags, Index: index}
}

// newTestEnhancer wires assets to a mock model answering reply and a mock
// embedder that always returns {0, 0}.
func newTestEnhancer(t *testing.T, assets *Assets, reply string, opts ...Option) (*Enhancer, *mock.MockLanguageModel) {
	t.Helper()
	model := mock.NewMockLanguageModel()
	model.Reply = reply
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 2
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{0, 0}, nil
	}
	e, err := New(assets, mock.NewMockProviderWithServices(embedder, model), opts...)
	require.NoError(t, err)
	return e, model
}

func terms(finalQuery string) map[string]int {
	counts := make(map[string]int)
	for _, term := range strings.Fields(finalQuery) {
		counts[term]++
	}
	return counts
}

func TestNew_RequiresAssets(t *testing.T) {
	provider := mock.NewMockProvider()
	valid := newTestAssets(t, core.SynonymMap{}, "ethics")

	tests := []struct {
		name     string
		assets   *Assets
		provider bool
		wantErr  error
	}{
		{name: "nil assets", assets: nil, provider: true, wantErr: ErrSynonymMapRequired},
		{name: "nil synonym map", assets: &Assets{Tags: valid.Tags, Index: valid.Index}, provider: true, wantErr: ErrSynonymMapRequired},
		{name: "empty vocabulary", assets: &Assets{SynonymMap: core.SynonymMap{}, Index: valid.Index}, provider: true, wantErr: ErrTagVocabularyRequired},
		{name: "nil index", assets: &Assets{SynonymMap: core.SynonymMap{}, Tags: valid.Tags}, provider: true, wantErr: ErrTagIndexRequired},
		{name: "nil provider", assets: valid, provider: false, wantErr: ErrAIProviderRequired},
		{name: "vocabulary mismatch", assets: &Assets{SynonymMap: core.SynonymMap{}, Tags: []string{"a", "b"}, Index: valid.Index}, provider: true, wantErr: ErrIndexVocabularyMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *Enhancer
			var err error
			if tt.provider {
				e, err = New(tt.assets, provider)
			} else {
				e, err = New(tt.assets, nil)
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, e)
		})
	}
}

func TestNew_InvalidTopK(t *testing.T) {
	_, err := New(newTestAssets(t, core.SynonymMap{}, "ethics"), mock.NewMockProvider(), WithTopK(0))
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestEnhance_EmptyQuery(t *testing.T) {
	e, model := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{}, "ethics"), `["dharma"]`)

	_, err := e.Enhance(context.Background(), "   ")
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
	assert.Equal(t, 0, model.CallCount())
}

func TestEnhance_EndToEnd(t *testing.T) {
	builder, err := thesaurus.NewBuilder(thesaurus.WithMinEntries(0))
	require.NoError(t, err)
	t.Cleanup(builder.Release)
	built, err := builder.Build(context.Background(), &thesaurus.Document{Lines: []string{"dharma satya dharmah"}})
	require.NoError(t, err)
	require.Equal(t, core.SynonymMap{"satya": "dharma", "dharmah": "dharma", "dharma": "dharma"}, built.Map)

	e, model := newTestEnhancer(t, newTestAssets(t, built.Map, "ethics"), `["dharma"]`)

	result, err := e.Enhance(context.Background(), "what is righteousness")
	require.NoError(t, err)

	assert.Equal(t, "what is righteousness", result.Original)
	assert.Equal(t, []string{"dharma"}, result.Concepts)
	assert.Equal(t, core.ConceptSourceModel, result.ConceptSource)
	assert.Equal(t, []string{"dharma"}, result.Expansions)
	assert.Equal(t, []string{"ethics"}, result.Tags)
	assert.Equal(t, map[string]int{"dharma": 1, "ethics": 1}, terms(result.FinalQuery))
	assert.Nil(t, result.ScopingFilter)
	assert.NoError(t, core.ValidateEnhancedQuery(result))

	prompts := model.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `Query: "what is righteousness"`)
}

func TestEnhance_FallbackOnNonJSONReply(t *testing.T) {
	e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{}, "ethics"), "not json")

	result, err := e.Enhance(context.Background(), "What Is The SELF")
	require.NoError(t, err)

	assert.Equal(t, []string{"what is the self"}, result.Concepts)
	assert.Equal(t, core.ConceptSourceFallback, result.ConceptSource)
	assert.Empty(t, result.Expansions)
}

func TestEnhance_FencedArrayIsModelOutput(t *testing.T) {
	for _, reply := range []string{"```json\n[\"dharma\"]\n```", "```\n[\"dharma\"]\n```"} {
		t.Run(reply, func(t *testing.T) {
			e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{"dharma": "dharma"}, "ethics"), reply)

			result, err := e.Enhance(context.Background(), "what is righteousness")
			require.NoError(t, err)
			assert.Equal(t, []string{"dharma"}, result.Concepts)
			assert.Equal(t, core.ConceptSourceModel, result.ConceptSource)
			assert.Equal(t, []string{"dharma"}, result.Expansions)
		})
	}
}

func TestEnhance_FencedNonArrayFallsBack(t *testing.T) {
	e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{}, "ethics"), "```json\n{\"a\": \"b\"}\n```")

	result, err := e.Enhance(context.Background(), "Karma")
	require.NoError(t, err)
	assert.Equal(t, []string{"karma"}, result.Concepts)
	assert.Equal(t, core.ConceptSourceFallback, result.ConceptSource)
}

func TestEnhance_FallbackOnWrongShape(t *testing.T) {
	for _, reply := range []string{`{"a": "b"}`, `[1, 2]`, `null`, `"dharma"`} {
		t.Run(reply, func(t *testing.T) {
			e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{}, "ethics"), reply)

			result, err := e.Enhance(context.Background(), "Karma")
			require.NoError(t, err)
			assert.Equal(t, []string{"karma"}, result.Concepts)
			assert.Equal(t, core.ConceptSourceFallback, result.ConceptSource)
		})
	}
}

func TestEnhance_ShortHeadwordsDropped(t *testing.T) {
	e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{"x": "ab"}, "ethics"), `["x"]`)

	result, err := e.Enhance(context.Background(), "anything")
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, result.Concepts)
	assert.Empty(t, result.Expansions)
	assert.Equal(t, map[string]int{"x": 1, "ethics": 1}, terms(result.FinalQuery))
}

func TestEnhance_ExpansionNormalizesAndDeduplicates(t *testing.T) {
	synonyms := core.SynonymMap{
		"atma":    "ātman",
		"atman":   "ātman",
		"purusah": "puruṣa",
	}
	e, _ := newTestEnhancer(t, newTestAssets(t, synonyms, "self"), `["ātmā", "Ātman", "puruṣaḥ", "unknown"]`)

	result, err := e.Enhance(context.Background(), "the nature of the self")
	require.NoError(t, err)

	assert.Equal(t, []string{"ātman", "puruṣa"}, result.Expansions)
}

func TestEnhance_TagsInDistanceOrder(t *testing.T) {
	index, err := tagindex.NewIndex(2)
	require.NoError(t, err)
	require.NoError(t, index.Add([]float32{0, 0}, []float32{1, 0}, []float32{5, 0}))
	assets := &Assets{SynonymMap: core.SynonymMap{}, Tags: []string{"near", "nearest", "far"}, Index: index}

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{0.9, 0}, nil
	}
	e, err := New(assets, mock.NewMockProviderWithServices(embedder, mock.NewMockLanguageModel()), WithTopK(2))
	require.NoError(t, err)

	result, err := e.Enhance(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"nearest", "near"}, result.Tags)
}

func TestEnhance_TopKCappedByVocabulary(t *testing.T) {
	e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{}, "a", "b", "c"), `[]`)

	result, err := e.Enhance(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, result.Tags)
	assert.Empty(t, result.Concepts)
	assert.Equal(t, core.ConceptSourceModel, result.ConceptSource)
}

func TestEnhance_ModelErrorIsFatal(t *testing.T) {
	assets := newTestAssets(t, core.SynonymMap{}, "ethics")
	model := mock.NewMockLanguageModel()
	boom := errors.New("connection refused")
	model.GenerateFunc = func(_ context.Context, _ string) (string, error) {
		return "", boom
	}
	embedder := mock.NewMockEmbedder()
	e, err := New(assets, mock.NewMockProviderWithServices(embedder, model))
	require.NoError(t, err)

	_, err = e.Enhance(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestEnhance_EmbedderErrorIsFatal(t *testing.T) {
	assets := newTestAssets(t, core.SynonymMap{}, "ethics")
	embedder := mock.NewMockEmbedder()
	boom := errors.New("embedding backend down")
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, boom
	}
	e, err := New(assets, mock.NewMockProviderWithServices(embedder, mock.NewMockLanguageModel()))
	require.NoError(t, err)

	_, err = e.Enhance(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestEnhance_EmbeddingDimensionMismatch(t *testing.T) {
	// default mock vectors have DefaultDimension components
	e, err := New(newTestAssets(t, core.SynonymMap{}, "ethics"), mock.NewMockProvider())
	require.NoError(t, err)

	_, err = e.Enhance(context.Background(), "q")
	assert.ErrorIs(t, err, tagindex.ErrDimensionMismatch)
}

func TestMerge_SetUnion(t *testing.T) {
	got := merge([]string{"a", "b"}, []string{"b", "c"}, []string{"c", "d"})

	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}, terms(got))
	assert.Equal(t, "a b c d", got)
}

func TestMerge_SkipsEmptyTerms(t *testing.T) {
	assert.Equal(t, "a", merge([]string{"", "a"}, nil, []string{""}))
	assert.Equal(t, "", merge())
}

type recordingMonitor struct {
	mu     sync.Mutex
	events []string
}

func (m *recordingMonitor) add(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, fmt.Sprintf(format, args...))
}

func (m *recordingMonitor) Start(query string) { m.add("start %s", query) }
func (m *recordingMonitor) AfterConceptExtraction(concepts []string, source core.ConceptSource) {
	m.add("concepts %v %s", concepts, source)
}
func (m *recordingMonitor) LookupMiss(concept string) { m.add("miss %s", concept) }
func (m *recordingMonitor) AfterLexicalExpansion(expansions []string) { m.add("expansions %v", expansions) }
func (m *recordingMonitor) AfterTagMapping(tags []string, neighbors []tagindex.Neighbor) {
	m.add("tags %v %d", tags, len(neighbors))
}
func (m *recordingMonitor) Finish(result *core.EnhancedQuery) { m.add("finish %s", result.FinalQuery) }

func TestEnhance_MonitorSeesStagesInOrder(t *testing.T) {
	monitor := &recordingMonitor{}
	assets := newTestAssets(t, core.SynonymMap{"satya": "dharma"}, "ethics")
	e, _ := newTestEnhancer(t, assets, `["satya", "rta"]`, WithMonitor(monitor))

	_, err := e.Enhance(context.Background(), "truth")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start truth",
		"concepts [satya rta] model",
		"miss rta",
		"expansions [dharma]",
		"tags [ethics] 1",
		"finish satya rta dharma ethics",
	}, monitor.events)
}

func TestEnhanceWithMonitor_OverridesDefault(t *testing.T) {
	configured := &recordingMonitor{}
	perCall := &recordingMonitor{}
	e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{}, "ethics"), `["a"]`, WithMonitor(configured))

	_, err := e.EnhanceWithMonitor(context.Background(), "q", perCall)
	require.NoError(t, err)

	assert.Empty(t, configured.events)
	assert.NotEmpty(t, perCall.events)
}

func TestEnhance_ConcurrentUse(t *testing.T) {
	e, _ := newTestEnhancer(t, newTestAssets(t, core.SynonymMap{"dharma": "dharma"}, "ethics", "duty"), `["dharma"]`)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := e.Enhance(context.Background(), "duty")
			if err != nil {
				errs <- err
				return
			}
			if result.FinalQuery != "dharma ethics duty" {
				errs <- fmt.Errorf("unexpected final query %q", result.FinalQuery)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestLoadAssets(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "synonyms.json")
	tagsPath := filepath.Join(dir, "tags.json")
	indexPath := filepath.Join(dir, "tags.idx")

	require.NoError(t, thesaurus.SaveMap(mapPath, core.SynonymMap{"dharma": "dharma"}))
	require.NoError(t, tagindex.SaveTags(tagsPath, []string{"ethics"}))
	index, err := tagindex.NewIndex(2)
	require.NoError(t, err)
	require.NoError(t, index.Add([]float32{1, 2}))
	require.NoError(t, tagindex.SaveIndex(indexPath, index))

	assets, err := LoadAssets(mapPath, tagsPath, indexPath)
	require.NoError(t, err)
	assert.Equal(t, core.SynonymMap{"dharma": "dharma"}, assets.SynonymMap)
	assert.Equal(t, []string{"ethics"}, assets.Tags)
	assert.Equal(t, 1, assets.Index.Len())

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAssets(mapPath, filepath.Join(dir, "absent.json"), indexPath)
		assert.ErrorIs(t, err, core.ErrAssetLoad)
	})
}
