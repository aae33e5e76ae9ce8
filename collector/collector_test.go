package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/gurukul/ai/mock"
	"github.com/poiesic/gurukul/content"
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/enhance"
	"github.com/poiesic/gurukul/retrieval"
	"github.com/poiesic/gurukul/tagindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enhancerFunc func(ctx context.Context, query string) (*core.EnhancedQuery, error)

func (f enhancerFunc) Enhance(ctx context.Context, query string) (*core.EnhancedQuery, error) {
	return f(ctx, query)
}

func staticEnhancer(finalQuery string) enhancerFunc {
	return func(_ context.Context, query string) (*core.EnhancedQuery, error) {
		return &core.EnhancedQuery{
			Original:      query,
			Concepts:      []string{"dharma"},
			ConceptSource: core.ConceptSourceModel,
			FinalQuery:    finalQuery,
		}, nil
	}
}

// mapStore is an in-memory content.Store.
type mapStore struct {
	mu        sync.Mutex
	objects   map[string]string
	fetchErr  error
	existsErr error
	checked   []string
}

func (s *mapStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = append(s.checked, key)
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.objects[key]
	return ok, nil
}

func (s *mapStore) Fetch(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return "", s.fetchErr
	}
	text, ok := s.objects[key]
	if !ok {
		return "", content.ErrNotFound
	}
	return text, nil
}

func result(link, title string) retrieval.Result {
	return retrieval.Result{Document: retrieval.Document{DerivedStructData: retrieval.DerivedStructData{Link: link, Title: title}}}
}

func staticBackend(results ...retrieval.Result) retrieval.BackendFunc {
	return func(_ context.Context, _ *retrieval.Request) (*retrieval.Response, error) {
		return &retrieval.Response{Results: results}, nil
	}
}

func newTestCollector(t *testing.T, enhancer QueryEnhancer, backend retrieval.Backend, store content.Store, opts ...Option) *Collector {
	t.Helper()
	c, err := New(enhancer, backend, store, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	store := &mapStore{}
	backend := staticBackend()
	enhancer := staticEnhancer("q")

	_, err := New(nil, backend, store)
	assert.ErrorIs(t, err, ErrEnhancerRequired)
	_, err = New(enhancer, nil, store)
	assert.ErrorIs(t, err, ErrBackendRequired)
	_, err = New(enhancer, backend, nil)
	assert.ErrorIs(t, err, ErrContentStoreRequired)
	_, err = New(enhancer, backend, store, WithPageSize(0))
	assert.ErrorIs(t, err, ErrInvalidPageSize)
	_, err = New(enhancer, backend, store, WithMaxVerses(-1))
	assert.ErrorIs(t, err, ErrInvalidMaxVerses)
	_, err = New(enhancer, backend, store, WithCallTimeout(-time.Second))
	assert.Error(t, err)
}

func TestCollect_SkipsMissingObjects(t *testing.T) {
	store := &mapStore{objects: map[string]string{
		"v/1.txt": "one",
		"v/3.txt": "three",
		"v/5.txt": "five",
	}}
	backend := staticBackend(
		result("gs://corpus/v/1.txt", "V1"),
		result("gs://corpus/v/2.txt", "V2"),
		result("gs://corpus/v/3.txt", "V3"),
		result("gs://corpus/v/4.txt", "V4"),
		result("gs://corpus/v/5.txt", "V5"),
	)
	c := newTestCollector(t, staticEnhancer("dharma"), backend, store, WithBucket("corpus"))

	got, err := c.Collect(context.Background(), "what is righteousness", "s1")
	require.NoError(t, err)

	assert.Equal(t, 3, got.Results.TotalVerses)
	assert.Equal(t, []core.Verse{
		{ID: "V1", Content: "one", Source: "v/1.txt"},
		{ID: "V3", Content: "three", Source: "v/3.txt"},
		{ID: "V5", Content: "five", Source: "v/5.txt"},
	}, got.Results.Verses)
}

func TestCollect_TakesTopResultsInBackendOrder(t *testing.T) {
	objects := make(map[string]string)
	var results []retrieval.Result
	for i := 1; i <= 8; i++ {
		key := fmt.Sprintf("v/%d.txt", i)
		objects[key] = key
		results = append(results, result("gs://corpus/"+key, key))
	}
	store := &mapStore{objects: objects}
	c := newTestCollector(t, staticEnhancer("q"), staticBackend(results...), store)

	got, err := c.Collect(context.Background(), "q", "s")
	require.NoError(t, err)

	assert.Equal(t, []string{"v/1.txt", "v/2.txt", "v/3.txt", "v/4.txt", "v/5.txt"}, store.checked)
	assert.Len(t, got.Results.Verses, DefaultMaxVerses)
	assert.Equal(t, "v/1.txt", got.Results.Verses[0].ID)
}

func TestCollect_WithMaxVerses(t *testing.T) {
	store := &mapStore{objects: map[string]string{"a": "A", "b": "B"}}
	c := newTestCollector(t, staticEnhancer("q"), staticBackend(result("a", "a"), result("b", "b")), store, WithMaxVerses(1))

	got, err := c.Collect(context.Background(), "q", "s")
	require.NoError(t, err)
	assert.Len(t, got.Results.Verses, 1)
}

func TestCollect_SkipsResultsWithoutLocator(t *testing.T) {
	store := &mapStore{objects: map[string]string{"v/1.txt": "one"}}
	c := newTestCollector(t, staticEnhancer("q"), staticBackend(result("", "no link"), result("gs://corpus/v/1.txt", "V1")), store)

	got, err := c.Collect(context.Background(), "q", "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"v/1.txt"}, store.checked)
	assert.Equal(t, 1, got.Results.TotalVerses)
}

func TestCollect_NoResults(t *testing.T) {
	c := newTestCollector(t, staticEnhancer("q"), staticBackend(), &mapStore{})

	got, err := c.Collect(context.Background(), "q", "s")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Results.TotalVerses)
	assert.NotNil(t, got.Results.Verses)
}

func TestCollect_BuildsRequestFromEnhancedQuery(t *testing.T) {
	filter := `text_id: ANY("gita")`
	enhancer := enhancerFunc(func(_ context.Context, query string) (*core.EnhancedQuery, error) {
		return &core.EnhancedQuery{
			Original:      query,
			ConceptSource: core.ConceptSourceFallback,
			FinalQuery:    "dharma ethics",
			ScopingFilter: &filter,
		}, nil
	})
	var got *retrieval.Request
	backend := retrieval.BackendFunc(func(_ context.Context, req *retrieval.Request) (*retrieval.Response, error) {
		got = req
		return &retrieval.Response{}, nil
	})
	c := newTestCollector(t, enhancer, backend, &mapStore{})

	_, err := c.Collect(context.Background(), "q", "s")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, &retrieval.Request{Query: "dharma ethics", PageSize: DefaultPageSize, Filter: filter}, got)
}

func TestCollect_Metadata(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	c := newTestCollector(t, staticEnhancer("dharma"), staticBackend(), &mapStore{}, WithClock(func() time.Time { return at }))

	got, err := c.Collect(context.Background(), "what is righteousness", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultSessionID, got.SessionID)
	assert.Equal(t, "what is righteousness", got.Query.Original)
	assert.Equal(t, "dharma", got.Query.Enhanced.FinalQuery)
	assert.Equal(t, at, got.Metadata.CollectionTime)
	assert.Equal(t, "v2.0-go", got.Metadata.CollectorVersion)
}

func TestCollect_EmptyQuestion(t *testing.T) {
	c := newTestCollector(t, staticEnhancer("q"), staticBackend(), &mapStore{})

	_, err := c.Collect(context.Background(), "", "s")
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestCollect_EnhancerErrorIsFatal(t *testing.T) {
	boom := errors.New("model unreachable")
	called := false
	backend := retrieval.BackendFunc(func(_ context.Context, _ *retrieval.Request) (*retrieval.Response, error) {
		called = true
		return &retrieval.Response{}, nil
	})
	enhancer := enhancerFunc(func(_ context.Context, _ string) (*core.EnhancedQuery, error) {
		return nil, boom
	})
	c := newTestCollector(t, enhancer, backend, &mapStore{})

	_, err := c.Collect(context.Background(), "q", "s")
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestCollect_BackendStatusErrorIsFatal(t *testing.T) {
	backend := retrieval.BackendFunc(func(_ context.Context, _ *retrieval.Request) (*retrieval.Response, error) {
		return nil, &retrieval.StatusError{StatusCode: 503, Message: "unavailable"}
	})
	c := newTestCollector(t, staticEnhancer("q"), backend, &mapStore{})

	_, err := c.Collect(context.Background(), "q", "s")
	var statusErr *retrieval.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.StatusCode)
}

func TestCollect_ContentErrorsAreFatal(t *testing.T) {
	boom := errors.New("connection reset")
	backend := staticBackend(result("gs://corpus/v/1.txt", "V1"))

	t.Run("exists", func(t *testing.T) {
		c := newTestCollector(t, staticEnhancer("q"), backend, &mapStore{existsErr: boom})
		_, err := c.Collect(context.Background(), "q", "s")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("fetch", func(t *testing.T) {
		store := &mapStore{objects: map[string]string{"v/1.txt": "one"}, fetchErr: boom}
		c := newTestCollector(t, staticEnhancer("q"), backend, store)
		_, err := c.Collect(context.Background(), "q", "s")
		assert.ErrorIs(t, err, boom)
	})
}

func TestCollect_CallTimeout(t *testing.T) {
	backend := retrieval.BackendFunc(func(ctx context.Context, _ *retrieval.Request) (*retrieval.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := newTestCollector(t, staticEnhancer("q"), backend, &mapStore{}, WithCallTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := c.Collect(context.Background(), "q", "s")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCollect_WithEnhancerAndFileStore(t *testing.T) {
	index, err := tagindex.NewIndex(2)
	require.NoError(t, err)
	require.NoError(t, index.Add([]float32{0, 0}))
	assets := &enhance.Assets{
		SynonymMap: core.SynonymMap{"satya": "dharma", "dharmah": "dharma", "dharma": "dharma"},
		Tags:       []string{"ethics"},
		Index:      index,
	}
	model := mock.NewMockLanguageModel()
	model.Reply = `["dharma"]`
	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 2
	enhancer, err := enhance.New(assets, mock.NewMockProviderWithServices(embedder, model))
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "gita"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gita", "2.47.txt"), []byte("karmaṇy evādhikāras te"), 0644))
	store, err := content.NewFileStore(root)
	require.NoError(t, err)

	var query string
	backend := retrieval.BackendFunc(func(_ context.Context, req *retrieval.Request) (*retrieval.Response, error) {
		query = req.Query
		return &retrieval.Response{Results: []retrieval.Result{
			result("gs://corpus/gita/2.47.txt", "BG 2.47"),
			result("gs://corpus/gita/2.48.txt", "BG 2.48"),
		}}, nil
	})
	c := newTestCollector(t, enhancer, backend, store, WithBucket("corpus"))

	got, err := c.Collect(context.Background(), "what is righteousness", "s")
	require.NoError(t, err)

	assert.Equal(t, "dharma ethics", query)
	assert.Equal(t, core.ConceptSourceModel, got.Query.Enhanced.ConceptSource)
	assert.Equal(t, []core.Verse{{ID: "BG 2.47", Content: "karmaṇy evādhikāras te", Source: "gita/2.47.txt"}}, got.Results.Verses)
}
