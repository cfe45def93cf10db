package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/hnstream/ai/mock"
	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/vectorindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollections(t *testing.T) (*vectorindex.MemoryIndex, *vectorindex.MemoryIndex) {
	t.Helper()
	ctx := context.Background()
	stories := vectorindex.NewMemoryIndex(vectorindex.StorySchema(mock.DefaultDimensions))
	comments := vectorindex.NewMemoryIndex(vectorindex.CommentSchema(mock.DefaultDimensions))
	require.NoError(t, stories.Create(ctx, false))
	require.NoError(t, comments.Create(ctx, false))
	return stories, comments
}

func embedded(t *testing.T, embedder *mock.MockEmbedder, r core.IndexRecord) core.IndexRecord {
	t.Helper()
	vec, err := embedder.EmbedText(context.Background(), r.Text)
	require.NoError(t, err)
	r.Embedding = vectorindex.NormalizeVector(vec)
	return r
}

type recordingMonitor struct {
	started   core.Kind
	dims      int
	neighbors int
	verbatim  []string
	finished  int
}

func (m *recordingMonitor) Start(collection core.Kind, _ string) { m.started = collection }
func (m *recordingMonitor) AfterEmbedding(dims int)              { m.dims = dims }
func (m *recordingMonitor) AfterNearestNeighbours(results []core.SearchResult) {
	m.neighbors = len(results)
}
func (m *recordingMonitor) VerbatimHit(record core.IndexRecord) {
	m.verbatim = append(m.verbatim, record.KeyID)
}
func (m *recordingMonitor) Finish(results []core.SearchResult) { m.finished = len(results) }

func TestNewSearcher(t *testing.T) {
	stories, comments := newCollections(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(embedder, []vectorindex.Index{stories, comments})
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(embedder, []vectorindex.Index{stories}, WithLogger(nil))
		require.NoError(t, err)
		assert.Equal(t, slog.Default(), searcher.logger)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(nil, []vectorindex.Index{stories})
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("no indexes", func(t *testing.T) {
		_, err := NewSearcher(embedder, nil)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("negative boost", func(t *testing.T) {
		_, err := NewSearcher(embedder, []vectorindex.Index{stories}, WithVerbatimBoost(-1))
		assert.Error(t, err)
	})
}

func TestSearch_EmptyCollection(t *testing.T) {
	stories, comments := newCollections(t)
	searcher, err := NewSearcher(mock.NewMockEmbedder(), []vectorindex.Index{stories, comments})
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), core.KindStory, "anything at all", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RanksExactTextFirst(t *testing.T) {
	stories, comments := newCollections(t)
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	require.NoError(t, comments.Load(ctx, []core.IndexRecord{
		embedded(t, embedder, core.IndexRecord{KeyID: "c1", ID: 1, Type: "comment", RootID: "10", Text: "borrow checker complaints"}),
		embedded(t, embedder, core.IndexRecord{KeyID: "c2", ID: 2, Type: "comment", RootID: "10", Text: "garbage collection pauses"}),
		embedded(t, embedder, core.IndexRecord{KeyID: "c3", ID: 3, Type: "comment", RootID: "11", Text: "tabs versus spaces"}),
	}))

	searcher, err := NewSearcher(embedder, []vectorindex.Index{stories, comments})
	require.NoError(t, err)

	results, err := searcher.Search(ctx, core.KindComment, "<p>garbage   collection pauses</p>", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c2", results[0].Record.KeyID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearch_VerbatimBoost(t *testing.T) {
	stories, comments := newCollections(t)
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	require.NoError(t, stories.Load(ctx, []core.IndexRecord{
		embedded(t, embedder, core.IndexRecord{KeyID: "s1", ID: 1, Type: "story", Text: "Show HN: a tiny database in Go"}),
		embedded(t, embedder, core.IndexRecord{KeyID: "s2", ID: 2, Type: "story", Text: "Ask HN: favourite editor"}),
	}))

	searcher, err := NewSearcher(embedder, []vectorindex.Index{stories, comments}, WithVerbatimBoost(3))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.SearchWithMonitor(ctx, core.KindStory, "tiny database", 10, monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "s1", results[0].Record.KeyID)
	assert.Greater(t, results[0].Score, float32(2))
	assert.Equal(t, []string{"s1"}, monitor.verbatim)
	assert.Equal(t, core.KindStory, monitor.started)
	assert.Equal(t, mock.DefaultDimensions, monitor.dims)
	assert.Equal(t, 2, monitor.neighbors)
	assert.Equal(t, 2, monitor.finished)
}

func TestSearch_Errors(t *testing.T) {
	stories, _ := newCollections(t)
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	searcher, err := NewSearcher(embedder, []vectorindex.Index{stories})
	require.NoError(t, err)

	t.Run("unknown collection", func(t *testing.T) {
		_, err := searcher.Search(ctx, core.KindComment, "query", 5)
		assert.ErrorIs(t, err, ErrUnknownCollection)
	})

	t.Run("empty query after cleaning", func(t *testing.T) {
		_, err := searcher.Search(ctx, core.KindStory, "<p> </p>", 5)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("embedder failure", func(t *testing.T) {
		boom := errors.New("boom")
		failing := mock.NewMockEmbedder()
		failing.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, boom
		}
		s, err := NewSearcher(failing, []vectorindex.Index{stories})
		require.NoError(t, err)
		_, err = s.Search(ctx, core.KindStory, "query", 5)
		assert.ErrorIs(t, err, boom)
	})
}

func TestContainsAllQueryWords(t *testing.T) {
	assert.True(t, containsAllQueryWords("The Tiny Database, in Go!", "tiny database"))
	assert.False(t, containsAllQueryWords("a tiny thing", "tiny database"))
	assert.False(t, containsAllQueryWords("anything", "the of and"))
}

func TestContainsAllQueryWords_HNText(t *testing.T) {
	t.Run("post prefix is ignored", func(t *testing.T) {
		assert.True(t, containsAllQueryWords("A tiny database written in Rust", "Show HN: tiny database"))
		assert.False(t, containsAllQueryWords("anything", "Ask HN:"))
	})

	t.Run("escaped comment markup", func(t *testing.T) {
		comment := `It&#x27;s a <i>tiny</i> database.<p>See <a href="https:&#x2F;&#x2F;example.com&#x2F;db" rel="nofollow">https:&#x2F;&#x2F;example.com&#x2F;db</a>`
		assert.True(t, containsAllQueryWords(comment, "tiny database"))
		assert.False(t, containsAllQueryWords(comment, "example"), "link text is not content")
	})

	t.Run("symbols in language names", func(t *testing.T) {
		assert.True(t, containsAllQueryWords("Rewriting it in C++ was a mistake", "c++"))
		assert.False(t, containsAllQueryWords("Rewriting it in C was a mistake", "c++"))
	})
}

func TestTokenizeAndFilter(t *testing.T) {
	assert.Equal(t, []string{"node", "js", "memory", "leak"}, tokenizeAndFilter("Node.js memory-leak (https://x.io)"))
	assert.Empty(t, tokenizeAndFilter("<p>"))
}
