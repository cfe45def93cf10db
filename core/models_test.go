package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"story", KindStory},
		{"comment", KindComment},
		{"job", KindJob},
		{"poll", KindPoll},
		{"pollopt", KindPollOpt},
		{"Story", KindStory},
		{"", KindUnknown},
		{"banana", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.in))
		})
	}
}

func TestItem_UnmarshalJSON(t *testing.T) {
	t.Run("story payload", func(t *testing.T) {
		payload := `{"by":"dhouston","descendants":71,"id":8863,"kids":[8952,9224],"score":111,"time":1175714200,"title":"My YC app: Dropbox","type":"story","url":"http://www.getdropbox.com/u/2/screencast.html"}`

		var item Item
		require.NoError(t, json.Unmarshal([]byte(payload), &item))
		assert.Equal(t, int64(8863), item.ID)
		assert.Equal(t, KindStory, item.Kind)
		assert.Equal(t, "dhouston", item.By)
		assert.Equal(t, int64(71), item.Descendants)
		assert.Equal(t, int64(111), item.Score)
		assert.Equal(t, "http://www.getdropbox.com/u/2/screencast.html", item.URL)
		assert.False(t, item.HasParent())
		assert.Equal(t, []int64{8952, 9224}, item.Kids)
	})

	t.Run("comment payload", func(t *testing.T) {
		payload := `{"by":"norvig","id":2921983,"parent":2921506,"text":"Aw shucks","time":1314211127,"type":"comment"}`

		var item Item
		require.NoError(t, json.Unmarshal([]byte(payload), &item))
		assert.Equal(t, KindComment, item.Kind)
		require.True(t, item.HasParent())
		assert.Equal(t, int64(2921506), *item.Parent)
		assert.Equal(t, "Aw shucks", item.Text)
	})

	t.Run("unknown type", func(t *testing.T) {
		var item Item
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"type":"launch"}`), &item))
		assert.Equal(t, KindUnknown, item.Kind)
	})
}

func TestRecordKey(t *testing.T) {
	a := RecordKey("v1", KindStory, 101, 0)
	b := RecordKey("v1", KindStory, 101, 0)
	assert.Equal(t, a, b, "same inputs must produce the same key")
	assert.Contains(t, a, "v1:story:")

	assert.NotEqual(t, a, RecordKey("v1", KindStory, 101, 1))
	assert.NotEqual(t, a, RecordKey("v1", KindComment, 101, 0))
	assert.NotEqual(t, a, RecordKey("v1", KindStory, 102, 0))
}

func TestStoryRecords(t *testing.T) {
	story := Story{
		Item: Item{
			ID:    101,
			Kind:  KindStory,
			By:    "pg",
			Title: "A title",
			URL:   "https://example.com",
			Score: 7,
		},
		Chunks:     []string{"first", "second"},
		Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
	}

	records := StoryRecords("v1", story)
	require.Len(t, records, 2)
	for i, r := range records {
		assert.Equal(t, int64(101), r.ID)
		assert.Equal(t, "story", r.Type)
		assert.Equal(t, "A title", r.Title)
		assert.Equal(t, story.Chunks[i], r.Text)
		assert.Equal(t, story.Embeddings[i], r.Embedding)
	}
	assert.NotEqual(t, records[0].KeyID, records[1].KeyID)
}

func TestCommentRecords(t *testing.T) {
	parent := int64(50)
	comment := Comment{
		Item:       Item{ID: 102, Kind: KindComment, By: "tptacek", Parent: &parent},
		RootID:     10,
		Chunks:     []string{"only chunk"},
		Embeddings: [][]float32{{1, 0}},
	}

	records := CommentRecords("v1", comment)
	require.Len(t, records, 1)
	assert.Equal(t, "10", records[0].RootID)
	assert.Equal(t, int64(50), records[0].Parent)
	assert.Equal(t, "comment", records[0].Type)
}

func TestRecords_MoreChunksThanEmbeddings(t *testing.T) {
	story := Story{
		Item:       Item{ID: 1, Kind: KindStory},
		Chunks:     []string{"a", "b", "c"},
		Embeddings: [][]float32{{1}},
	}
	assert.Len(t, StoryRecords("v1", story), 1)
}
