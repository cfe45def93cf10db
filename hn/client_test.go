package hn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/hnstream/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL + "/"))
}

func TestClient_MaxItem(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maxitem.json", r.URL.Path)
		w.Write([]byte("41234567\n"))
	})

	id, err := client.MaxItem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(41234567), id)
}

func TestClient_MaxItem_BadStatus(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.MaxItem(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_MaxItem_Garbage(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a number"))
	})

	_, err := client.MaxItem(context.Background())
	assert.Error(t, err)
}

func TestClient_Item(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/8863.json", r.URL.Path)
		w.Write([]byte(`{"by":"dhouston","id":8863,"score":111,"time":1175714200,"title":"My YC app: Dropbox","type":"story","url":"http://www.getdropbox.com/u/2/screencast.html"}`))
	})

	item, err := client.Item(context.Background(), 8863)
	require.NoError(t, err)
	assert.Equal(t, int64(8863), item.ID)
	assert.Equal(t, core.KindStory, item.Kind)
	assert.Equal(t, "My YC app: Dropbox", item.Title)
}

func TestClient_Item_Null(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})

	_, err := client.Item(context.Background(), 1)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestClient_Item_EmptyObject(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})

	_, err := client.Item(context.Background(), 1)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestClient_RateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("1"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(20, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.MaxItem(context.Background())
		require.NoError(t, err)
	}
	// 3 calls at 20/s with burst 1 need at least ~100ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ContextCanceled(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.MaxItem(ctx)
	assert.Error(t, err)
}
