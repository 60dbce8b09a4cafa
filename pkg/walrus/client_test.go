package walrus

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{PublisherURL: server.URL, AggregatorURL: server.URL + "/", AllowPrivateNetwork: true})
	require.NoError(t, err)
	return c
}

func TestClient_Store(t *testing.T) {
	t.Run("newlyCreated の blobId を返す", func(t *testing.T) {
		var gotQuery, gotBody string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v1/blobs", r.URL.Path)
			gotQuery = r.URL.RawQuery
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			w.Write([]byte(`{"newlyCreated":{"blobObject":{"id":"0xabc","blobId":"blob-1"}}}`))
		})

		ref, err := c.Store(context.Background(), []byte("hello"), StoreOptions{Epochs: 1, Owner: "0x1"})
		require.NoError(t, err)
		assert.Equal(t, "blob-1", ref.BlobID)
		assert.Equal(t, c.BlobURL("blob-1"), ref.URL)
		assert.False(t, ref.AlreadyCertified)
		assert.Equal(t, "hello", gotBody)
		assert.Contains(t, gotQuery, "epochs=1")
		assert.Contains(t, gotQuery, "permanent=true")
		assert.Contains(t, gotQuery, "send_object_to=0x1")
	})

	t.Run("alreadyCertified も受け付ける", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"alreadyCertified":{"blobId":"blob-2","endEpoch":5}}`))
		})
		ref, err := c.Store(context.Background(), []byte("x"), StoreOptions{})
		require.NoError(t, err)
		assert.Equal(t, "blob-2", ref.BlobID)
		assert.True(t, ref.AlreadyCertified)
	})

	t.Run("失敗はリトライせずに ErrUpload を返す", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "insufficient funds", http.StatusInternalServerError)
		})
		_, err := c.Store(context.Background(), []byte("x"), StoreOptions{})
		require.ErrorIs(t, err, ErrUpload)
		assert.Contains(t, err.Error(), "insufficient funds")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("blobId のない応答はエラー", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})
		_, err := c.Store(context.Background(), []byte("x"), StoreOptions{})
		require.ErrorIs(t, err, ErrUpload)
	})

	t.Run("空データは送らない", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("リクエストが送られてはいけません")
		})
		_, err := c.Store(context.Background(), nil, StoreOptions{})
		require.ErrorIs(t, err, ErrUpload)
	})
}

func TestClient_StoreDedupesConcurrentUploads(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"newlyCreated":{"blobObject":{"blobId":"same"}}}`))
	})

	var wg sync.WaitGroup
	results := make([]BlobRef, 4)
	errs := make([]error, 4)
	store := func(i int) {
		defer wg.Done()
		results[i], errs[i] = c.Store(context.Background(), []byte("payload"), StoreOptions{Epochs: 1})
	}

	wg.Add(1)
	go store(0)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go store(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "same", results[i].BlobID)
	}
	assert.Equal(t, int32(1), calls.Load(), "同一内容のアップロードは1回にまとめるべきです")
}

func TestClient_StoreSurvivesFirstCallerCancel(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"newlyCreated":{"blobObject":{"blobId":"shared"}}}`))
	})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Store(firstCtx, []byte("payload"), StoreOptions{})
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	secondRef := make(chan BlobRef, 1)
	secondErr := make(chan error, 1)
	go func() {
		ref, err := c.Store(context.Background(), []byte("payload"), StoreOptions{})
		secondRef <- ref
		secondErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	err := <-firstErr
	require.ErrorIs(t, err, ErrUpload)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-secondErr)
	assert.Equal(t, "shared", (<-secondRef).BlobID)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClient_BlocksPrivateNetworkByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("プライベートアドレスへ接続してはいけません")
	}))
	defer server.Close()

	c, err := NewClient(Config{PublisherURL: server.URL, AggregatorURL: server.URL})
	require.NoError(t, err)
	_, err = c.Read(context.Background(), "blob")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_Read(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/blobs/manifest":
			json.NewEncoder(w).Encode(map[string]string{"title": "Issue #1"})
		default:
			http.NotFound(w, r)
		}
	})

	var m map[string]string
	require.NoError(t, c.ReadJSON(context.Background(), "manifest", &m))
	assert.Equal(t, "Issue #1", m["title"])

	_, err := c.Read(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBlobIDToU256(t *testing.T) {
	t.Run("ビッグエンディアンで変換する", func(t *testing.T) {
		// 0x01 0x00 → 256
		v, err := BlobIDToU256("AQA")
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(256), v)
	})

	t.Run("32バイトの ID を往復できる", func(t *testing.T) {
		id := "M8wB2bHTlS6e7W7TvvYSEdaUzVXWSZWYTnZpkBuYm4s"
		v, err := BlobIDToU256(id)
		require.NoError(t, err)
		back, err := U256ToBlobID(v)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	})

	t.Run("パディング付きでも受け付ける", func(t *testing.T) {
		v, err := BlobIDToU256("AQA=")
		require.NoError(t, err)
		assert.Equal(t, int64(256), v.Int64())
	})

	t.Run("不正な文字はエラー", func(t *testing.T) {
		_, err := BlobIDToU256("not*base64")
		assert.Error(t, err)
	})
}
