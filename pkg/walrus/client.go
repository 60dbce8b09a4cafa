package walrus

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/httpkit"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrUpload はパブリッシャーへのアップロード失敗を表します。リトライは呼び出し側の責務です。
	ErrUpload = errors.New("walrus: アップロードに失敗しました")
	// ErrNotFound は指定された Blob がアグリゲーターに存在しないことを表します。
	ErrNotFound = errors.New("walrus: Blob が見つかりません")
)

const (
	defaultTimeout = 60 * time.Second
	// readRetries はアグリゲーターからの取得で一時的な障害をリトライする回数です。
	readRetries = 2
)

// BlobRef はアップロード結果です。
type BlobRef struct {
	BlobID string
	URL    string
	// AlreadyCertified は同一内容の Blob が既に認証済みだったことを表します。
	AlreadyCertified bool
}

// StoreOptions はアップロード時の保存条件です。
type StoreOptions struct {
	Epochs    int
	Deletable bool
	// Owner は作成された Blob オブジェクトの送り先アドレスです。
	// 空ならパブリッシャー自身が保持します。
	Owner string
}

// Config は Client の接続設定です。
type Config struct {
	PublisherURL  string
	AggregatorURL string
	Timeout       time.Duration
	// AllowPrivateNetwork はローカルのパブリッシャーなど、プライベートアドレスへの接続を許可します。
	AllowPrivateNetwork bool
}

// Client は Walrus のパブリッシャー/アグリゲーター HTTP API クライアントです。
type Client struct {
	publisher  string
	aggregator string
	timeout    time.Duration
	httpClient *httpkit.Client
	group      singleflight.Group
}

// NewClient は Client を初期化します。
func NewClient(cfg Config) (*Client, error) {
	if cfg.PublisherURL == "" || cfg.AggregatorURL == "" {
		return nil, fmt.Errorf("Walrus のパブリッシャー URL とアグリゲーター URL は必須です")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		publisher:  strings.TrimRight(cfg.PublisherURL, "/"),
		aggregator: strings.TrimRight(cfg.AggregatorURL, "/"),
		timeout:    timeout,
		httpClient: httpkit.New(timeout,
			httpkit.WithMaxRetries(readRetries),
			httpkit.WithSkipNetworkValidation(cfg.AllowPrivateNetwork),
		),
	}, nil
}

// BlobURL は Blob ID から取得用 URL を組み立てます。
func (c *Client) BlobURL(blobID string) string {
	return c.aggregator + "/v1/blobs/" + url.PathEscape(blobID)
}

// storeResponse はパブリッシャーの応答です。newlyCreated か alreadyCertified のどちらかが入ります。
type storeResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			ID     string `json:"id"`
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

// Store はバイト列をアップロードし、Blob ID と取得用 URL を返します。
// 同じ内容の同時アップロードは1回にまとめます。共有されたアップロードは最初の呼び出し元の
// キャンセルに影響されず、Client のタイムアウトで打ち切られます。
func (c *Client) Store(ctx context.Context, data []byte, opts StoreOptions) (BlobRef, error) {
	if len(data) == 0 {
		return BlobRef{}, fmt.Errorf("%w: データが空です", ErrUpload)
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:]) + "|" + strconv.Itoa(opts.Epochs) + "|" + strconv.FormatBool(opts.Deletable) + "|" + opts.Owner

	ch := c.group.DoChan(key, func() (any, error) {
		uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.store(uploadCtx, data, opts)
	})

	select {
	case <-ctx.Done():
		return BlobRef{}, fmt.Errorf("%w: %w", ErrUpload, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return BlobRef{}, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "同一内容のアップロードを共有しました", "sha256", key[:16])
		}
		return res.Val.(BlobRef), nil
	}
}

func (c *Client) store(ctx context.Context, data []byte, opts StoreOptions) (BlobRef, error) {
	q := url.Values{}
	if opts.Epochs > 0 {
		q.Set("epochs", strconv.Itoa(opts.Epochs))
	}
	if opts.Deletable {
		q.Set("deletable", "true")
	} else {
		q.Set("permanent", "true")
	}
	if opts.Owner != "" {
		q.Set("send_object_to", opts.Owner)
	}
	endpoint := c.publisher + "/v1/blobs?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return BlobRef{}, fmt.Errorf("%w: リクエストの作成に失敗しました: %w", ErrUpload, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	start := time.Now()
	// アップロードは支払いを伴うためリトライしない
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return BlobRef{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	body, err := httpkit.HandleResponse(resp)
	if err != nil {
		return BlobRef{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	var sr storeResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return BlobRef{}, fmt.Errorf("%w: 応答の解析に失敗しました: %w", ErrUpload, err)
	}

	ref := BlobRef{}
	switch {
	case sr.NewlyCreated != nil && sr.NewlyCreated.BlobObject.BlobID != "":
		ref.BlobID = sr.NewlyCreated.BlobObject.BlobID
	case sr.AlreadyCertified != nil && sr.AlreadyCertified.BlobID != "":
		ref.BlobID = sr.AlreadyCertified.BlobID
		ref.AlreadyCertified = true
	default:
		return BlobRef{}, fmt.Errorf("%w: 応答に blobId が含まれていません", ErrUpload)
	}
	ref.URL = c.BlobURL(ref.BlobID)

	slog.InfoContext(ctx, "Walrus upload completed",
		"blob_id", ref.BlobID,
		"bytes", len(data),
		"already_certified", ref.AlreadyCertified,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return ref, nil
}

// Read はアグリゲーターから Blob を取得します。
func (c *Client) Read(ctx context.Context, blobID string) ([]byte, error) {
	data, err := c.httpClient.FetchBytes(ctx, c.BlobURL(blobID))
	if err != nil {
		var httpErr *httpkit.NonRetryableHTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, blobID)
		}
		return nil, fmt.Errorf("Blob の取得に失敗しました (%s): %w", blobID, err)
	}
	return data, nil
}

// ReadJSON は Blob を取得して v にデコードします。
func (c *Client) ReadJSON(ctx context.Context, blobID string, v any) error {
	data, err := c.Read(ctx, blobID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("Blob の JSON 解析に失敗しました (%s): %w", blobID, err)
	}
	return nil
}
