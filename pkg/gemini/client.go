package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	geminiclient "github.com/shouni/go-gemini-client/gemini"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	defaultRateBurst = 2
	// jsonSystemPrompt はテキスト生成で JSON のみを返させる指示です。
	jsonSystemPrompt = "Respond with a single JSON object only. Do not add prose or markdown fences."
)

// Part はリクエストに含めるテキストまたはインライン画像です。
type Part struct {
	Text     string
	Data     []byte
	MimeType string
}

// TextPart はテキストパートを作成します。
func TextPart(text string) Part { return Part{Text: text} }

// ImagePart はインライン画像パートを作成します。
func ImagePart(data []byte, mimeType string) Part {
	return Part{Data: data, MimeType: mimeType}
}

// ImageRequest は画像生成リクエストです。
type ImageRequest struct {
	Model       string
	Parts       []Part
	AspectRatio string
}

// ImageResponse は生成された画像です。
type ImageResponse struct {
	Data     []byte
	MimeType string
}

// DataURL は画像を data URL 形式で返します。
func (r *ImageResponse) DataURL() string {
	if r == nil || len(r.Data) == 0 {
		return ""
	}
	return "data:" + r.MimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// Client は生成サービスへのリクエスト・レスポンス型アダプタです。
type Client struct {
	gen        geminiclient.Generator
	limiter    *rate.Limiter
	timeout    time.Duration
	retryDelay time.Duration
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithRateInterval は呼び出し間隔の下限を設定します。
func WithRateInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), defaultRateBurst)
		}
	}
}

// WithTimeout は1回の呼び出しのタイムアウトを設定します。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetryDelay は通信層で一時的な障害をリトライするときの初回待ち時間を設定します。
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient は API キーから go-gemini-client のクライアントを作成し、アダプタを初期化します。
// 通信層のリトライは1回だけで、ページ単位のリトライは Orchestrator が担います。
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY が設定されていません", ErrCredentials)
	}
	c := New(nil, opts...)
	gen, err := geminiclient.NewClient(ctx, geminiclient.Config{
		APIKey:       apiKey,
		MaxRetries:   1,
		InitialDelay: c.retryDelay,
		MaxDelay:     4 * c.retryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	c.gen = gen
	return c, nil
}

// New は既存の Generator を使ってアダプタを初期化します。
func New(gen geminiclient.Generator, opts ...Option) *Client {
	c := &Client{
		gen:     gen,
		limiter: rate.NewLimiter(rate.Inf, defaultRateBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateText は JSON 形式の応答を要求してテキストを生成します。
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	resp, err := c.generate(ctx, model, parts, geminiclient.GenerateOptions{SystemPrompt: jsonSystemPrompt})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GenerateImage は参照画像とプロンプトから画像を1枚生成します。
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if len(p.Data) > 0 {
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MimeType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}

	resp, err := c.generate(ctx, req.Model, parts, geminiclient.GenerateOptions{AspectRatio: req.AspectRatio})
	if err != nil {
		return nil, err
	}
	img := firstInlineImage(resp.RawResponse)
	if img == nil && len(resp.Images) > 0 && len(resp.Images[0]) > 0 {
		img = &ImageResponse{Data: resp.Images[0], MimeType: http.DetectContentType(resp.Images[0])}
	}
	if img == nil {
		return nil, fmt.Errorf("model %s: %w", req.Model, ErrNoImage)
	}
	return img, nil
}

func (c *Client) generate(ctx context.Context, model string, parts []*genai.Part, opts geminiclient.GenerateOptions) (*geminiclient.Response, error) {
	if c.gen == nil {
		return nil, fmt.Errorf("%w: クライアントが初期化されていません", ErrCredentials)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.gen.GenerateWithParts(ctx, model, parts, opts)
	if err != nil {
		slog.WarnContext(ctx, "Gemini API の呼び出しに失敗しました", "model", model, "error", err)
		return nil, fmt.Errorf("GenerateContent (%s): %w", model, classify(err))
	}
	slog.DebugContext(ctx, "Gemini API 呼び出し完了", "model", model, "duration", time.Since(start).Round(time.Millisecond))
	return resp, nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) *ImageResponse {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &ImageResponse{Data: part.InlineData.Data, MimeType: mime}
			}
		}
	}
	return nil
}
