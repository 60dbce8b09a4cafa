package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/sui"
	"github.com/shouni/go-comic-kit/pkg/walrus"
)

const (
	// multiGetLimit は sui_multiGetObjects に一度に渡せる ID の上限です。
	multiGetLimit = 50

	DefaultConcurrency     = 4
	DefaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 10 * time.Minute
)

// ObjectReader はコレクション取得に必要なオブジェクト読み出しの契約です。
// sui.Client がこれを満たします。
type ObjectReader interface {
	GetOwnedObjects(ctx context.Context, owner string, structType string, opts sui.ObjectOptions) ([]sui.ObjectResponse, error)
	GetDynamicFields(ctx context.Context, parentID string) ([]sui.DynamicFieldInfo, error)
	MultiGetObjects(ctx context.Context, ids []string, opts sui.ObjectOptions) ([]sui.ObjectResponse, error)
}

// Option は Query の設定を変更します。
type Option func(*Query)

// WithConcurrency は Kiosk ごとの並列読み出し数を設定します。
func WithConcurrency(n int) Option {
	return func(q *Query) {
		if n > 0 {
			q.concurrency = n
		}
	}
}

// WithCache はオブジェクトキャッシュを差し替えます。nil ならキャッシュしません。
func WithCache(c *cache.Cache) Option {
	return func(q *Query) { q.cache = c }
}

// Query は、オーナーが Kiosk に保管している ComicIssue を列挙します。
type Query struct {
	reader      ObjectReader
	issueType   string
	concurrency int
	cache       *cache.Cache
}

// NewQuery は Query を作成します。issueType は ComicIssue の完全な型名です。
func NewQuery(reader ObjectReader, issueType sui.TypeTag, opts ...Option) *Query {
	q := &Query{
		reader:      reader,
		issueType:   issueType.String(),
		concurrency: DefaultConcurrency,
		cache:       cache.New(DefaultCacheExpiration, cacheCleanupInterval),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// ListComics は owner の全 Kiosk から ComicIssue を集め、表示用に射影して返します。
// KioskOwnerCap を1つも持たない場合は空のスライスを返します。
func (q *Query) ListComics(ctx context.Context, owner string) ([]domain.ComicSummary, error) {
	caps, err := q.reader.GetOwnedObjects(ctx, owner, sui.KioskOwnerCapType.String(), sui.ObjectOptions{ShowType: true, ShowContent: true})
	if err != nil {
		return nil, fmt.Errorf("KioskOwnerCap の取得に失敗しました: %w", err)
	}

	kioskIDs := kioskIDsOf(caps)
	if len(kioskIDs) == 0 {
		return []domain.ComicSummary{}, nil
	}

	// Kiosk の順序を保つため、結果はインデックスごとに格納する
	perKiosk := make([][]domain.ComicSummary, len(kioskIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(q.concurrency)
	for i, kioskID := range kioskIDs {
		eg.Go(func() error {
			comics, err := q.kioskComics(egCtx, kioskID)
			if err != nil {
				return fmt.Errorf("Kiosk %s: %w", kioskID, err)
			}
			perKiosk[i] = comics
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := []domain.ComicSummary{}
	for _, comics := range perKiosk {
		out = append(out, comics...)
	}
	slog.InfoContext(ctx, "コレクションを取得しました", "owner", owner, "kiosks", len(kioskIDs), "comics", len(out))
	return out, nil
}

func (q *Query) kioskComics(ctx context.Context, kioskID string) ([]domain.ComicSummary, error) {
	fields, err := q.reader.GetDynamicFields(ctx, kioskID)
	if err != nil {
		return nil, err
	}

	var itemIDs []string
	for _, f := range fields {
		if !sui.SameType(f.Name.Type, sui.KioskItemType.String()) {
			continue
		}
		if id := itemIDOf(f.Name.Value); id != "" {
			itemIDs = append(itemIDs, id)
		}
	}
	if len(itemIDs) == 0 {
		return nil, nil
	}

	objects, err := q.objects(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	var out []domain.ComicSummary
	for _, obj := range objects {
		if obj.Content == nil || !sui.SameType(obj.Content.Type, q.issueType) {
			continue
		}
		out = append(out, Project(obj))
	}
	return out, nil
}

// objects は ids のオブジェクトをキャッシュ優先で取得します。戻り値は ids の順序を保ちます。
func (q *Query) objects(ctx context.Context, ids []string) ([]*sui.ObjectData, error) {
	found := make(map[string]*sui.ObjectData, len(ids))
	var missing []string
	for _, id := range ids {
		if q.cache != nil {
			if v, ok := q.cache.Get(id); ok {
				found[id] = v.(*sui.ObjectData)
				continue
			}
		}
		missing = append(missing, id)
	}

	opts := sui.ObjectOptions{ShowType: true, ShowContent: true}
	for start := 0; start < len(missing); start += multiGetLimit {
		chunk := missing[start:min(start+multiGetLimit, len(missing))]
		resps, err := q.reader.MultiGetObjects(ctx, chunk, opts)
		if err != nil {
			return nil, fmt.Errorf("オブジェクトの一括取得に失敗しました: %w", err)
		}
		for _, r := range resps {
			if r.Data == nil {
				continue
			}
			found[r.Data.ObjectID] = r.Data
			if q.cache != nil {
				q.cache.SetDefault(r.Data.ObjectID, r.Data)
			}
		}
	}

	out := make([]*sui.ObjectData, 0, len(ids))
	for _, id := range ids {
		if obj, ok := found[id]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

// InvalidateCache はキャッシュ済みのオブジェクトをすべて破棄します。
func (q *Query) InvalidateCache() {
	if q.cache != nil {
		q.cache.Flush()
	}
}

// Project は ComicIssue オブジェクトから表示用の項目を取り出します。
// 欠けている項目はゼロ値のままにします。
func Project(obj *sui.ObjectData) domain.ComicSummary {
	s := domain.ComicSummary{ID: obj.ObjectID}
	if obj.Content == nil {
		return s
	}
	f := obj.Content.Fields
	s.Title = stringValue(f["title"])
	s.CoverURL = urlValue(f["cover_url"])
	s.BlobID = blobIDValue(f["walrus_blob_id"])
	s.IssueNumber = uint64Value(f["issue_number"])
	return s
}

func kioskIDsOf(caps []sui.ObjectResponse) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, c := range caps {
		if c.Data == nil || c.Data.Content == nil {
			continue
		}
		id := stringValue(c.Data.Content.Fields["for"])
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// itemIDOf は kiosk::Item キーの値 {"id": "0x..."} から ID を取り出します。
func itemIDOf(raw json.RawMessage) string {
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v.ID
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// urlValue は Url 型の表現 ("https://..." または {"fields":{"url":...}}) を文字列にします。
func urlValue(raw json.RawMessage) string {
	if s := stringValue(raw); s != "" {
		return s
	}
	var wrapped struct {
		URL    string `json:"url"`
		Fields struct {
			URL string `json:"url"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return ""
	}
	if wrapped.Fields.URL != "" {
		return wrapped.Fields.URL
	}
	return wrapped.URL
}

// blobIDValue は u256 (10進文字列) で保存された Blob ID を base64url 形式に戻します。
// 変換できない値はそのまま返します。
func blobIDValue(raw json.RawMessage) string {
	s := strings.Trim(string(raw), `"`)
	if s == "" || s == "null" {
		return ""
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return s
	}
	id, err := walrus.U256ToBlobID(v)
	if err != nil {
		return s
	}
	return id
}

func uint64Value(raw json.RawMessage) uint64 {
	s := strings.Trim(string(raw), `"`)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

