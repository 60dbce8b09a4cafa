package sui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shouni/go-http-kit/httpkit"
)

// ErrRPC は JSON-RPC がエラー応答を返したことを表します。
var ErrRPC = errors.New("sui: RPC エラー")

// rpcRequest は JSON-RPC 2.0 のリクエストです。
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError は JSON-RPC のエラーオブジェクトです。
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client は Sui フルノードの JSON-RPC クライアントです。
// 5xx やネットワーク障害は httpkit がリトライします。
type Client struct {
	url        string
	httpClient httpkit.Requester
	nextID     atomic.Uint64
}

// NewClient は Client を初期化します。
// ローカルネットのノードに接続するときは httpkit.WithSkipNetworkValidation(true) を渡します。
func NewClient(rpcURL string, timeout time.Duration, opts ...httpkit.ClientOption) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        rpcURL,
		httpClient: httpkit.New(timeout, opts...),
	}
}

// Call は RPC を1回呼び出し、result を out にデコードします。
func (c *Client) Call(ctx context.Context, method string, out any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	respBody, err := c.httpClient.PostJSONAndFetchBytes(ctx, c.url, rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		if httpkit.IsNonRetryableError(err) {
			return fmt.Errorf("%w: %s: %w", ErrRPC, method, err)
		}
		return fmt.Errorf("%s: %w", method, err)
	}

	var rr rpcResponse
	if err := json.Unmarshal(respBody, &rr); err != nil {
		return fmt.Errorf("%s: 応答の解析に失敗しました: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("%w: %s: %w", ErrRPC, method, rr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("%s: result の解析に失敗しました: %w", method, err)
	}
	return nil
}

// Uint64 は数値と文字列のどちらの JSON 表現も受け付ける u64 です。
type Uint64 uint64

func (u *Uint64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("u64 として解釈できません: %s", b)
	}
	*u = Uint64(v)
	return nil
}

// ObjectOwner はオブジェクトの所有者です。
type ObjectOwner struct {
	AddressOwner string
	ObjectOwner  string
	Shared       *struct {
		InitialSharedVersion Uint64 `json:"initial_shared_version"`
	}
	Immutable bool
}

func (o *ObjectOwner) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.Immutable = s == "Immutable"
		return nil
	}
	type alias ObjectOwner
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*o = ObjectOwner(a)
	return nil
}

// ObjectContent は showContent で返される Move オブジェクトの内容です。
type ObjectContent struct {
	DataType string                     `json:"dataType"`
	Type     string                     `json:"type"`
	Fields   map[string]json.RawMessage `json:"fields"`
}

// ObjectData は sui_getObject などが返すオブジェクトです。
type ObjectData struct {
	ObjectID string         `json:"objectId"`
	Version  Uint64         `json:"version"`
	Digest   string         `json:"digest"`
	Type     string         `json:"type"`
	Owner    *ObjectOwner   `json:"owner,omitempty"`
	Content  *ObjectContent `json:"content,omitempty"`
}

// Ref はオブジェクトの参照を返します。
func (d *ObjectData) Ref() (ObjectRef, error) {
	id, err := ParseAddress(d.ObjectID)
	if err != nil {
		return ObjectRef{}, err
	}
	digest, err := ParseDigest(d.Digest)
	if err != nil {
		return ObjectRef{}, err
	}
	return ObjectRef{ObjectID: id, Version: uint64(d.Version), Digest: digest}, nil
}

// ObjectResponse はオブジェクト取得の応答です。
type ObjectResponse struct {
	Data  *ObjectData     `json:"data,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

// ObjectOptions はオブジェクト取得時に含める情報です。
type ObjectOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
	ShowDisplay bool `json:"showDisplay,omitempty"`
}

// GetObject は sui_getObject を呼び出します。
func (c *Client) GetObject(ctx context.Context, id ObjectID, opts ObjectOptions) (*ObjectResponse, error) {
	var out ObjectResponse
	if err := c.Call(ctx, "sui_getObject", &out, id.String(), opts); err != nil {
		return nil, err
	}
	return &out, nil
}

// MultiGetObjects は sui_multiGetObjects を呼び出します。
func (c *Client) MultiGetObjects(ctx context.Context, ids []string, opts ObjectOptions) ([]ObjectResponse, error) {
	var out []ObjectResponse
	if err := c.Call(ctx, "sui_multiGetObjects", &out, ids, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// ObjectsPage は suix_getOwnedObjects の1ページです。
type ObjectsPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

// GetOwnedObjects は owner が所有する structType のオブジェクトを全ページ取得します。
func (c *Client) GetOwnedObjects(ctx context.Context, owner string, structType string, opts ObjectOptions) ([]ObjectResponse, error) {
	query := map[string]any{"options": opts}
	if structType != "" {
		query["filter"] = map[string]string{"StructType": structType}
	}

	var all []ObjectResponse
	var cursor *string
	for {
		var page ObjectsPage
		if err := c.Call(ctx, "suix_getOwnedObjects", &page, owner, query, cursor, nil); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// DynamicFieldName は動的フィールドのキーです。
type DynamicFieldName struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// DynamicFieldInfo は suix_getDynamicFields の要素です。
type DynamicFieldInfo struct {
	Name       DynamicFieldName `json:"name"`
	ObjectID   string           `json:"objectId"`
	ObjectType string           `json:"objectType"`
}

type dynamicFieldsPage struct {
	Data        []DynamicFieldInfo `json:"data"`
	NextCursor  *string            `json:"nextCursor"`
	HasNextPage bool               `json:"hasNextPage"`
}

// GetDynamicFields は parentID の動的フィールドを全ページ取得します。
func (c *Client) GetDynamicFields(ctx context.Context, parentID string) ([]DynamicFieldInfo, error) {
	var all []DynamicFieldInfo
	var cursor *string
	for {
		var page dynamicFieldsPage
		if err := c.Call(ctx, "suix_getDynamicFields", &page, parentID, cursor, nil); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// Coin は suix_getCoins の要素です。
type Coin struct {
	CoinObjectID string `json:"coinObjectId"`
	Version      Uint64 `json:"version"`
	Digest       string `json:"digest"`
	Balance      Uint64 `json:"balance"`
}

// Ref はコインの参照を返します。
func (c Coin) Ref() (ObjectRef, error) {
	d := ObjectData{ObjectID: c.CoinObjectID, Version: c.Version, Digest: c.Digest}
	return d.Ref()
}

type coinsPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// GetCoins は owner の SUI コインを全ページ取得します。
func (c *Client) GetCoins(ctx context.Context, owner Address) ([]Coin, error) {
	var all []Coin
	var cursor *string
	for {
		var page coinsPage
		if err := c.Call(ctx, "suix_getCoins", &page, owner.String(), "0x2::sui::SUI", cursor, nil); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// GetReferenceGasPrice は現在の参照ガス価格を返します。
func (c *Client) GetReferenceGasPrice(ctx context.Context) (uint64, error) {
	var out Uint64
	if err := c.Call(ctx, "suix_getReferenceGasPrice", &out); err != nil {
		return 0, err
	}
	return uint64(out), nil
}

// ObjectChange は実行結果に含まれるオブジェクトの変更です。
type ObjectChange struct {
	Type       string `json:"type"`
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
}

// ExecutionStatus は実行の成否です。
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// TransactionResponse は sui_executeTransactionBlock の応答です。
type TransactionResponse struct {
	Digest  string `json:"digest"`
	Effects *struct {
		Status ExecutionStatus `json:"status"`
	} `json:"effects,omitempty"`
	ObjectChanges []ObjectChange `json:"objectChanges,omitempty"`
}

// Succeeded は実行が成功したかどうかを返します。
func (r *TransactionResponse) Succeeded() bool {
	return r.Effects != nil && r.Effects.Status.Status == "success"
}

// Created は作成されたオブジェクトのうち、型名が typeName と一致するものの ID を返します。
func (r *TransactionResponse) Created(typeName string) []string {
	var ids []string
	for _, c := range r.ObjectChanges {
		if c.Type == "created" && (typeName == "" || SameType(c.ObjectType, typeName)) {
			ids = append(ids, c.ObjectID)
		}
	}
	return ids
}

// ExecuteTransactionBlock は署名済みトランザクションを送信し、ローカル実行の完了を待ちます。
func (c *Client) ExecuteTransactionBlock(ctx context.Context, txBytes []byte, signatures []string) (*TransactionResponse, error) {
	opts := map[string]bool{
		"showEffects":       true,
		"showEvents":        true,
		"showObjectChanges": true,
	}
	var out TransactionResponse
	start := time.Now()
	err := c.Call(ctx, "sui_executeTransactionBlock", &out,
		base64.StdEncoding.EncodeToString(txBytes), signatures, opts, "WaitForLocalExecution")
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Transaction executed", "digest", out.Digest, "status", statusOf(&out), "duration", time.Since(start).Round(time.Millisecond))
	return &out, nil
}

func statusOf(r *TransactionResponse) string {
	if r.Effects == nil {
		return "unknown"
	}
	return r.Effects.Status.Status
}
