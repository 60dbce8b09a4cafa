package sui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"time"
)

// ErrSubmission は送信したトランザクションがオンチェーンで失敗したことを表します。
// トランザクションは全体として中止されるため、部分的な状態は残りません。
var ErrSubmission = errors.New("sui: トランザクションの実行に失敗しました")

// ErrInsufficientGas はガス支払いに使えるコインが足りないことを表します。
var ErrInsufficientGas = errors.New("sui: ガス支払いに使える残高が不足しています")

// MintMode はコミックのミント経路です。呼び出し側が明示的に選びます。
type MintMode string

const (
	// MintModeFree は手数料なしの開発用経路です。
	MintModeFree MintMode = "free"
	// MintModeWallet はプロトコル経由で固定額を支払う経路です。
	MintModeWallet MintMode = "wallet"
)

// ParseMintMode は文字列を MintMode に変換します。
func ParseMintMode(s string) (MintMode, error) {
	switch MintMode(s) {
	case MintModeFree, MintModeWallet:
		return MintMode(s), nil
	}
	return "", fmt.Errorf("未知のミントモードです: %q (free または wallet)", s)
}

// ChainReader は、トランザクション組み立てに必要なオンチェーン情報の取得と送信を行います。
type ChainReader interface {
	GetObject(ctx context.Context, id ObjectID, opts ObjectOptions) (*ObjectResponse, error)
	GetCoins(ctx context.Context, owner Address) ([]Coin, error)
	GetReferenceGasPrice(ctx context.Context) (uint64, error)
	ExecuteTransactionBlock(ctx context.Context, txBytes []byte, signatures []string) (*TransactionResponse, error)
}

// MinterConfig はミントに使うオンチェーンオブジェクトの設定です。
type MinterConfig struct {
	PackageID       Address
	HeroPolicyID    ObjectID
	ComicPolicyID   ObjectID
	ProtocolStateID ObjectID
	GasBudget       uint64
	MintPrice       uint64
	Timeout         time.Duration
}

// Minter はヒーローとコミックのミントトランザクションを組み立てて送信します。
type Minter struct {
	chain  ChainReader
	signer Signer
	pkg    ComicPackage
	cfg    MinterConfig
}

// NewMinter は Minter を初期化します。
func NewMinter(chain ChainReader, signer Signer, cfg MinterConfig) (*Minter, error) {
	if chain == nil || signer == nil {
		return nil, fmt.Errorf("ChainReader と Signer は必須です")
	}
	if cfg.PackageID.IsZero() {
		return nil, fmt.Errorf("パッケージ ID は必須です")
	}
	return &Minter{chain: chain, signer: signer, pkg: NewComicPackage(cfg.PackageID), cfg: cfg}, nil
}

// Sender は送信者のアドレスを返します。
func (m *Minter) Sender() Address { return m.signer.Address() }

// HeroMint はヒーローのミント内容です。
type HeroMint struct {
	Name        string
	BlobID      *big.Int
	MetadataURL string
}

// MintResult はミントの結果です。
type MintResult struct {
	Digest   string
	Created  []ObjectChange
	Response *TransactionResponse
}

// CreatedOfType は作成されたオブジェクトのうち指定型の ID を返します。
func (r *MintResult) CreatedOfType(t TypeTag) []string {
	return r.Response.Created(t.String())
}

// BuildMintHero はヒーローを作成して新しい Kiosk に入れ、Kiosk を共有する PTB を組み立てます。
func (m *Minter) BuildMintHero(h HeroMint) *TransactionBuilder {
	b := NewTransactionBuilder()

	url := URLNewUnsafe(b, h.MetadataURL)
	hero := m.pkg.HeroCreate(b, h.Name, h.BlobID, url)
	kiosk, kioskCap := KioskNew(b)
	m.pkg.HeroPlaceInKiosk(b, hero, kiosk, kioskCap, b.Object(m.cfg.HeroPolicyID, false))
	PublicShareObject(b, KioskType, kiosk)
	b.TransferObjects([]Argument{kioskCap}, b.PureAddress(m.Sender()))
	return b
}

// MintHero はヒーローをミントします。
func (m *Minter) MintHero(ctx context.Context, h HeroMint) (*MintResult, error) {
	if m.cfg.HeroPolicyID.IsZero() {
		return nil, fmt.Errorf("ヒーローの TransferPolicy が設定されていません")
	}
	return m.submit(ctx, "mint_hero", m.BuildMintHero(h), 0)
}

// ComicMint はコミックのミント内容です。
type ComicMint struct {
	Title    string
	Genre    string
	CoverURL string
	BlobID   *big.Int
	// HeroID はウォレット経路で必須です。手数料なし経路では hero_origin_id に入ります。
	HeroID *ObjectID
	Mode   string
}

// BuildMintComic はシリーズと号を作成して Kiosk にロックする PTB を組み立てます。
func (m *Minter) BuildMintComic(mode MintMode, c ComicMint) (*TransactionBuilder, error) {
	switch mode {
	case MintModeFree:
		return m.buildFreeComic(c), nil
	case MintModeWallet:
		if c.HeroID == nil {
			return nil, fmt.Errorf("ウォレット経路のミントにはヒーロー ID が必要です")
		}
		if m.cfg.ProtocolStateID.IsZero() {
			return nil, fmt.Errorf("ProtocolState が設定されていません")
		}
		return m.buildWalletComic(c), nil
	}
	return nil, fmt.Errorf("未知のミントモードです: %q", mode)
}

// buildFreeComic は、新しいシリーズの ID を同じトランザクション内で object::id から読み戻して号を作成します。
func (m *Minter) buildFreeComic(c ComicMint) *TransactionBuilder {
	b := NewTransactionBuilder()

	series := m.pkg.SeriesCreate(b, c.Title, c.Genre)
	issueNumber := m.pkg.SeriesIncrementIssueCount(b, series)
	coverURL := URLNewUnsafe(b, c.CoverURL)
	seriesID := ObjectIDOf(b, m.pkg.ComicSeriesType(), series)
	issue := m.pkg.IssueCreate(b, seriesID, issueNumber, coverURL, IssueParams{
		Title:        c.Title,
		BlobID:       c.BlobID,
		HeroOriginID: c.HeroID,
		Mode:         c.Mode,
	})
	issueID := ObjectIDOf(b, m.pkg.ComicIssueType(), issue)
	m.pkg.SeriesLinkIssue(b, series, issueNumber, issueID)

	kiosk, kioskCap := KioskNew(b)
	KioskLock(b, m.pkg.ComicIssueType(), kiosk, kioskCap, b.Object(m.cfg.ComicPolicyID, false), issue)
	PublicShareObject(b, KioskType, kiosk)
	b.TransferObjects([]Argument{kioskCap, series}, b.PureAddress(m.Sender()))
	return b
}

func (m *Minter) buildWalletComic(c ComicMint) *TransactionBuilder {
	b := NewTransactionBuilder()

	series := m.pkg.SeriesCreate(b, c.Title, c.Genre)
	coverURL := URLNewUnsafe(b, c.CoverURL)
	kiosk, kioskCap := KioskNew(b)
	payment := b.SplitCoins(GasCoin(), b.PureU64(m.cfg.MintPrice)).Nested(0)

	m.pkg.ProtocolMintIssue(b, MintIssueArgs{
		State:    b.Object(m.cfg.ProtocolStateID, true),
		Series:   series,
		Hero:     b.Object(*c.HeroID, false),
		CoverURL: coverURL,
		Kiosk:    kiosk,
		KioskCap: kioskCap,
		Policy:   b.Object(m.cfg.ComicPolicyID, false),
		Payment:  payment,
	}, c.Title, c.BlobID, c.Mode)

	PublicShareObject(b, KioskType, kiosk)
	b.TransferObjects([]Argument{kioskCap, series}, b.PureAddress(m.Sender()))
	return b
}

// MintComic はコミックをミントします。
func (m *Minter) MintComic(ctx context.Context, mode MintMode, c ComicMint) (*MintResult, error) {
	if m.cfg.ComicPolicyID.IsZero() {
		return nil, fmt.Errorf("コミックの TransferPolicy が設定されていません")
	}
	b, err := m.BuildMintComic(mode, c)
	if err != nil {
		return nil, err
	}
	var extra uint64
	if mode == MintModeWallet {
		extra = m.cfg.MintPrice
	}
	return m.submit(ctx, "mint_comic_"+string(mode), b, extra)
}

// submit はオブジェクト参照とガスを解決し、署名して送信します。失敗しても再試行しません。
func (m *Minter) submit(ctx context.Context, op string, b *TransactionBuilder, extraSpend uint64) (*MintResult, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}
	logger := slog.With("op", op, "sender", m.Sender().String())

	resolved, err := m.resolveObjects(ctx, b)
	if err != nil {
		return nil, err
	}
	gas, err := m.selectGas(ctx, extraSpend)
	if err != nil {
		return nil, err
	}

	tx, err := b.Build(m.Sender(), gas, resolved)
	if err != nil {
		return nil, fmt.Errorf("%s: トランザクションの組み立てに失敗しました: %w", op, err)
	}
	txBytes, err := tx.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: トランザクションのエンコードに失敗しました: %w", op, err)
	}
	sig, err := m.signer.SignTransaction(txBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: 署名に失敗しました: %w", op, err)
	}

	logger.InfoContext(ctx, "Submitting transaction", "digest", TransactionDigest(txBytes).String(), "commands", len(tx.Commands))
	resp, err := m.chain.ExecuteTransactionBlock(ctx, txBytes, []string{sig})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrSubmission, err)
	}
	if !resp.Succeeded() {
		reason := "unknown"
		if resp.Effects != nil && resp.Effects.Status.Error != "" {
			reason = resp.Effects.Status.Error
		}
		return nil, fmt.Errorf("%s: %w: %s", op, ErrSubmission, reason)
	}

	created := slices.DeleteFunc(slices.Clone(resp.ObjectChanges), func(c ObjectChange) bool { return c.Type != "created" })
	logger.InfoContext(ctx, "Mint completed", "digest", resp.Digest, "created", len(created))
	return &MintResult{Digest: resp.Digest, Created: created, Response: resp}, nil
}

// resolveObjects はオブジェクト入力を所有者に応じて ImmOrOwned / Shared に解決します。
func (m *Minter) resolveObjects(ctx context.Context, b *TransactionBuilder) (map[ObjectID]ObjectArg, error) {
	resolved := make(map[ObjectID]ObjectArg)
	for _, id := range b.ObjectIDs() {
		resp, err := m.chain.GetObject(ctx, id, ObjectOptions{ShowOwner: true})
		if err != nil {
			return nil, fmt.Errorf("オブジェクト %s の取得に失敗しました: %w", id, err)
		}
		if resp.Data == nil {
			return nil, fmt.Errorf("オブジェクト %s が見つかりません: %s", id, string(resp.Error))
		}

		owner := resp.Data.Owner
		if owner != nil && owner.Shared != nil {
			resolved[id] = SharedObject(id, uint64(owner.Shared.InitialSharedVersion), b.Mutable(id))
			continue
		}
		ref, err := resp.Data.Ref()
		if err != nil {
			return nil, fmt.Errorf("オブジェクト %s の参照が不正です: %w", id, err)
		}
		resolved[id] = OwnedObject(ref)
	}
	return resolved, nil
}

// selectGas は送信者の SUI コインから、ガス予算と支払額を賄えるだけのコインを選びます。
func (m *Minter) selectGas(ctx context.Context, extraSpend uint64) (GasData, error) {
	price, err := m.chain.GetReferenceGasPrice(ctx)
	if err != nil {
		return GasData{}, fmt.Errorf("ガス価格の取得に失敗しました: %w", err)
	}
	coins, err := m.chain.GetCoins(ctx, m.Sender())
	if err != nil {
		return GasData{}, fmt.Errorf("コインの取得に失敗しました: %w", err)
	}
	slices.SortFunc(coins, func(a, b Coin) int {
		switch {
		case a.Balance > b.Balance:
			return -1
		case a.Balance < b.Balance:
			return 1
		}
		return 0
	})

	need := m.cfg.GasBudget + extraSpend
	var total uint64
	var payment []ObjectRef
	for _, c := range coins {
		ref, err := c.Ref()
		if err != nil {
			return GasData{}, fmt.Errorf("コインの参照が不正です: %w", err)
		}
		payment = append(payment, ref)
		total += uint64(c.Balance)
		if total >= need {
			return GasData{Payment: payment, Owner: m.Sender(), Price: price, Budget: m.cfg.GasBudget}, nil
		}
	}
	return GasData{}, fmt.Errorf("%w: 必要額 %d MIST, 残高 %d MIST", ErrInsufficientGas, need, total)
}
