package sui

import (
	"math/big"
)

// Move モジュール名と型名
const (
	moduleHeroAsset   = "hero_asset"
	moduleComicSeries = "comic_series"
	moduleComicIssue  = "comic_issue"
	moduleProtocol    = "protocol"

	// DefaultIssueMode は comic_issue の mode 引数の既定値です。
	DefaultIssueMode = "Standard"
)

var (
	// KioskType は 0x2::kiosk::Kiosk です。
	KioskType = NewStructType(FrameworkAddress, "kiosk", "Kiosk")
	// KioskOwnerCapType は 0x2::kiosk::KioskOwnerCap です。
	KioskOwnerCapType = NewStructType(FrameworkAddress, "kiosk", "KioskOwnerCap")
	// KioskItemType は Kiosk 内のアイテムを表す動的フィールドのキー型です。
	KioskItemType = NewStructType(FrameworkAddress, "kiosk", "Item")
)

// ComicPackage はデプロイ済みコミックパッケージのエントリポイントを型付きで呼び出します。
// 引数の順序と型はオンチェーンの関数シグネチャと一致させてあります。
type ComicPackage struct {
	ID Address
}

// NewComicPackage は ComicPackage を作成します。
func NewComicPackage(id Address) ComicPackage {
	return ComicPackage{ID: id}
}

// HeroAssetType は pkg::hero_asset::HeroAsset です。
func (p ComicPackage) HeroAssetType() TypeTag {
	return NewStructType(p.ID, moduleHeroAsset, "HeroAsset")
}

// ComicSeriesType は pkg::comic_series::ComicSeries です。
func (p ComicPackage) ComicSeriesType() TypeTag {
	return NewStructType(p.ID, moduleComicSeries, "ComicSeries")
}

// ComicIssueType は pkg::comic_issue::ComicIssue です。
func (p ComicPackage) ComicIssueType() TypeTag {
	return NewStructType(p.ID, moduleComicIssue, "ComicIssue")
}

// HeroCreate は hero_asset::create(name, source_blob_id: u256, metadata_url: Url) を呼び出します。
func (p ComicPackage) HeroCreate(b *TransactionBuilder, name string, blobID *big.Int, metadataURL Argument) Argument {
	return b.MoveCall(p.ID, moduleHeroAsset, "create", nil,
		b.PureString(name),
		b.PureU256(blobID),
		metadataURL,
	)
}

// HeroPlaceInKiosk は hero_asset::place_in_kiosk(hero, &mut Kiosk, &KioskOwnerCap, &TransferPolicy<HeroAsset>) を呼び出します。
func (p ComicPackage) HeroPlaceInKiosk(b *TransactionBuilder, hero, kiosk, kioskCap, policy Argument) {
	b.MoveCall(p.ID, moduleHeroAsset, "place_in_kiosk", nil, hero, kiosk, kioskCap, policy)
}

// SeriesCreate は comic_series::create(title, genre) を呼び出します。
func (p ComicPackage) SeriesCreate(b *TransactionBuilder, title, genre string) Argument {
	return b.MoveCall(p.ID, moduleComicSeries, "create", nil, b.PureString(title), b.PureString(genre))
}

// SeriesIncrementIssueCount は comic_series::increment_issue_count(&mut ComicSeries) を呼び出し、新しい号数 (u64) を返します。
func (p ComicPackage) SeriesIncrementIssueCount(b *TransactionBuilder, series Argument) Argument {
	return b.MoveCall(p.ID, moduleComicSeries, "increment_issue_count", nil, series)
}

// SeriesLinkIssue は comic_series::link_issue(&mut ComicSeries, issue_number, issue_id: ID) を呼び出します。
func (p ComicPackage) SeriesLinkIssue(b *TransactionBuilder, series, issueNumber, issueID Argument) {
	b.MoveCall(p.ID, moduleComicSeries, "link_issue", nil, series, issueNumber, issueID)
}

// IssueParams は comic_issue::create の値引数です。
type IssueParams struct {
	Title        string
	BlobID       *big.Int
	HeroOriginID *ObjectID
	Mode         string
}

// IssueCreate は comic_issue::create(series_id: ID, issue_number, title, cover_url: Url,
// walrus_blob_id: u256, hero_origin_id: Option<ID>, mode) を呼び出します。
func (p ComicPackage) IssueCreate(b *TransactionBuilder, seriesID, issueNumber, coverURL Argument, params IssueParams) Argument {
	return b.MoveCall(p.ID, moduleComicIssue, "create", nil,
		seriesID,
		issueNumber,
		b.PureString(params.Title),
		coverURL,
		b.PureU256(params.BlobID),
		b.PureOptionID(params.HeroOriginID),
		b.PureString(issueMode(params.Mode)),
	)
}

// MintIssueArgs は protocol::mint_issue のオブジェクト引数です。
type MintIssueArgs struct {
	State    Argument // &mut ProtocolState
	Series   Argument // &mut ComicSeries
	Hero     Argument // &HeroAsset
	CoverURL Argument
	Kiosk    Argument
	KioskCap Argument
	Policy   Argument // &TransferPolicy<ComicIssue>
	Payment  Argument // Coin<SUI>
}

// ProtocolMintIssue は protocol::mint_issue(state, series, hero, title, cover_url, walrus_blob_id, mode,
// kiosk, kiosk_cap, policy, payment) を呼び出します。
func (p ComicPackage) ProtocolMintIssue(b *TransactionBuilder, args MintIssueArgs, title string, blobID *big.Int, mode string) {
	b.MoveCall(p.ID, moduleProtocol, "mint_issue", nil,
		args.State,
		args.Series,
		args.Hero,
		b.PureString(title),
		args.CoverURL,
		b.PureU256(blobID),
		b.PureString(issueMode(mode)),
		args.Kiosk,
		args.KioskCap,
		args.Policy,
		args.Payment,
	)
}

func issueMode(mode string) string {
	if mode == "" {
		return DefaultIssueMode
	}
	return mode
}

// URLNewUnsafe は 0x2::url::new_unsafe_from_bytes を呼び出します。
func URLNewUnsafe(b *TransactionBuilder, url string) Argument {
	return b.MoveCall(FrameworkAddress, "url", "new_unsafe_from_bytes", nil, b.PureString(url))
}

// KioskNew は 0x2::kiosk::new を呼び出し、Kiosk と KioskOwnerCap を返します。
func KioskNew(b *TransactionBuilder) (kiosk, kioskCap Argument) {
	res := b.MoveCall(FrameworkAddress, "kiosk", "new", nil)
	return res.Nested(0), res.Nested(1)
}

// KioskLock は 0x2::kiosk::lock<T>(&mut Kiosk, &KioskOwnerCap, &TransferPolicy<T>, item) を呼び出します。
func KioskLock(b *TransactionBuilder, itemType TypeTag, kiosk, kioskCap, policy, item Argument) {
	b.MoveCall(FrameworkAddress, "kiosk", "lock", []TypeTag{itemType}, kiosk, kioskCap, policy, item)
}

// PublicShareObject は 0x2::transfer::public_share_object<T> を呼び出します。
func PublicShareObject(b *TransactionBuilder, objType TypeTag, obj Argument) {
	b.MoveCall(FrameworkAddress, "transfer", "public_share_object", []TypeTag{objType}, obj)
}

// ObjectIDOf は 0x2::object::id<T>(&T) を呼び出し、同じトランザクション内で作成したオブジェクトの ID を返します。
func ObjectIDOf(b *TransactionBuilder, objType TypeTag, obj Argument) Argument {
	return b.MoveCall(FrameworkAddress, "object", "id", []TypeTag{objType}, obj)
}
