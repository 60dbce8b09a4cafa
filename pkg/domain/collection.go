package domain

// ComicSummary は、オンチェーンの ComicIssue から表示用の項目を取り出したものです。
type ComicSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CoverURL    string `json:"coverUrl"`
	BlobID      string `json:"blobId"`
	IssueNumber uint64 `json:"issueNumber"`
}

// ManifestPage はマニフェスト内の1ページです。
type ManifestPage struct {
	PageIndex int    `json:"pageIndex"`
	ImageURL  string `json:"imageUrl"`
	Narrative *Beat  `json:"narrative,omitempty"`
}

// ComicManifest は Walrus に保存するコミック全体の記述です。
type ComicManifest struct {
	Title     string         `json:"title"`
	Genre     Genre          `json:"genre"`
	HeroID    string         `json:"heroId,omitempty"`
	Pages     []ManifestPage `json:"pages"`
	Timestamp int64          `json:"timestamp"`
}
