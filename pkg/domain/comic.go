package domain

import (
	"slices"
	"sort"
)

// FaceType はページ枠の種類です。
type FaceType string

const (
	FaceCover     FaceType = "cover"
	FaceStory     FaceType = "story"
	FaceBackCover FaceType = "back_cover"
)

// PageStatus はページ生成の進行状態です。
// queued → beat_pending → image_pending → ready、または failed で終わります。
type PageStatus string

const (
	StatusQueued       PageStatus = "queued"
	StatusBeatPending  PageStatus = "beat_pending"
	StatusImagePending PageStatus = "image_pending"
	StatusReady        PageStatus = "ready"
	StatusFailed       PageStatus = "failed"
)

// Settled は生成処理が終わった状態かどうかを返します。
func (s PageStatus) Settled() bool {
	return s == StatusReady || s == StatusFailed
}

// ComicFace は生成パイプライン上の1ページ枠です。
type ComicFace struct {
	ID             string     `json:"id"`
	PageIndex      int        `json:"pageIndex"`
	Type           FaceType   `json:"type"`
	Beat           *Beat      `json:"narrative,omitempty"`
	ImageURL       string     `json:"imageUrl,omitempty"`
	IsLoading      bool       `json:"isLoading"`
	ResolvedChoice string     `json:"resolvedChoice,omitempty"`
	IsDecisionPage bool       `json:"isDecisionPage"`
	Status         PageStatus `json:"status"`
}

// NewQueuedFace は生成待ちのページ枠を作成します。
func NewQueuedFace(id string, pageIndex int, faceType FaceType) ComicFace {
	return ComicFace{
		ID:        id,
		PageIndex: pageIndex,
		Type:      faceType,
		IsLoading: true,
		Status:    StatusQueued,
	}
}

// Clone は Beat を含めたディープコピーを返します。
func (f ComicFace) Clone() ComicFace {
	c := f
	if f.Beat != nil {
		b := f.Beat.Clone()
		c.Beat = &b
	}
	return c
}

// Resolved は画像が揃い、読み込みが終わったページかどうかを返します。
func (f ComicFace) Resolved() bool {
	return !f.IsLoading && f.ImageURL != ""
}

// Choices はビートの選択肢を返します。
func (f ComicFace) Choices() []string {
	if f.Beat == nil {
		return nil
	}
	return f.Beat.Choices
}

// ComicFaces は ComicFace のスライスです。
type ComicFaces []ComicFace

// Clone は各要素をディープコピーしたスライスを返します。
func (fs ComicFaces) Clone() ComicFaces {
	if fs == nil {
		return nil
	}
	out := make(ComicFaces, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
	}
	return out
}

// SortedByPage は PageIndex の昇順に並べたコピーを返します。
func (fs ComicFaces) SortedByPage() ComicFaces {
	out := fs.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PageIndex < out[j].PageIndex
	})
	return out
}

// StoryHistory は、pageNumber より前のビート確定済みストーリーページを昇順で返します。
func (fs ComicFaces) StoryHistory(pageNumber int) ComicFaces {
	var out ComicFaces
	for _, f := range fs {
		if f.Type == FaceStory && f.Beat != nil && f.PageIndex < pageNumber {
			out = append(out, f.Clone())
		}
	}
	return out.SortedByPage()
}

// Resolved は画像が揃ったページだけを PageIndex の昇順で返します。
func (fs ComicFaces) Resolved() ComicFaces {
	var out ComicFaces
	for _, f := range fs {
		if f.Resolved() {
			out = append(out, f)
		}
	}
	return out.SortedByPage()
}

// MaxPageIndex は最大の PageIndex を返します。空なら -1 です。
func (fs ComicFaces) MaxPageIndex() int {
	maxIndex := -1
	for _, f := range fs {
		if f.PageIndex > maxIndex {
			maxIndex = f.PageIndex
		}
	}
	return maxIndex
}

// FindByPage は指定ページの ComicFace を返します。
func (fs ComicFaces) FindByPage(pageIndex int) (ComicFace, bool) {
	i := slices.IndexFunc(fs, func(f ComicFace) bool { return f.PageIndex == pageIndex })
	if i < 0 {
		return ComicFace{}, false
	}
	return fs[i], true
}

// StoryLayout はストーリーのページ構成です。
type StoryLayout struct {
	MaxStoryPages int   // 最終ストーリーページ番号
	BackCoverPage int   // 裏表紙のページ番号
	InitialPages  int   // 開始直後に生成するページ数
	Lookahead     int   // 開始直後に続けて先読みするページ数
	BatchSize     int   // 選択・続行時に生成するページ数
	DecisionPages []int // 選択肢を出すページ番号
}

// DefaultStoryLayout は標準のページ構成を返します。
func DefaultStoryLayout() StoryLayout {
	return StoryLayout{
		MaxStoryPages: 10,
		BackCoverPage: 11,
		InitialPages:  2,
		Lookahead:     2,
		BatchSize:     6,
		DecisionPages: []int{3},
	}
}

// IsDecisionPage は指定ページが選択肢ページかどうかを返します。最終ページは対象外です。
func (l StoryLayout) IsDecisionPage(pageNumber int) bool {
	if pageNumber == l.MaxStoryPages {
		return false
	}
	return slices.Contains(l.DecisionPages, pageNumber)
}

// IsFinalPage は最終ストーリーページかどうかを返します。
func (l StoryLayout) IsFinalPage(pageNumber int) bool {
	return pageNumber == l.MaxStoryPages
}

// FaceTypeFor はページ番号に対応する FaceType を返します。
func (l StoryLayout) FaceTypeFor(pageNumber int) FaceType {
	switch {
	case pageNumber == 0:
		return FaceCover
	case pageNumber >= l.BackCoverPage:
		return FaceBackCover
	default:
		return FaceStory
	}
}
