package domain

import (
	"fmt"
	"strings"
)

// FocusCharacter は、そのページで主に描かれるキャラクターです。
type FocusCharacter string

const (
	FocusHero   FocusCharacter = "hero"
	FocusFriend FocusCharacter = "friend"
	FocusOther  FocusCharacter = "other"
)

// Valid は許可された値かどうかを返します。
func (f FocusCharacter) Valid() bool {
	switch f {
	case FocusHero, FocusFriend, FocusOther:
		return true
	}
	return false
}

// ParseFocusCharacter はモデル出力の文字列を FocusCharacter に正規化します。
// 不明な値は FocusHero になります。
func ParseFocusCharacter(s string) FocusCharacter {
	f := FocusCharacter(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return FocusHero
	}
	return f
}

// Beat は1ページ分の物語単位です。
type Beat struct {
	Caption        string         `json:"caption"`
	Dialogue       string         `json:"dialogue,omitempty"`
	Scene          string         `json:"scene"`
	FocusCharacter FocusCharacter `json:"focus_char"`
	Choices        []string       `json:"choices"`
}

// Clone は Choices を含めたコピーを返します。
func (b Beat) Clone() Beat {
	c := b
	if b.Choices != nil {
		c.Choices = append([]string(nil), b.Choices...)
	}
	return c
}

// HasChoices は選択肢を持つかどうかを返します。
func (b Beat) HasChoices() bool {
	return len(b.Choices) > 0
}

// PlaceholderBeat は、生成に失敗したページの代替ビートを返します。
func PlaceholderBeat(pageNumber int) Beat {
	caption := "..."
	if pageNumber == 1 {
		caption = "It began..."
	}
	return Beat{
		Caption:        caption,
		Scene:          fmt.Sprintf("Generic scene for page %d.", pageNumber),
		FocusCharacter: FocusHero,
		Choices:        []string{},
	}
}

// BackCoverBeat は裏表紙用の固定ビートです。
func BackCoverBeat() Beat {
	return Beat{
		Scene:          "Thematic teaser image",
		FocusCharacter: FocusOther,
		Choices:        []string{},
	}
}

// CoverBeat は表紙用の空ビートです。表紙の構図は画像プロンプト側で決まります。
func CoverBeat() Beat {
	return Beat{
		FocusCharacter: FocusOther,
		Choices:        []string{},
	}
}
