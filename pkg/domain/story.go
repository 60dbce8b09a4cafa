package domain

import (
	"fmt"
	"strings"
)

// Genre はストーリーのジャンルです。画風とガードレールの選択に使われます。
type Genre string

const (
	GenreManga       Genre = "Manga (Colorful)"
	GenreManhwa      Genre = "Manhwa (Korean Webtoon)"
	GenreManhua      Genre = "Manhua (Chinese Comics)"
	GenreMarvelDC    Genre = "Marvel/DC Superhero"
	GenreSuperhero   Genre = "Superhero Action"
	GenreDarkSciFi   Genre = "Dark Sci-Fi"
	GenreTeenDrama   Genre = "Teen Drama"
	GenreComedy      Genre = "Lighthearted Comedy"
	GenreCustom      Genre = "Custom"
	GenreOriginStory Genre = "Sui Origin Story"
)

// Genres は選択可能なジャンルの一覧です。
var Genres = []Genre{
	GenreManga,
	GenreManhwa,
	GenreManhua,
	GenreMarvelDC,
	GenreSuperhero,
	GenreDarkSciFi,
	GenreTeenDrama,
	GenreComedy,
	GenreCustom,
	GenreOriginStory,
}

// Tones は語り口の候補です。
var Tones = []string{
	"ACTION-HEAVY (Short, punchy dialogue. Focus on kinetics.)",
	"INNER-MONOLOGUE (Heavy captions revealing thoughts.)",
	"QUIPPY (Witty banter, humor, fast-paced.)",
	"OPERATIC (Grand, dramatic declarations, high stakes.)",
	"CASUAL (Natural dialogue, focus on relationships.)",
	"WHOLESOME (Warm, gentle, optimistic.)",
}

// ParseGenre はジャンル名を大文字小文字を区別せずに解決します。
func ParseGenre(name string) (Genre, error) {
	for _, g := range Genres {
		if strings.EqualFold(string(g), strings.TrimSpace(name)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("未知のジャンルです: %q", name)
}

// IsOriginStory は原作テキストを翻案するモードかどうかを返します。
func (g Genre) IsOriginStory() bool {
	return g == GenreOriginStory
}

// UsesGraphicNovelStyle は、ジャンル名を画風として使わないジャンルかどうかを返します。
func (g Genre) UsesGraphicNovelStyle() bool {
	return g == GenreCustom || g == GenreOriginStory
}

// StorySettings はストーリー生成の条件です。
type StorySettings struct {
	Genre         Genre
	Tone          string
	Language      string
	CustomPremise string
	RichMode      bool
}

// DefaultStorySettings は標準の生成条件を返します。
func DefaultStorySettings() StorySettings {
	return StorySettings{
		Genre:    GenreSuperhero,
		Tone:     Tones[0],
		Language: "English",
		RichMode: true,
	}
}

// LanguageName は未設定時に English を返します。
func (s StorySettings) LanguageName() string {
	if s.Language == "" {
		return "English"
	}
	return s.Language
}

// OriginMissingSegment は原作テキストに該当ページがないときの本文です。
const OriginMissingSegment = "The story continues into the future..."
