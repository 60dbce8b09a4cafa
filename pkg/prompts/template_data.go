package prompts

import (
	"embed"
)

const (
	ModeStory  = "story"
	ModeOrigin = "origin"
)

// templatePrefix はビートテンプレートのファイル名の接頭辞です。beat_story.md は "story" モードになります。
const templatePrefix = "beat_"

// BeatTemplateData はビート生成テンプレートに渡すデータ構造です。
type BeatTemplateData struct {
	PageNumber     int
	MaxPages       int
	Language       string
	CoreDriver     string
	CoStar         string
	History        string
	Instruction    string
	CaptionLimit   string
	DialogueLimit  string
	IsDecisionPage bool

	// origin モード用
	PreviousContext string
	SourceText      string
}

//go:embed templates/*.md
var templateFS embed.FS
