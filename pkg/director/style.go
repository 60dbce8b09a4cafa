package director

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// DialogueType は吹き出しの種類です。
type DialogueType string

const (
	DialogueNormal  DialogueType = "normal"
	DialogueShout   DialogueType = "shout"
	DialogueThought DialogueType = "thought"
	DialogueSFX     DialogueType = "sfx"
)

const narrationSpeaker = "speaker-narration"

var metaTagRegex = regexp.MustCompile(`\[[^\]]+\]`)

// StyleManager は話者の識別や吹き出しの種類（叫び等）を管理します。
type StyleManager struct{}

func NewStyleManager() *StyleManager {
	return &StyleManager{}
}

// ResolveSpeakerID はフォーカスキャラクターから安定したハッシュ ID を生成します。
func (s *StyleManager) ResolveSpeakerID(focus domain.FocusCharacter) string {
	if focus == "" {
		return narrationSpeaker
	}
	h := sha256.New()
	h.Write([]byte(strings.ToLower(string(focus))))
	return "speaker-" + hex.EncodeToString(h.Sum(nil))[:10]
}

// DetermineDialogueType はセリフに含まれるメタタグから吹き出しの種類を判定します。
func (s *StyleManager) DetermineDialogueType(text string) DialogueType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "[shout]"):
		return DialogueShout
	case strings.Contains(lower, "[thought]"):
		return DialogueThought
	case strings.Contains(lower, "[sfx]"):
		return DialogueSFX
	default:
		return DialogueNormal
	}
}

// StripTags はメタタグを取り除いた表示用のセリフを返します。
func (s *StyleManager) StripTags(text string) string {
	return strings.TrimSpace(metaTagRegex.ReplaceAllString(text, ""))
}
