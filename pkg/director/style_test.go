package director

import (
	"strings"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

func TestStyleManager(t *testing.T) {
	s := NewStyleManager()

	t.Run("話者 ID", func(t *testing.T) {
		if got := s.ResolveSpeakerID(""); got != narrationSpeaker {
			t.Errorf("ResolveSpeakerID(\"\") = %q", got)
		}
		hero := s.ResolveSpeakerID(domain.FocusHero)
		if !strings.HasPrefix(hero, "speaker-") || len(hero) != len("speaker-")+10 {
			t.Errorf("想定外の ID です: %q", hero)
		}
		if hero == s.ResolveSpeakerID(domain.FocusFriend) {
			t.Error("話者ごとに異なる ID のはずです")
		}
		if hero != s.ResolveSpeakerID("HERO") {
			t.Error("大文字小文字で ID が変わってはいけません")
		}
	})

	t.Run("吹き出しの種類", func(t *testing.T) {
		tests := map[string]DialogueType{
			"[SHOUT] Stop!":     DialogueShout,
			"[thought] Hmm...":  DialogueThought,
			"[sfx] BOOM":        DialogueSFX,
			"Just talking here": DialogueNormal,
		}
		for in, want := range tests {
			if got := s.DetermineDialogueType(in); got != want {
				t.Errorf("DetermineDialogueType(%q) = %s, want %s", in, got, want)
			}
		}
	})

	t.Run("タグの除去", func(t *testing.T) {
		if got := s.StripTags(" [shout] Stop! "); got != "Stop!" {
			t.Errorf("StripTags() = %q", got)
		}
	})
}
