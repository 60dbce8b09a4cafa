package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

var (
	jsonBlockRegex    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")
	speakerLabelRegex = regexp.MustCompile(`(?i)^[\w\s-]+:\s*`)
	locationRegex     = regexp.MustCompile(`(?:in|at|on|inside|outside|near|beside|within)\s+([a-z\s]+?)(?:\s|$|,|\.)`)
	continuityWords   = []string{"continue", "moment", "after", "then", "next"}
)

// rawBeat はモデル出力をそのまま受けるための構造体です。
// 型が崩れていてもデコード自体は失敗させず、後段で安全な値に寄せます。
type rawBeat struct {
	Caption   json.RawMessage `json:"caption"`
	Dialogue  json.RawMessage `json:"dialogue"`
	Scene     json.RawMessage `json:"scene"`
	FocusChar json.RawMessage `json:"focus_char"`
	Choices   json.RawMessage `json:"choices"`
}

// beatRules はサニタイズ時に適用するページ条件です。
type beatRules struct {
	PageNumber     int
	IsDecisionPage bool
	IsFinalPage    bool
	OriginStory    bool
	PreviousBeat   *domain.Beat
}

// parseBeat はモデルの応答から JSON を取り出してビートに変換します。
func parseBeat(raw string, rules beatRules) (domain.Beat, error) {
	rawJSON := extractJSON(raw)

	var rb rawBeat
	if err := json.Unmarshal([]byte(rawJSON), &rb); err != nil {
		return domain.Beat{}, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	beat := domain.Beat{
		Caption:        stringField(rb.Caption),
		Dialogue:       stringField(rb.Dialogue),
		Scene:          stringField(rb.Scene),
		FocusCharacter: domain.ParseFocusCharacter(stringField(rb.FocusChar)),
		Choices:        stringsField(rb.Choices),
	}
	return sanitizeBeat(beat, rules), nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		return raw[first : last+1]
	}
	return raw
}

// sanitizeBeat は話者ラベルや選択肢の数などをページ条件に合わせて整えます。
func sanitizeBeat(b domain.Beat, rules beatRules) domain.Beat {
	if b.Dialogue != "" {
		d := speakerLabelRegex.ReplaceAllString(b.Dialogue, "")
		d = strings.NewReplacer(`"`, "", "'", "").Replace(d)
		b.Dialogue = strings.TrimSpace(d)
	}
	if b.Caption != "" {
		b.Caption = strings.TrimSpace(speakerLabelRegex.ReplaceAllString(b.Caption, ""))
	}
	if !b.FocusCharacter.Valid() {
		b.FocusCharacter = domain.FocusHero
	}

	switch {
	case rules.OriginStory || !rules.IsDecisionPage:
		b.Choices = []string{}
	case !rules.IsFinalPage && len(b.Choices) < 2:
		b.Choices = []string{"Option A", "Option B"}
	}
	if b.Choices == nil {
		b.Choices = []string{}
	}

	if !rules.OriginStory && rules.PageNumber > 1 && rules.PreviousBeat != nil && b.Scene != "" {
		b.Scene = withContinuityPrefix(rules.PreviousBeat.Scene, b.Scene)
	}
	return b
}

// withContinuityPrefix は、前ページとのつながりが読み取れないシーン記述に遷移句を付けます。
func withContinuityPrefix(previous, scene string) string {
	lower := strings.ToLower(scene)
	for _, w := range continuityWords {
		if strings.Contains(lower, w) {
			return scene
		}
	}

	prevLoc := locationRegex.FindStringSubmatch(strings.ToLower(previous))
	curLoc := locationRegex.FindStringSubmatch(lower)
	if prevLoc != nil && curLoc != nil && prevLoc[1] != curLoc[1] {
		return "Continuing from the previous scene, " + lower
	}
	return "Moments later, " + lower
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func stringsField(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := stringField(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringField(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
