package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	recentPageWindow   = 3
	originContextPages = 2
	originContextChars = 150
)

// BeatInput は1ページ分のビートを要求するときの入力です。
type BeatInput struct {
	History        domain.ComicFaces // pageNumber より前のストーリーページ（昇順）
	PageNumber     int
	MaxPages       int
	IsDecisionPage bool
	IsFinalPage    bool
	Settings       domain.StorySettings

	HasCoStar   bool
	FocusCoStar bool // 共演者を主役にする指示を出すか

	// OriginSegments は原作モードのページごとの原文です（index = page-1）。
	OriginSegments []string
}

// Guardrails はジャンル逸脱を防ぐ否定制約です。
const Guardrails = `
      NEGATIVE CONSTRAINTS:
      1. UNLESS GENRE IS "Dark Sci-Fi" OR "Superhero Action" OR "Custom": DO NOT use technical jargon like "Quantum", "Timeline", "Portal", "Multiverse", or "Singularity".
      2. IF GENRE IS "Teen Drama" OR "Lighthearted Comedy": The "stakes" must be SOCIAL, EMOTIONAL, or PERSONAL (e.g., a rumor, a competition, a broken promise, being late, embarrassing oneself). Do NOT make it life-or-death. Keep it grounded.
      3. Avoid "The artifact" or "The device" unless established earlier.
    `

const continuityRules = `CRITICAL CONTINUITY RULES:
1. This story flows LEFT TO RIGHT, page by page in sequence.
2. Each page MUST directly continue from the previous page's scene.
3. Characters, locations, and situations MUST remain consistent.
4. If a character was in a specific location on the previous page, they should logically be there or have moved naturally.
5. Dialogue and actions must follow the established narrative thread.
6. NO sudden jumps or disconnected scenes - maintain smooth narrative flow.`

// OriginSegment は原作モードで pageNumber に対応する原文を返します。
func OriginSegment(segments []string, pageNumber int) string {
	i := pageNumber - 1
	if i < 0 || i >= len(segments) || strings.TrimSpace(segments[i]) == "" {
		return domain.OriginMissingSegment
	}
	return segments[i]
}

func storyTemplateData(in BeatInput) BeatTemplateData {
	lang := in.Settings.LanguageName()
	captionLimit, dialogueLimit := "max 15 words", "max 12 words"
	if in.Settings.RichMode {
		captionLimit = "max 35 words. Detailed narration or internal monologue"
		dialogueLimit = "max 30 words. Rich, character-driven speech"
	}

	return BeatTemplateData{
		PageNumber:     in.PageNumber,
		MaxPages:       in.MaxPages,
		Language:       lang,
		CoreDriver:     coreDriver(in.Settings),
		CoStar:         coStarInstruction(in.HasCoStar, in.FocusCoStar),
		History:        HistoryText(in.History),
		Instruction:    instruction(in),
		CaptionLimit:   captionLimit,
		DialogueLimit:  dialogueLimit,
		IsDecisionPage: in.IsDecisionPage && !in.IsFinalPage,
	}
}

func originTemplateData(in BeatInput) BeatTemplateData {
	idx := in.PageNumber - 1
	start := max(0, idx-originContextPages)

	var lines []string
	for i := start; i < idx && i < len(in.OriginSegments); i++ {
		seg := in.OriginSegments[i]
		if len(seg) > originContextChars {
			seg = seg[:originContextChars]
		}
		lines = append(lines, fmt.Sprintf("Page %d: %s...", i+1, seg))
	}

	return BeatTemplateData{
		PageNumber:      in.PageNumber,
		MaxPages:        in.MaxPages,
		Language:        in.Settings.LanguageName(),
		PreviousContext: strings.Join(lines, "\n"),
		SourceText:      OriginSegment(in.OriginSegments, in.PageNumber),
	}
}

func coreDriver(s domain.StorySettings) string {
	if s.Genre == domain.GenreCustom {
		premise := strings.TrimSpace(s.CustomPremise)
		if premise == "" {
			premise = "A totally unique, unpredictable adventure"
		}
		return fmt.Sprintf("STORY PREMISE: %s.", premise)
	}
	return fmt.Sprintf("GENRE: %s. TONE: %s.", s.Genre, s.Tone)
}

func coStarInstruction(hasCoStar, focus bool) string {
	if !hasCoStar {
		return "Not yet introduced."
	}
	if focus {
		return "ACTIVE and PRESENT (User Provided). MANDATORY: FOCUS ON THE CO-STAR FOR THIS PANEL."
	}
	return "ACTIVE and PRESENT (User Provided). Ensure they are woven into the scene even if not the main focus."
}

// StoryArc は確定済みページ数から物語の段階を返します。
func StoryArc(resolvedPages int) string {
	switch {
	case resolvedPages <= 4:
		return "EARLY STORY - Establishing the world and characters"
	case resolvedPages <= 8:
		return "MID STORY - Complications and rising tension"
	default:
		return "LATE STORY - Approaching climax"
	}
}

// HistoryText は過去ページの要約を組み立てます。
func HistoryText(history domain.ComicFaces) string {
	switch len(history) {
	case 0:
		return "This is the beginning of the story. Start the adventure."
	case 1:
		f := history[0]
		var sb strings.Builder
		sb.WriteString("STORY SO FAR:\n")
		sb.WriteString(pageLine(f))
		sb.WriteString("\nScene: " + beatOf(f).Scene + "\n")
		if f.ResolvedChoice != "" {
			sb.WriteString(fmt.Sprintf("User chose: %q\n", f.ResolvedChoice))
		}
		sb.WriteString("\nCONTINUITY: Continue directly from this scene. The story flows left to right, page by page.")
		return sb.String()
	}

	first, last := history[0], history[len(history)-1]
	recent := history[max(0, len(history)-recentPageWindow):]

	var sb strings.Builder
	sb.WriteString("STORY ARC: " + StoryArc(len(history)) + "\n")
	sb.WriteString(fmt.Sprintf("STORY FLOW (Pages %d to %d):\n\n", first.PageIndex, last.PageIndex))
	for i, f := range recent {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageLine(f))
		sb.WriteString("\n  → Scene: " + beatOf(f).Scene)
		if f.ResolvedChoice != "" {
			sb.WriteString(fmt.Sprintf("\n    → User decision: %q", f.ResolvedChoice))
		}
	}
	if len(history) > recentPageWindow {
		sb.WriteString(fmt.Sprintf("\n\n[Earlier pages: %d pages of story established]", len(history)-recentPageWindow))
	}
	sb.WriteString("\n\n" + continuityRules)
	return sb.String()
}

func beatOf(f domain.ComicFace) domain.Beat {
	if f.Beat == nil {
		return domain.Beat{}
	}
	return *f.Beat
}

func pageLine(f domain.ComicFace) string {
	b := beatOf(f)
	line := fmt.Sprintf("Page %d: %s", f.PageIndex, b.Caption)
	if b.Dialogue != "" {
		line += fmt.Sprintf(" [%s]", b.Dialogue)
	}
	return line
}

func instruction(in BeatInput) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Continue the story seamlessly. ALL OUTPUT TEXT (Captions, Dialogue, Choices) MUST BE IN %s. ",
		strings.ToUpper(in.Settings.LanguageName())))
	sb.WriteString(coreDriver(in.Settings) + " ")
	sb.WriteString(Guardrails)
	sb.WriteString(continuityNote(in.History))

	if in.Settings.RichMode {
		sb.WriteString(" RICH/NOVEL MODE ENABLED. Prioritize deeper character thoughts, descriptive captions, and meaningful dialogue exchanges over short punchlines.")
	}

	switch {
	case in.IsFinalPage:
		sb.WriteString(" FINAL PAGE. KARMIC CLIFFHANGER REQUIRED. You MUST explicitly reference the User's choice from PAGE 3 in the narrative and show how that specific philosophy led to this conclusion. Text must end with 'TO BE CONTINUED...' (or localized equivalent).")
	case in.IsDecisionPage:
		sb.WriteString(" End with a PSYCHOLOGICAL choice about VALUES, RELATIONSHIPS, or RISK. (e.g., Truth vs. Safety, Forgive vs. Avenge). The options must NOT be simple physical actions like 'Go Left'.")
	case in.PageNumber == 1:
		sb.WriteString(" INCITING INCIDENT. An event disrupts the status quo. Establish the genre's intended mood.")
	case in.PageNumber <= 4:
		sb.WriteString(" RISING ACTION. The heroes engage with the new situation. Build upon what happened in previous pages.")
	case in.PageNumber <= 8:
		sb.WriteString(" COMPLICATION. A twist occurs! A secret is revealed or the path is blocked. This must connect to events from earlier pages.")
	default:
		sb.WriteString(" CLIMAX. The confrontation with the main conflict. Reference and build upon the story arc established in previous pages.")
	}
	return sb.String()
}

func continuityNote(history domain.ComicFaces) string {
	if len(history) == 0 {
		return ""
	}
	last := beatOf(history[len(history)-1])

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\nCONTINUITY FROM PREVIOUS PAGE: The last scene was %q. ", last.Scene))
	if last.Dialogue != "" {
		sb.WriteString(fmt.Sprintf("The last dialogue was %q. ", last.Dialogue))
	}
	if last.Caption != "" {
		sb.WriteString(fmt.Sprintf("The narrative context was: %q. ", last.Caption))
	}
	sb.WriteString("This page MUST continue directly from that moment, flowing naturally left to right. ")
	if len(history) > 1 {
		sb.WriteString("Maintain consistency with the overall story arc established in previous pages.")
	}
	return sb.String()
}
