package prompts

const (
	// HeroReferenceLabel は主人公の参照画像の直前に置くラベルです。
	HeroReferenceLabel = "REFERENCE 1 [HERO]:"
	// CoStarReferenceLabel は共演者の参照画像の直前に置くラベルです。
	CoStarReferenceLabel = "REFERENCE 2 [CO-STAR]:"

	// DefaultComicTitle は表紙のタイトルです。
	DefaultComicTitle = "INFINITE HEROES"
	// OriginComicTitle は原作モードの表紙タイトルです。
	OriginComicTitle = "SUI: THE ORIGIN"

	// PanelAspectRatio はページ画像の縦横比です。
	PanelAspectRatio = "2:3"
	// PersonaAspectRatio は参照ポートレートの縦横比です。
	PersonaAspectRatio = "1:1"

	// GlobalEnhance は独自スタイルのジャンルで全画像に付与する作画指示です。
	GlobalEnhance = `
  ART DIRECTION:
  - Ultra-sharp line art, realistic anatomy, polished shading.
  - Cinematic lighting consistent between panels.
  - No distortion of faces or bodies.

  CHARACTER BIBLE:
  - HERO: Maintain strict likeness with REFERENCE 1 (facial structure, hairstyle, vibe, skin tone).
  - CO-STAR: Maintain likeness with REFERENCE 2.
  - Do NOT age, deform, or alter facial structure unless explicitly stated.

  SCENE CONTINUITY:
  - Keep outfits, lighting, props, injuries, and environment consistent.
  - Maintain continuity with previous panels even if not shown.
  - Character physical placement must follow logical spatial movement.

  CAMERA DIRECTION:
  - Use cinematic angles: low-angle, over-the-shoulder, medium shot, dynamic framing.
  - Apply depth-of-field when appropriate.

  PANEL COMPOSITION:
  - Clean framing, avoid clutter.
  - Do NOT cover character faces with speech bubbles or captions.
  - Clear silhouette readability.

  GENERAL RULES:
  - Maintain strict character likeness with references at all times.
  - High visual logic: no teleporting, no inconsistent props, no changing outfits unless stated.
  `

	likenessInstructions = `
  INSTRUCTIONS:
  - Maintain strict likeness for any mention of HERO (use REFERENCE 1).
  - Maintain strict likeness for any mention of CO-STAR/SIDEKICK (use REFERENCE 2).`
)
