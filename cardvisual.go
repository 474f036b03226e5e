package matchboard

import (
	"go.uber.org/zap"
)

// Back-face styling shared by every hidden card.
var (
	cardBackColor  = Color{R: 0.16, G: 0.21, B: 0.38, A: 1}
	cardBackBorder = Color{R: 0.30, G: 0.38, B: 0.60, A: 1}
	labelColor     = Color{R: 1, G: 1, B: 1, A: 0.92}
)

const (
	hoverAlpha = 0.85
	pressAlpha = 0.70

	// basicfont glyph advance; used for label truncation.
	glyphWidth = 7.0
)

// VisualBuilder maps a domain card plus a computed slot into a renderable
// subtree. All caches it draws from are injected; the builder owns none of
// the images it attaches.
type VisualBuilder struct {
	loader    *Loader
	gradients *GradientCache
	scales    *ScaleCache
	device    DeviceClass
	log       *zap.SugaredLogger

	// OnCardClick receives the card id when a hidden, interactive card is
	// clicked or tapped.
	OnCardClick func(cardID string)
}

// NewVisualBuilder creates a builder over the given loader and caches.
func NewVisualBuilder(loader *Loader, gradients *GradientCache, scales *ScaleCache) *VisualBuilder {
	return &VisualBuilder{
		loader:    loader,
		gradients: gradients,
		scales:    scales,
		device:    DeviceDesktop,
		log:       zap.NewNop().Sugar(),
	}
}

// SetDevice sets the device class used for image fit bounds.
func (b *VisualBuilder) SetDevice(device DeviceClass) {
	b.device = device
}

// SetLogger sets the logger for degraded builds. A nil logger disables it.
func (b *VisualBuilder) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	b.log = log
}

// Build produces the subtree for one card in one slot. It never fails: a
// missing or failed image degrades to the background-only representation.
// The returned container is positioned at the slot and pivots on its center
// so flip animations scale around the middle.
func (b *VisualBuilder) Build(card Card, slot CardSlot, interactive bool) *Node {
	w, h := slot.Width, slot.Height

	root := NewContainer("card:" + card.ID)
	root.CardID = card.ID
	root.SetPivot(w/2, h/2)
	root.SetPosition(slot.Center.X, slot.Center.Y)
	root.Interactable = true

	if card.State == CardHidden {
		b.buildBack(root, card, w, h, interactive)
	} else {
		b.buildFace(root, card, w, h)
	}
	return root
}

// buildBack assembles the uniform hidden representation: back face, border,
// brand mark, and the click/hover/press handlers.
func (b *VisualBuilder) buildBack(root *Node, card Card, w, h float64, interactive bool) {
	border := NewSprite("back-border", nil, w, h)
	border.Color = cardBackBorder
	root.AddChild(border)

	face := NewSprite("back-face", nil, w-4, h-4)
	face.SetPosition(2, 2)
	face.Color = cardBackColor
	face.CardID = card.ID
	root.AddChild(face)

	mark := NewLabel("brand-mark", "❖", w-4, h-4)
	mark.SetPosition(w/2-glyphWidth/2, h/2-8)
	mark.Color = cardBackBorder
	mark.Interactable = false
	root.AddChild(mark)

	if !interactive {
		return
	}
	face.Interactable = true
	face.OnPointerEnter = func(PointerContext) { root.SetAlpha(hoverAlpha) }
	face.OnPointerLeave = func(PointerContext) { root.SetAlpha(1) }
	face.OnPointerDown = func(PointerContext) { root.SetAlpha(pressAlpha) }
	face.OnPointerUp = func(PointerContext) { root.SetAlpha(hoverAlpha) }
	face.OnClick = func(ctx ClickContext) {
		if b.OnCardClick != nil {
			b.OnCardClick(ctx.CardID)
		}
	}
}

// buildFace assembles the revealed/matched representation: rarity gradient
// background, fitted art, truncated label, and the matched highlight.
func (b *VisualBuilder) buildFace(root *Node, card Card, w, h float64) {
	matched := card.State == CardMatched

	bg := NewSprite("face-bg", b.gradients.Get(card.Rarity, matched), w, h)
	bg.CardID = card.ID
	root.AddChild(bg)

	if img := b.loader.Cached(card.ImageURL); img != nil {
		bounds := img.Bounds()
		scale := b.scales.FitScale(bounds.Dx(), bounds.Dy(), w, h, b.device)
		iw := float64(bounds.Dx()) * scale
		ih := float64(bounds.Dy()) * scale

		art := NewSprite("face-art", img, iw, ih)
		art.SetPosition((w-iw)/2, h*0.12)
		art.Interactable = false
		root.AddChild(art)
	} else if card.ImageURL != "" {
		b.log.Debugw("card art unavailable, background-only card", "card", card.ID, "url", card.ImageURL)
	}

	if card.Label != "" {
		label := truncateLabel(card.Label, w*0.9)
		lbl := NewLabel("face-label", label, w, 14)
		lbl.SetPosition(w/2-float64(len(label))*glyphWidth/2, h-20)
		lbl.Color = labelColor
		lbl.Interactable = false
		root.AddChild(lbl)
	}

	if matched {
		glow := NewSprite("match-glow", nil, w, h)
		glow.Color = lighten(card.Rarity.BaseColor(), 0.5)
		glow.Alpha = 0.25
		glow.BlendMode = BlendAdd
		glow.Interactable = false
		glow.SetZIndex(1)
		root.AddChild(glow)
	}
}

// truncateLabel shortens s so it fits maxWidth pixels at the default face,
// appending an ellipsis when anything was cut.
func truncateLabel(s string, maxWidth float64) string {
	maxChars := int(maxWidth / glyphWidth)
	if maxChars < 1 {
		maxChars = 1
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars == 1 {
		return "…"
	}
	return string(runes[:maxChars-1]) + "…"
}
