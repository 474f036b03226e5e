package matchboard

import (
	"context"
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func newTestBuilder() *VisualBuilder {
	loader := NewLoader(func(_ context.Context, url string) (*ebiten.Image, error) {
		return ebiten.NewImage(64, 64), nil
	}, LoaderOptions{})
	return NewVisualBuilder(loader, NewGradientCache(0), NewScaleCache(0))
}

func testSlot() CardSlot {
	return CardSlot{CardID: "c1", Center: Vec2{X: 200, Y: 150}, Width: 100, Height: 140}
}

func TestBuildHiddenCard(t *testing.T) {
	b := newTestBuilder()
	card := Card{ID: "c1", State: CardHidden, Rarity: RarityRare}

	node := b.Build(card, testSlot(), false)
	if node.CardID != "c1" {
		t.Errorf("root CardID = %q, want c1", node.CardID)
	}
	if node.X != 200 || node.Y != 150 {
		t.Errorf("root at (%v, %v), want slot center (200, 150)", node.X, node.Y)
	}
	if node.PivotX != 50 || node.PivotY != 70 {
		t.Errorf("pivot = (%v, %v), want slot center (50, 70)", node.PivotX, node.PivotY)
	}

	if node.ChildByName("back-border") == nil {
		t.Error("missing back-border")
	}
	face := node.ChildByName("back-face")
	if face == nil {
		t.Fatal("missing back-face")
	}
	if face.Width != 96 || face.Height != 136 {
		t.Errorf("face size = %vx%v, want 96x136", face.Width, face.Height)
	}
	if node.ChildByName("brand-mark") == nil {
		t.Error("missing brand mark")
	}
	// Non-interactive build wires no handlers.
	if face.OnClick != nil || face.OnPointerDown != nil {
		t.Error("non-interactive card has input handlers")
	}
}

func TestBuildHiddenCardInteractive(t *testing.T) {
	b := newTestBuilder()
	var clicked string
	b.OnCardClick = func(id string) { clicked = id }

	node := b.Build(Card{ID: "c9", State: CardHidden}, testSlot(), true)
	face := node.ChildByName("back-face")
	if face == nil {
		t.Fatal("missing back-face")
	}
	if face.OnClick == nil {
		t.Fatal("interactive card missing click handler")
	}

	face.OnClick(ClickContext{CardID: "c9"})
	if clicked != "c9" {
		t.Errorf("OnCardClick got %q, want c9", clicked)
	}

	// Hover and press feed back through the root's alpha.
	face.OnPointerEnter(PointerContext{})
	if node.Alpha != hoverAlpha {
		t.Errorf("hover alpha = %v, want %v", node.Alpha, hoverAlpha)
	}
	face.OnPointerDown(PointerContext{})
	if node.Alpha != pressAlpha {
		t.Errorf("press alpha = %v, want %v", node.Alpha, pressAlpha)
	}
	face.OnPointerLeave(PointerContext{})
	if node.Alpha != 1 {
		t.Errorf("alpha after leave = %v, want 1", node.Alpha)
	}
}

func TestBuildRevealedCard(t *testing.T) {
	b := newTestBuilder()
	card := Card{ID: "c1", State: CardRevealed, Rarity: RarityEpic, ImageURL: "art://x", Label: "Epic Card"}

	// Art is cached, so the face carries a fitted art sprite.
	if b.loader.Get(context.Background(), "art://x") == nil {
		t.Fatal("test art did not load")
	}
	node := b.Build(card, testSlot(), true)

	bg := node.ChildByName("face-bg")
	if bg == nil {
		t.Fatal("missing gradient background")
	}
	if bg.Image == nil {
		t.Error("gradient background has no texture")
	}
	art := node.ChildByName("face-art")
	if art == nil {
		t.Fatal("missing art sprite")
	}
	// 64x64 art in a 100x140 desktop slot: width binds at 75/64.
	if art.Width > 100*0.75+1e-9 || art.Height > 140*0.55+1e-9 {
		t.Errorf("art %vx%v exceeds device bounds", art.Width, art.Height)
	}
	if node.ChildByName("face-label") == nil {
		t.Error("missing label")
	}
	// Revealed but unmatched: no glow.
	if node.ChildByName("match-glow") != nil {
		t.Error("unmatched card has a match glow")
	}
}

func TestBuildRevealedCardDegradesWithoutArt(t *testing.T) {
	loader := NewLoader(func(_ context.Context, url string) (*ebiten.Image, error) {
		return nil, errors.New("unavailable")
	}, LoaderOptions{})
	b := NewVisualBuilder(loader, NewGradientCache(0), NewScaleCache(0))

	node := b.Build(Card{ID: "c1", State: CardRevealed, ImageURL: "art://gone"}, testSlot(), false)
	if node.ChildByName("face-bg") == nil {
		t.Error("degraded card missing gradient background")
	}
	if node.ChildByName("face-art") != nil {
		t.Error("degraded card should have no art sprite")
	}
}

func TestBuildMatchedCard(t *testing.T) {
	b := newTestBuilder()
	node := b.Build(Card{ID: "c1", State: CardMatched, Rarity: RarityLegendary}, testSlot(), false)

	glow := node.ChildByName("match-glow")
	if glow == nil {
		t.Fatal("matched card missing glow")
	}
	if glow.BlendMode != BlendAdd {
		t.Errorf("glow blend = %v, want additive", glow.BlendMode)
	}
	if glow.ZIndex != 1 {
		t.Errorf("glow ZIndex = %d, want 1 (above art)", glow.ZIndex)
	}
}

func TestBuildMatchedGradientDiffers(t *testing.T) {
	b := newTestBuilder()
	revealed := b.Build(Card{ID: "a", State: CardRevealed, Rarity: RarityRare}, testSlot(), false)
	matched := b.Build(Card{ID: "b", State: CardMatched, Rarity: RarityRare}, testSlot(), false)

	ri := revealed.ChildByName("face-bg").Image
	mi := matched.ChildByName("face-bg").Image
	if ri == mi {
		t.Error("matched and revealed share a gradient texture")
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxWidth float64
		want     string
	}{
		{"fits", "short", 90, "short"},
		{"truncated", "a very long card label", 70, "a very lo…"},
		{"tiny", "label", 7, "…"},
		{"exact", "abcde", 35, "abcde"},
		{"multibyte", "ééééééé", 35, "éééé…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateLabel(tt.in, tt.maxWidth); got != tt.want {
				t.Errorf("truncateLabel(%q, %v) = %q, want %q", tt.in, tt.maxWidth, got, tt.want)
			}
		})
	}
}
