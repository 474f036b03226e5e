package matchboard

import (
	"github.com/fogleman/gg"
	"github.com/hajimehoshi/ebiten/v2"
)

// Rarity is one of a fixed ordered set of item-quality classes driving the
// card background treatment.
type Rarity uint8

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
	RarityMythic
	RarityDivine
)

// String returns the lowercase name of the rarity tier.
func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityUncommon:
		return "uncommon"
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "epic"
	case RarityLegendary:
		return "legendary"
	case RarityMythic:
		return "mythic"
	case RarityDivine:
		return "divine"
	default:
		return "common"
	}
}

// rarityColors is the fixed rarity -> base color table.
var rarityColors = map[Rarity]Color{
	RarityCommon:    {R: 0.62, G: 0.65, B: 0.67, A: 1},
	RarityUncommon:  {R: 0.30, G: 0.69, B: 0.31, A: 1},
	RarityRare:      {R: 0.13, G: 0.59, B: 0.95, A: 1},
	RarityEpic:      {R: 0.61, G: 0.15, B: 0.69, A: 1},
	RarityLegendary: {R: 1.00, G: 0.60, B: 0.00, A: 1},
	RarityMythic:    {R: 0.96, G: 0.26, B: 0.21, A: 1},
	RarityDivine:    {R: 1.00, G: 0.84, B: 0.00, A: 1},
}

// BaseColor returns the tier's base color. Unknown tiers map to common.
func (r Rarity) BaseColor() Color {
	if c, ok := rarityColors[r]; ok {
		return c
	}
	return rarityColors[RarityCommon]
}

// lighten moves each channel toward white by fraction f.
func lighten(c Color, f float64) Color {
	return Color{
		R: clamp01(c.R + (1-c.R)*f),
		G: clamp01(c.G + (1-c.G)*f),
		B: clamp01(c.B + (1-c.B)*f),
		A: c.A,
	}
}

// darken moves each channel toward black by fraction f.
func darken(c Color, f float64) Color {
	return Color{
		R: clamp01(c.R * (1 - f)),
		G: clamp01(c.G * (1 - f)),
		B: clamp01(c.B * (1 - f)),
		A: c.A,
	}
}

// Gradient textures are rasterized once at a fixed base size and stretched to
// slot size by the sprite node.
const (
	gradientBaseW = 96
	gradientBaseH = 128
)

type gradientKey struct {
	rarity  Rarity
	matched bool
}

// GradientCache memoizes rarity gradient textures keyed by (rarity, matched).
// It is explicitly owned and injectable: pass one to the visual builder
// rather than relying on an ambient singleton.
type GradientCache struct {
	entries map[gradientKey]*ebiten.Image
	ceiling int
}

// NewGradientCache creates a gradient cache. ceiling <= 0 means a ceiling of
// 32, which comfortably fits every (rarity, matched) pair.
func NewGradientCache(ceiling int) *GradientCache {
	if ceiling <= 0 {
		ceiling = 32
	}
	return &GradientCache{
		entries: make(map[gradientKey]*ebiten.Image),
		ceiling: ceiling,
	}
}

// Get returns the gradient texture for the tier, rasterizing it on first use.
func (g *GradientCache) Get(rarity Rarity, matched bool) *ebiten.Image {
	key := gradientKey{rarity: rarity, matched: matched}
	if img, ok := g.entries[key]; ok {
		return img
	}
	if len(g.entries) >= g.ceiling {
		g.Clear()
	}
	img := renderGradient(rarity, matched)
	g.entries[key] = img
	return img
}

// Len returns the number of cached gradient textures.
func (g *GradientCache) Len() int {
	return len(g.entries)
}

// Clear releases every cached texture.
func (g *GradientCache) Clear() {
	for k, img := range g.entries {
		img.Deallocate()
		delete(g.entries, k)
	}
}

// renderGradient rasterizes a vertical gradient from a lighter to a darker
// stop derived from the tier's base color. Matched cards get brighter stops
// and a highlight ring.
func renderGradient(rarity Rarity, matched bool) *ebiten.Image {
	base := rarity.BaseColor()
	top := lighten(base, 0.35)
	bottom := darken(base, 0.30)
	if matched {
		top = lighten(base, 0.55)
		bottom = darken(base, 0.10)
	}

	dc := gg.NewContext(gradientBaseW, gradientBaseH)
	grad := gg.NewLinearGradient(0, 0, 0, gradientBaseH)
	grad.AddColorStop(0, top.toRGBA())
	grad.AddColorStop(1, bottom.toRGBA())
	dc.SetFillStyle(grad)
	dc.DrawRoundedRectangle(0, 0, gradientBaseW, gradientBaseH, 10)
	dc.Fill()

	if matched {
		ring := lighten(base, 0.8)
		dc.SetRGBA(ring.R, ring.G, ring.B, 0.9)
		dc.SetLineWidth(4)
		dc.DrawRoundedRectangle(2, 2, gradientBaseW-4, gradientBaseH-4, 9)
		dc.Stroke()
	}

	return ebiten.NewImageFromImage(dc.Image())
}

// scaleKey identifies a fit-scale computation.
type scaleKey struct {
	texW, texH   int
	slotW, slotH int
	device       DeviceClass
}

// ScaleCache memoizes image fit-scale computations keyed by texture size,
// slot size, and device class. Recomputation is cheap, so overflow just
// clears the map.
type ScaleCache struct {
	entries map[scaleKey]float64
	ceiling int
}

// NewScaleCache creates a scale cache. ceiling <= 0 defaults to 512.
func NewScaleCache(ceiling int) *ScaleCache {
	if ceiling <= 0 {
		ceiling = 512
	}
	return &ScaleCache{
		entries: make(map[scaleKey]float64),
		ceiling: ceiling,
	}
}

// imageFraction is how much of the slot the card image may occupy per device
// class. Touch devices get slightly larger art to stay legible.
func imageFraction(device DeviceClass) (w, h float64) {
	switch device {
	case DeviceMobile:
		return 0.85, 0.60
	case DeviceTablet:
		return 0.80, 0.58
	default:
		return 0.75, 0.55
	}
}

// FitScale returns the uniform scale that fits a texW x texH image inside the
// device-aware bounds of a slotW x slotH slot, preserving aspect ratio.
func (s *ScaleCache) FitScale(texW, texH int, slotW, slotH float64, device DeviceClass) float64 {
	key := scaleKey{texW: texW, texH: texH, slotW: int(slotW), slotH: int(slotH), device: device}
	if v, ok := s.entries[key]; ok {
		return v
	}
	if len(s.entries) >= s.ceiling {
		s.Clear()
	}

	scale := fitScale(texW, texH, slotW, slotH, device)
	s.entries[key] = scale
	return scale
}

func fitScale(texW, texH int, slotW, slotH float64, device DeviceClass) float64 {
	if texW <= 0 || texH <= 0 {
		return 1
	}
	fw, fh := imageFraction(device)
	maxW := slotW * fw
	maxH := slotH * fh
	scale := maxW / float64(texW)
	if s := maxH / float64(texH); s < scale {
		scale = s
	}
	return scale
}

// Len returns the number of memoized scales.
func (s *ScaleCache) Len() int {
	return len(s.entries)
}

// Clear empties the cache.
func (s *ScaleCache) Clear() {
	s.entries = make(map[scaleKey]float64)
}
