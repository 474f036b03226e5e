package matchboard

import (
	"fmt"
	"math"
)

// Layout tuning defaults. Callers override via LayoutContext fields.
const (
	defaultMinSlotSize   = 44.0 // comfortable touch target
	defaultMaxSlotSize   = 160.0
	defaultGap           = 8.0
	defaultAspectRatio   = 0.72 // card width / height
	defaultPaddingFactor = 0.04 // fraction of each container edge kept clear

	// fitShrinkStep is how much the slot width shrinks per fit attempt.
	fitShrinkStep = 2.0
	// maxFitAttempts bounds the shrink loop per candidate.
	maxFitAttempts = 60

	// Aspect ratios beyond these bounds count as extreme and widen the
	// candidate search while shifting score weight toward efficiency.
	wideAspectLimit = 2.5
	tallAspectLimit = 0.6
)

// CardSlot is a positioned, sized rectangle reserved for one card.
// Produced fresh on every layout recomputation; never mutated in place.
type CardSlot struct {
	CardID string
	Center Vec2
	Width  float64
	Height float64
}

// Bounds returns the slot's rectangle.
func (s CardSlot) Bounds() Rect {
	return Rect{
		X:      s.Center.X - s.Width/2,
		Y:      s.Center.Y - s.Height/2,
		Width:  s.Width,
		Height: s.Height,
	}
}

// GridLayout is the result of a layout computation.
type GridLayout struct {
	Positions   []CardSlot
	SlotWidth   float64
	SlotHeight  float64
	Cols        int
	Rows        int
	TotalWidth  float64
	TotalHeight float64
	Efficiency  float64 // cardCount / (cols*rows), in (0,1] for cardCount > 0
	Device      DeviceClass
	Orientation Orientation
}

// LayoutContext is the immutable input to a layout computation.
// Zero-valued tuning fields take the package defaults.
type LayoutContext struct {
	ContainerWidth  float64
	ContainerHeight float64
	CardCount       int
	// CardIDs optionally assigns ids to slots by index. When set, its
	// length must equal CardCount.
	CardIDs []string

	Device      DeviceClass
	Orientation Orientation

	MinSlotSize   float64
	MaxSlotSize   float64
	Gap           float64
	AspectRatio   float64 // target card width / height
	PaddingFactor float64
}

func (ctx LayoutContext) withDefaults() LayoutContext {
	if ctx.MinSlotSize <= 0 {
		ctx.MinSlotSize = defaultMinSlotSize
	}
	if ctx.MaxSlotSize <= 0 {
		ctx.MaxSlotSize = defaultMaxSlotSize
	}
	if ctx.Gap < 0 {
		ctx.Gap = 0
	} else if ctx.Gap == 0 {
		ctx.Gap = defaultGap
	}
	if ctx.AspectRatio <= 0 {
		ctx.AspectRatio = defaultAspectRatio
	}
	if ctx.PaddingFactor <= 0 {
		ctx.PaddingFactor = defaultPaddingFactor
	}
	return ctx
}

// candidate is one column-count configuration under evaluation.
type candidate struct {
	cols       int
	rows       int
	slotWidth  float64
	slotHeight float64
	score      float64
}

// ComputeLayout searches a bounded space of column/row configurations for the
// given context, scores them, and returns the best grid with absolute slot
// positions. It never fails: when no candidate validates it falls back to a
// degenerate square-ish grid with the slot size clamped into bounds, accepting
// overflow on very small containers.
//
// Panics on negative CardCount or a CardIDs length mismatch (caller bugs).
func ComputeLayout(ctx LayoutContext) GridLayout {
	if ctx.CardCount < 0 {
		panic(fmt.Sprintf("matchboard: negative card count %d", ctx.CardCount))
	}
	if ctx.CardIDs != nil && len(ctx.CardIDs) != ctx.CardCount {
		panic(fmt.Sprintf("matchboard: %d card ids for %d cards", len(ctx.CardIDs), ctx.CardCount))
	}
	ctx = ctx.withDefaults()

	layout := GridLayout{
		Device:      ctx.Device,
		Orientation: ctx.Orientation,
	}
	if ctx.CardCount == 0 {
		layout.Positions = []CardSlot{}
		return layout
	}

	padW := ctx.ContainerWidth * (1 - 2*ctx.PaddingFactor)
	padH := ctx.ContainerHeight * (1 - 2*ctx.PaddingFactor)

	best, ok := searchCandidates(ctx, padW, padH)
	if !ok {
		best = fallbackCandidate(ctx, padW, padH)
	}

	layout.Cols = best.cols
	layout.Rows = best.rows
	layout.SlotWidth = math.Round(best.slotWidth)
	layout.SlotHeight = math.Round(best.slotHeight)
	layout.TotalWidth = float64(best.cols)*layout.SlotWidth + float64(best.cols-1)*ctx.Gap
	layout.TotalHeight = float64(best.rows)*layout.SlotHeight + float64(best.rows-1)*ctx.Gap
	layout.Efficiency = float64(ctx.CardCount) / float64(best.cols*best.rows)
	layout.Positions = generatePositions(ctx, layout)
	return layout
}

// searchCandidates evaluates the strategy-specific column range and returns
// the highest scoring valid candidate.
func searchCandidates(ctx LayoutContext, padW, padH float64) (candidate, bool) {
	aspect := containerAspect(ctx)
	var best candidate
	found := false
	for _, cols := range columnCandidates(ctx, aspect) {
		c, ok := fitCandidate(ctx, cols, padW, padH)
		if !ok {
			continue
		}
		c.score = scoreCandidate(ctx, c, aspect)
		if !found || c.score > best.score {
			best = c
			found = true
		}
	}
	return best, found
}

func containerAspect(ctx LayoutContext) float64 {
	if ctx.ContainerHeight <= 0 {
		return 1
	}
	return ctx.ContainerWidth / ctx.ContainerHeight
}

// columnCandidates returns the column counts to evaluate.
//
// Desktop searches around ceil(sqrt(cardCount)), widened on extreme container
// aspect ratios to admit far-from-square grids. Mobile and tablet restrict
// the column (portrait) or row (landscape) range by card-count tier to bias
// toward device-appropriate shapes.
func columnCandidates(ctx LayoutContext, aspect float64) []int {
	n := ctx.CardCount
	switch ctx.Device {
	case DeviceMobile, DeviceTablet:
		return tierCandidates(ctx)
	default:
		base := int(math.Ceil(math.Sqrt(float64(n))))
		lo, hi := base-2, base+2
		switch {
		case aspect > wideAspectLimit:
			hi = base + 6
		case aspect < tallAspectLimit:
			lo = base - 6
		}
		return clampRange(lo, hi, n)
	}
}

// tierCandidates restricts the search per card-count tier. Portrait tiers
// pin columns; landscape tiers pin rows and derive the column count.
func tierCandidates(ctx LayoutContext) []int {
	n := ctx.CardCount
	mobile := ctx.Device == DeviceMobile

	var tiers []int
	switch {
	case n <= 12:
		if mobile {
			tiers = []int{2, 3}
		} else {
			tiers = []int{3, 4}
		}
	case n <= 16:
		if mobile {
			tiers = []int{3, 4}
		} else {
			tiers = []int{4, 5}
		}
	default:
		if mobile {
			tiers = []int{3, 4, 5}
		} else {
			tiers = []int{4, 5, 6}
		}
	}

	if ctx.Orientation == Portrait {
		return clampList(tiers, n)
	}
	// Landscape: the tiers describe rows; convert to the column counts that
	// produce them.
	cols := make([]int, 0, len(tiers))
	for _, rows := range tiers {
		c := int(math.Ceil(float64(n) / float64(rows)))
		cols = append(cols, c)
	}
	return clampList(cols, n)
}

func clampRange(lo, hi, n int) []int {
	if lo < 1 {
		lo = 1
	}
	if hi > n {
		hi = n
	}
	out := make([]int, 0, hi-lo+1)
	for c := lo; c <= hi; c++ {
		out = append(out, c)
	}
	return out
}

func clampList(list []int, n int) []int {
	out := make([]int, 0, len(list))
	seen := make(map[int]bool, len(list))
	for _, c := range list {
		if c < 1 {
			c = 1
		}
		if c > n {
			c = n
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// fitCandidate derives rows and an initial slot size for the column count,
// then shrinks in fixed steps until the grid footprint fits the padded
// container. Returns ok=false when the candidate cannot fit within the
// slot-size bounds.
func fitCandidate(ctx LayoutContext, cols int, padW, padH float64) (candidate, bool) {
	n := ctx.CardCount
	rows := int(math.Ceil(float64(n) / float64(cols)))

	availW := (padW - ctx.Gap*float64(cols-1)) / float64(cols)
	availH := (padH - ctx.Gap*float64(rows-1)) / float64(rows)
	if availW <= 0 || availH <= 0 {
		return candidate{}, false
	}

	// Apply the target card aspect ratio; the binding dimension wins.
	slotW := availW
	if h := availH * ctx.AspectRatio; h < slotW {
		slotW = h
	}
	if slotW > ctx.MaxSlotSize {
		slotW = ctx.MaxSlotSize
	}

	for attempt := 0; attempt < maxFitAttempts; attempt++ {
		if slotW < ctx.MinSlotSize {
			return candidate{}, false
		}
		slotH := slotW / ctx.AspectRatio
		totalW := float64(cols)*slotW + float64(cols-1)*ctx.Gap
		totalH := float64(rows)*slotH + float64(rows-1)*ctx.Gap
		if totalW <= padW && totalH <= padH {
			return candidate{cols: cols, rows: rows, slotWidth: slotW, slotHeight: slotH}, true
		}
		slotW -= fitShrinkStep
	}
	return candidate{}, false
}

// scoreCandidate ranks a valid candidate by slot size, grid efficiency, and
// aspect balance. Extreme container aspect ratios shift weight toward
// efficiency, since balance is unattainable there anyway.
func scoreCandidate(ctx LayoutContext, c candidate, aspect float64) float64 {
	sizeW, effW, balW := 0.45, 0.35, 0.20
	if aspect > wideAspectLimit || aspect < tallAspectLimit {
		sizeW, effW, balW = 0.30, 0.50, 0.20
	}

	sizeScore := c.slotWidth / ctx.MaxSlotSize
	effScore := float64(ctx.CardCount) / float64(c.cols*c.rows)
	balance := math.Min(float64(c.cols)/float64(c.rows), float64(c.rows)/float64(c.cols))

	return sizeW*sizeScore + effW*effScore + balW*balance
}

// fallbackCandidate is the guaranteed-valid degenerate layout: a square-ish
// grid with the slot size clamped into bounds. Overflow of tiny containers is
// accepted rather than failing.
func fallbackCandidate(ctx LayoutContext, padW, padH float64) candidate {
	n := ctx.CardCount
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := int(math.Ceil(float64(n) / float64(cols)))

	slotW := (padW - ctx.Gap*float64(cols-1)) / float64(cols)
	if h := (padH - ctx.Gap*float64(rows-1)) / float64(rows) * ctx.AspectRatio; h < slotW {
		slotW = h
	}
	if slotW < ctx.MinSlotSize {
		slotW = ctx.MinSlotSize
	}
	if slotW > ctx.MaxSlotSize {
		slotW = ctx.MaxSlotSize
	}
	return candidate{cols: cols, rows: rows, slotWidth: slotW, slotHeight: slotW / ctx.AspectRatio}
}

// generatePositions centers the grid in the container and emits one slot per
// card. An incomplete last row is centered using only the cards present in
// it, so trailing cards are not left-aligned. Centers and dimensions are
// rounded to whole pixels to avoid sub-pixel seams.
func generatePositions(ctx LayoutContext, layout GridLayout) []CardSlot {
	n := ctx.CardCount
	slots := make([]CardSlot, 0, n)

	originX := (ctx.ContainerWidth - layout.TotalWidth) / 2
	originY := (ctx.ContainerHeight - layout.TotalHeight) / 2
	stepX := layout.SlotWidth + ctx.Gap
	stepY := layout.SlotHeight + ctx.Gap

	lastRow := layout.Rows - 1
	lastRowCount := n - lastRow*layout.Cols

	for i := 0; i < n; i++ {
		row := i / layout.Cols
		col := i % layout.Cols

		rowOriginX := originX
		if row == lastRow && lastRowCount < layout.Cols {
			rowWidth := float64(lastRowCount)*layout.SlotWidth + float64(lastRowCount-1)*ctx.Gap
			rowOriginX = (ctx.ContainerWidth - rowWidth) / 2
		}

		var id string
		if ctx.CardIDs != nil {
			id = ctx.CardIDs[i]
		}
		slots = append(slots, CardSlot{
			CardID: id,
			Center: Vec2{
				X: math.Round(rowOriginX + float64(col)*stepX + layout.SlotWidth/2),
				Y: math.Round(originY + float64(row)*stepY + layout.SlotHeight/2),
			},
			Width:  layout.SlotWidth,
			Height: layout.SlotHeight,
		})
	}
	return slots
}
