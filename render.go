package matchboard

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// commandType identifies the kind of render command.
type commandType uint8

const (
	commandSprite commandType = iota // DrawImage
	commandLabel                     // text draw
)

// color32 is a compact RGBA color using float32, for render commands only.
type color32 struct {
	R, G, B, A float32
}

// renderCommand is a single draw instruction emitted during scene traversal.
// Commands are emitted in painter order (depth-first, ZIndex-sorted), so no
// global re-sort is needed for a single-layer card grid.
type renderCommand struct {
	kind      commandType
	transform [6]float64
	image     *ebiten.Image
	color     color32
	blend     BlendMode
	width     float64
	height    float64
	textValue string
}

// traverse walks the node tree depth-first, updating transforms and emitting
// render commands for visible, renderable leaf nodes.
func (s *Scene) traverse(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool) {
	if !n.Visible {
		return
	}

	recompute := n.transformDirty || parentRecomputed
	if recompute {
		local := computeLocalTransform(n)
		n.worldTransform = multiplyAffine(parentTransform, local)
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}

	if n.Renderable {
		switch n.Type {
		case NodeTypeSprite:
			if n.Width > 0 && n.Height > 0 {
				img := n.Image
				if img == nil {
					img = WhitePixel
				}
				s.commands = append(s.commands, renderCommand{
					kind:      commandSprite,
					transform: n.worldTransform,
					image:     img,
					color:     color32{float32(n.Color.R), float32(n.Color.G), float32(n.Color.B), float32(n.Color.A * n.worldAlpha)},
					blend:     n.BlendMode,
					width:     n.Width,
					height:    n.Height,
				})
			}
		case NodeTypeLabel:
			if n.Text != "" {
				s.commands = append(s.commands, renderCommand{
					kind:      commandLabel,
					transform: n.worldTransform,
					color:     color32{float32(n.Color.R), float32(n.Color.G), float32(n.Color.B), float32(n.Color.A * n.worldAlpha)},
					blend:     n.BlendMode,
					textValue: n.Text,
				})
			}
			// NodeTypeContainer doesn't emit commands
		}
	}

	if len(n.children) == 0 {
		return
	}
	children := n.children
	if !n.childrenSorted {
		rebuildSortedChildren(n)
	}
	if n.sortedChildren != nil {
		children = n.sortedChildren
	}
	for _, child := range children {
		s.traverse(child, n.worldTransform, n.worldAlpha, recompute)
	}
}

// rebuildSortedChildren rebuilds the ZIndex-sorted traversal order for a node.
// Uses insertion sort: zero allocations, stable, and optimal for the typical
// case of few children that are nearly sorted (O(n) when already sorted).
func rebuildSortedChildren(n *Node) {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	// Stable insertion sort by ZIndex.
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].ZIndex > key.ZIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// submit draws the emitted commands onto the target image in order.
func (s *Scene) submit(target *ebiten.Image) {
	for i := range s.commands {
		cmd := &s.commands[i]
		switch cmd.kind {
		case commandSprite:
			s.submitSprite(target, cmd)
		case commandLabel:
			s.submitLabel(target, cmd)
		}
	}
}

// submitSprite stretches the command's image to width x height under the
// node's world transform.
func (s *Scene) submitSprite(target *ebiten.Image, cmd *renderCommand) {
	bounds := cmd.image.Bounds()
	iw, ih := float64(bounds.Dx()), float64(bounds.Dy())
	if iw == 0 || ih == 0 {
		return
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(cmd.width/iw, cmd.height/ih)
	op.GeoM.Concat(geoM(cmd.transform))
	applyColor(&op.ColorScale, cmd.color)
	op.Blend = cmd.blend.EbitenBlend()
	target.DrawImage(cmd.image, &op)
}

// submitLabel draws a single line of text at the node's world transform.
func (s *Scene) submitLabel(target *ebiten.Image, cmd *renderCommand) {
	op := &text.DrawOptions{}
	op.GeoM = geoM(cmd.transform)
	op.ColorScale.Scale(
		cmd.color.R*cmd.color.A,
		cmd.color.G*cmd.color.A,
		cmd.color.B*cmd.color.A,
		cmd.color.A,
	)
	op.Blend = cmd.blend.EbitenBlend()
	text.Draw(target, cmd.textValue, s.face, op)
}

// geoM converts a [6]float64 affine matrix to an ebiten.GeoM.
func geoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// applyColor premultiplies and applies a color32 to a ColorScale.
func applyColor(cs *ebiten.ColorScale, c color32) {
	cs.Scale(c.R*c.A, c.G*c.A, c.B*c.A, c.A)
}
