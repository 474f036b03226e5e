package matchboard

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestComputeLocalTransformTranslation(t *testing.T) {
	n := NewContainer("n")
	n.SetPosition(10, 20)

	m := computeLocalTransform(n)
	x, y := transformPoint(m, 0, 0)
	if !almostEqual(x, 10) || !almostEqual(y, 20) {
		t.Errorf("origin maps to (%v, %v), want (10, 20)", x, y)
	}
}

func TestComputeLocalTransformScale(t *testing.T) {
	n := NewContainer("n")
	n.SetScale(2, 3)

	m := computeLocalTransform(n)
	x, y := transformPoint(m, 5, 5)
	if !almostEqual(x, 10) || !almostEqual(y, 15) {
		t.Errorf("(5,5) maps to (%v, %v), want (10, 15)", x, y)
	}
}

func TestComputeLocalTransformRotation(t *testing.T) {
	n := NewContainer("n")
	n.SetRotation(math.Pi / 2)

	m := computeLocalTransform(n)
	x, y := transformPoint(m, 1, 0)
	if !almostEqual(x, 0) || !almostEqual(y, 1) {
		t.Errorf("(1,0) rotated 90° maps to (%v, %v), want (0, 1)", x, y)
	}
}

func TestComputeLocalTransformPivot(t *testing.T) {
	// A node pivoting on its center scales around that center: the pivot
	// point itself stays fixed at the node's position.
	n := NewContainer("n")
	n.SetPosition(100, 100)
	n.SetPivot(50, 50)
	n.SetScale(2, 2)

	m := computeLocalTransform(n)
	x, y := transformPoint(m, 50, 50)
	if !almostEqual(x, 100) || !almostEqual(y, 100) {
		t.Errorf("pivot maps to (%v, %v), want (100, 100)", x, y)
	}
	// A corner moves away from the pivot at double distance.
	x, y = transformPoint(m, 0, 0)
	if !almostEqual(x, 0) || !almostEqual(y, 0) {
		t.Errorf("corner maps to (%v, %v), want (0, 0)", x, y)
	}
}

func TestMultiplyAffineIdentity(t *testing.T) {
	m := [6]float64{2, 0, 0, 3, 10, 20}
	if got := multiplyAffine(identityTransform, m); got != m {
		t.Errorf("I*m = %v, want %v", got, m)
	}
	if got := multiplyAffine(m, identityTransform); got != m {
		t.Errorf("m*I = %v, want %v", got, m)
	}
}

func TestInvertAffineRoundTrip(t *testing.T) {
	n := NewContainer("n")
	n.SetPosition(33, -7)
	n.SetScale(1.5, 0.5)
	n.SetRotation(0.3)
	m := computeLocalTransform(n)

	inv := invertAffine(m)
	x, y := transformPoint(m, 12, 34)
	bx, by := transformPoint(inv, x, y)
	if !almostEqual(bx, 12) || !almostEqual(by, 34) {
		t.Errorf("round trip (12,34) -> (%v, %v)", bx, by)
	}
}

func TestInvertAffineSingular(t *testing.T) {
	if got := invertAffine([6]float64{0, 0, 0, 0, 5, 5}); got != identityTransform {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}

func TestUpdateWorldTransformPropagates(t *testing.T) {
	root := NewContainer("root")
	root.SetPosition(100, 0)
	child := NewContainer("child")
	child.SetPosition(0, 50)
	root.AddChild(child)

	updateWorldTransform(root, identityTransform, 1.0, false)
	x, y := child.LocalToWorld(0, 0)
	if !almostEqual(x, 100) || !almostEqual(y, 50) {
		t.Errorf("child origin in world = (%v, %v), want (100, 50)", x, y)
	}
}

func TestUpdateWorldTransformAlphaCascade(t *testing.T) {
	root := NewContainer("root")
	root.SetAlpha(0.5)
	child := NewContainer("child")
	child.SetAlpha(0.5)
	root.AddChild(child)

	updateWorldTransform(root, identityTransform, 1.0, false)
	if !almostEqual(child.worldAlpha, 0.25) {
		t.Errorf("child world alpha = %v, want 0.25", child.worldAlpha)
	}
}

func TestUpdateWorldTransformDirtyOnly(t *testing.T) {
	root := NewContainer("root")
	child := NewContainer("child")
	root.AddChild(child)
	updateWorldTransform(root, identityTransform, 1.0, false)

	// Clean tree: a direct field write without MarkDirty is not picked up.
	child.X = 999
	updateWorldTransform(root, identityTransform, 1.0, false)
	if x, _ := child.LocalToWorld(0, 0); x == 999 {
		t.Error("clean child recomputed without dirty mark")
	}

	child.MarkDirty()
	updateWorldTransform(root, identityTransform, 1.0, false)
	if x, _ := child.LocalToWorld(0, 0); !almostEqual(x, 999) {
		t.Errorf("dirty child world x = %v, want 999", x)
	}
}

func TestUpdateWorldTransformParentForcesChildren(t *testing.T) {
	root := NewContainer("root")
	child := NewContainer("child")
	child.SetPosition(10, 0)
	root.AddChild(child)
	updateWorldTransform(root, identityTransform, 1.0, false)

	// Moving the parent recomputes the clean child too.
	root.SetPosition(5, 5)
	updateWorldTransform(root, identityTransform, 1.0, false)
	x, y := child.LocalToWorld(0, 0)
	if !almostEqual(x, 15) || !almostEqual(y, 5) {
		t.Errorf("child world = (%v, %v), want (15, 5)", x, y)
	}
}

func TestWorldToLocalInverse(t *testing.T) {
	n := NewContainer("n")
	n.SetPosition(40, 60)
	n.SetScale(2, 2)
	updateWorldTransform(n, identityTransform, 1.0, false)

	lx, ly := n.WorldToLocal(50, 80)
	if !almostEqual(lx, 5) || !almostEqual(ly, 10) {
		t.Errorf("WorldToLocal(50, 80) = (%v, %v), want (5, 10)", lx, ly)
	}
}
