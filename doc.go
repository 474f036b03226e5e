// Package matchboard is the adaptive layout and canvas engine behind a
// card-matching game, built on [Ebitengine].
//
// It classifies the viewing device, computes a centered grid placement for
// an arbitrary card count inside an arbitrary container, loads and caches
// card art with bounded concurrency and retry, renders card visuals onto a
// retained scene graph, and keeps that scene synchronized with an
// authoritative game store through a batched, conflict-aware change queue.
//
// # Quick start
//
// Implement [ebiten.Game] and [Host], then drive an [Engine]:
//
//	eng, err := matchboard.NewEngine(store, loadArt, matchboard.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := eng.Initialize(game); err != nil {
//		log.Fatal(err)
//	}
//
//	func (g *Game) Update() error             { g.eng.Update(1.0 / 60.0); return nil }
//	func (g *Game) Draw(screen *ebiten.Image) { g.eng.Draw(screen) }
//
// Call [Engine.Resize] from your game's Layout method when the window size
// changes, and [Engine.Preload] once to warm the art cache.
//
// # Scene graph
//
// Card visuals are subtrees of [Node] values rooted at [Scene.Root].
// Children inherit their parent's transform and alpha. Create nodes with
// [NewContainer], [NewSprite], and [NewLabel].
//
// Game rules (matching, scoring, timers) live outside this package; the
// engine only reads the store's card list and writes card selection.
//
// [Ebitengine]: https://ebitengine.org
package matchboard
