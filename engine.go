package matchboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// Host is the container the engine renders into. It exposes the current
// content-box size; the engine polls it on Resize.
type Host interface {
	Size() (width, height float64)
}

// Syncable field names the engine registers by default.
const (
	FieldSelectedCards = "selected_cards"
	FieldBoardLocked   = "board_locked"
	FieldGamePhase     = "game_phase"
)

// DefaultSyncFields returns the descriptor table for the standard syncable
// fields. Derived values (score, match count) are deliberately absent.
func DefaultSyncFields() []FieldDescriptor {
	return []FieldDescriptor{
		{
			Name:     FieldSelectedCards,
			Enabled:  true,
			Priority: 10,
			Validate: func(v any) error {
				ids, ok := v.([]string)
				if !ok {
					return fmt.Errorf("selected_cards: want []string, got %T", v)
				}
				if len(ids) > 2 {
					return fmt.Errorf("selected_cards: at most 2 selections, got %d", len(ids))
				}
				return nil
			},
		},
		{
			Name:     FieldBoardLocked,
			Enabled:  true,
			Priority: 8,
			Validate: func(v any) error {
				if _, ok := v.(bool); !ok {
					return fmt.Errorf("board_locked: want bool, got %T", v)
				}
				return nil
			},
		},
		{
			Name:     FieldGamePhase,
			Enabled:  true,
			Priority: 6,
			Validate: func(v any) error {
				if s, ok := v.(string); !ok || s == "" {
					return fmt.Errorf("game_phase: want non-empty string, got %v", v)
				}
				return nil
			},
		},
	}
}

// Options bundles the tunables of every engine component. The zero value is
// usable; DefaultOptions spells it out.
type Options struct {
	Loader LoaderOptions
	State  StateOptions
	Sync   SyncOptions
	// Fields is the syncable field table; nil means DefaultSyncFields.
	Fields []FieldDescriptor
	// Hints seed device classification before the host reports anything.
	Hints PlatformHints
	// Interactive enables pointer handlers on hidden cards.
	Interactive bool
	// FlipDuration is the reveal animation length in seconds (default 0.18).
	FlipDuration float32
}

// DefaultOptions returns the options an interactive game wants.
func DefaultOptions() Options {
	return Options{Interactive: true, FlipDuration: 0.18}
}

// Engine composes the device classifier, layout pipeline, asset loader,
// visual builder, canvas state, and synchronization engine behind one
// game-loop-shaped surface: Initialize, Resize, Update, Draw, Destroy.
type Engine struct {
	opts Options
	log  *zap.SugaredLogger

	scene     *Scene
	state     *CanvasState
	loader    *Loader
	syncer    *SyncEngine
	gradients *GradientCache
	scales    *ScaleCache
	builder   *VisualBuilder
	store     GameStore
	host      Host

	board     *Node
	layout    GridLayout
	cardNodes map[string]*Node
	cardSnap  map[string]Card
	cardSlots map[string]CardSlot
	tweens    []*TweenGroup

	// artDirty is set by Preload completing on another goroutine.
	dirtyMu  sync.Mutex
	artDirty bool

	// OnCardClick is invoked after the engine queues the selection change.
	OnCardClick func(cardID string)

	initialized bool
}

// NewEngine wires an engine over the store and asset source.
func NewEngine(store GameStore, load LoadFunc, opts Options) (*Engine, error) {
	fields := opts.Fields
	if fields == nil {
		fields = DefaultSyncFields()
	}
	syncer, err := NewSyncEngine(store, fields, opts.Sync)
	if err != nil {
		return nil, err
	}
	if opts.FlipDuration <= 0 {
		opts.FlipDuration = 0.18
	}

	e := &Engine{
		opts:      opts,
		log:       zap.NewNop().Sugar(),
		scene:     NewScene(),
		state:     NewCanvasState(opts.State),
		loader:    NewLoader(load, opts.Loader),
		syncer:    syncer,
		gradients: NewGradientCache(0),
		scales:    NewScaleCache(0),
		store:     store,
		cardNodes: make(map[string]*Node),
		cardSnap:  make(map[string]Card),
		cardSlots: make(map[string]CardSlot),
	}
	e.builder = NewVisualBuilder(e.loader, e.gradients, e.scales)
	e.builder.OnCardClick = e.handleCardClick
	e.board = NewContainer("board")
	e.scene.Root().AddChild(e.board)
	e.state.SetHints(opts.Hints)
	return e, nil
}

// SetLogger sets the logger shared across components. A nil logger disables it.
func (e *Engine) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e.log = log
	e.scene.SetLogger(log)
	e.loader.SetLogger(log)
	e.syncer.SetLogger(log)
	e.builder.SetLogger(log)
}

// Initialize attaches the engine to its host, classifies the device, computes
// the first layout, and builds the board.
func (e *Engine) Initialize(host Host) error {
	if host == nil {
		return fmt.Errorf("matchboard: nil host")
	}
	if e.initialized {
		return nil
	}
	e.host = host
	e.state.Attach(e.scene)
	w, h := host.Size()
	e.state.SetDimensions(w, h)
	e.builder.SetDevice(e.state.Device().Class)
	e.reconcile(true)
	e.initialized = true
	e.log.Infow("engine initialized",
		"width", w, "height", h,
		"device", e.state.Device().Class, "orientation", e.state.Device().Orientation,
		"cards", len(e.cardNodes))
	return nil
}

// Preload loads every card image. Safe to call from its own goroutine; the
// board rebuilds with the loaded art on the next Update. The canvas reports
// loading until the call settles.
func (e *Engine) Preload(ctx context.Context, onProgress ProgressFunc) error {
	e.state.SetPhase(PhaseLoading)
	urls := make([]string, 0, len(e.store.Cards()))
	for _, c := range e.store.Cards() {
		if c.ImageURL != "" {
			urls = append(urls, c.ImageURL)
		}
	}
	err := e.loader.Preload(ctx, urls, onProgress)
	e.state.SetPhase(PhaseReady)
	e.dirtyMu.Lock()
	e.artDirty = true
	e.dirtyMu.Unlock()
	return err
}

// Resize feeds new host geometry through classification, state, and layout.
func (e *Engine) Resize() {
	if e.host == nil {
		return
	}
	w, h := e.host.Size()
	pw, ph := e.state.Dimensions()
	e.state.SetDimensions(w, h)
	if nw, nh := e.state.Dimensions(); nw != pw || nh != ph {
		e.builder.SetDevice(e.state.Device().Class)
		e.reconcile(true)
	}
}

// Update drives one frame: state flag sweeping, sync flushing, input, store
// reconciliation, and animation. dt is the frame delta in seconds.
func (e *Engine) Update(dt float64) {
	e.state.Update()
	e.syncer.Update()
	e.scene.Update()

	e.dirtyMu.Lock()
	art := e.artDirty
	e.artDirty = false
	e.dirtyMu.Unlock()

	if art || e.storeChanged() {
		e.reconcile(art)
	}
	e.tickTweens(float32(dt))
}

// Draw renders the scene when the canvas is ready.
func (e *Engine) Draw(screen *ebiten.Image) {
	if !e.state.Ready() {
		return
	}
	e.scene.Draw(screen)
}

// Destroy tears the engine down: scene subtrees, caches, and canvas state.
// The engine can be re-initialized afterwards.
func (e *Engine) Destroy() {
	for id, n := range e.cardNodes {
		n.RemoveFromParent()
		n.Dispose()
		delete(e.cardNodes, id)
	}
	e.cardSnap = make(map[string]Card)
	e.cardSlots = make(map[string]CardSlot)
	e.tweens = nil
	e.loader.Clear()
	e.gradients.Clear()
	e.scales.Clear()
	e.state.Teardown()
	e.initialized = false
}

// Scene exposes the scene for hosts that hook scene-level input.
func (e *Engine) Scene() *Scene { return e.scene }

// State exposes the canvas state manager.
func (e *Engine) State() *CanvasState { return e.state }

// Loader exposes the asset loader.
func (e *Engine) Loader() *Loader { return e.loader }

// Sync exposes the synchronization engine.
func (e *Engine) Sync() *SyncEngine { return e.syncer }

// Layout returns the most recently computed grid layout.
func (e *Engine) Layout() GridLayout { return e.layout }

// DeviceInfo returns the current device classification.
func (e *Engine) DeviceInfo() DeviceInfo { return e.state.Device() }

// CardNode returns the live subtree for a card id, or nil.
func (e *Engine) CardNode(cardID string) *Node { return e.cardNodes[cardID] }

// handleCardClick forwards a tap on a hidden card to the store, then queues
// the store's resulting selection as a store-origin change so the canvas cache
// converges at the next flush. Store-origin changes never write back through
// SetField; a store that resolves the pair before the flush keeps its state.
func (e *Engine) handleCardClick(cardID string) {
	for _, id := range e.store.SelectedCardIDs() {
		if id == cardID {
			return
		}
	}
	e.store.SelectCard(cardID)
	selected := append([]string(nil), e.store.SelectedCardIDs()...)
	e.syncer.QueueChange(SourceStore, FieldSelectedCards, selected)
	if e.OnCardClick != nil {
		e.OnCardClick(cardID)
	}
}

// storeChanged reports whether the card list diverged from the last build.
func (e *Engine) storeChanged() bool {
	cards := e.store.Cards()
	if len(cards) != len(e.cardSnap) {
		return true
	}
	for _, c := range cards {
		if prev, ok := e.cardSnap[c.ID]; !ok || prev != c {
			return true
		}
	}
	return false
}

// reconcile recomputes the layout and reconciles card subtrees by card id:
// unchanged cards in unchanged slots keep their node untouched, moved cards
// keep their node and move, everything else is rebuilt. force rebuilds every
// subtree (used after preload lands new art).
func (e *Engine) reconcile(force bool) {
	cards := e.store.Cards()
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	w, h := e.state.Dimensions()
	dev := e.state.Device()
	e.layout = ComputeLayout(LayoutContext{
		ContainerWidth:  w,
		ContainerHeight: h,
		CardCount:       len(cards),
		Device:          dev.Class,
		Orientation:     dev.Orientation,
		CardIDs:         ids,
	})

	live := make(map[string]bool, len(cards))
	for i, card := range cards {
		slot := e.layout.Positions[i]
		live[card.ID] = true

		prev, known := e.cardSnap[card.ID]
		prevSlot := e.cardSlots[card.ID]
		node := e.cardNodes[card.ID]

		switch {
		case !force && node != nil && known && prev == card && prevSlot == slot:
			// Untouched.
		case !force && node != nil && known && prev == card &&
			prevSlot.Width == slot.Width && prevSlot.Height == slot.Height:
			node.SetPosition(slot.Center.X, slot.Center.Y)
		default:
			revealed := known && prev.State == CardHidden && card.State != CardHidden
			if node != nil {
				node.RemoveFromParent()
				node.Dispose()
			}
			node = e.builder.Build(card, slot, e.opts.Interactive)
			e.board.AddChild(node)
			e.cardNodes[card.ID] = node
			if revealed {
				node.ScaleX = 0
				e.tweens = append(e.tweens, TweenFlip(node, 1, e.opts.FlipDuration, ease.OutQuad))
			}
		}
		e.cardSnap[card.ID] = card
		e.cardSlots[card.ID] = slot
	}

	for id, node := range e.cardNodes {
		if live[id] {
			continue
		}
		node.RemoveFromParent()
		node.Dispose()
		delete(e.cardNodes, id)
		delete(e.cardSnap, id)
		delete(e.cardSlots, id)
	}
}

// tickTweens advances live animations and compacts finished ones.
func (e *Engine) tickTweens(dt float32) {
	if len(e.tweens) == 0 {
		return
	}
	out := e.tweens[:0]
	for _, tw := range e.tweens {
		tw.Update(dt)
		if !tw.Done {
			out = append(out, tw)
		}
	}
	e.tweens = out
}
