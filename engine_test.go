package matchboard

import (
	"context"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// engineStore implements GameStore over a mutable card list.
type engineStore struct {
	cards    []Card
	selected []string
	fields   map[string]any
}

func newEngineStore(cards []Card) *engineStore {
	return &engineStore{
		cards: cards,
		fields: map[string]any{
			FieldSelectedCards: []string{},
			FieldBoardLocked:   false,
			FieldGamePhase:     "playing",
		},
	}
}

func (s *engineStore) Cards() []Card { return s.cards }

func (s *engineStore) SelectedCardIDs() []string { return s.selected }

func (s *engineStore) SelectCard(id string) { s.selected = append(s.selected, id) }

func (s *engineStore) Field(name string) (any, bool) {
	v, ok := s.fields[name]
	return v, ok
}

func (s *engineStore) SetField(name string, value any) error {
	s.fields[name] = value
	return nil
}

func (s *engineStore) setState(id string, state CardState) {
	for i := range s.cards {
		if s.cards[i].ID == id {
			s.cards[i].State = state
		}
	}
}

// fixedHost reports a settable size.
type fixedHost struct {
	w, h float64
}

func (h *fixedHost) Size() (float64, float64) { return h.w, h.h }

func testCards(n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card{
			ID:     string(rune('a' + i)),
			PairID: string(rune('a' + i/2)),
			State:  CardHidden,
			Rarity: Rarity(i % 7),
		}
	}
	return cards
}

func newTestEngine(t *testing.T, n int) (*Engine, *engineStore, *fixedHost) {
	t.Helper()
	store := newEngineStore(testCards(n))
	engine, err := NewEngine(store, func(context.Context, string) (*ebiten.Image, error) {
		return ebiten.NewImage(32, 32), nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	host := &fixedHost{w: 1200, h: 800}
	if err := engine.Initialize(host); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return engine, store, host
}

func TestEngineInitializeBuildsBoard(t *testing.T) {
	engine, _, _ := newTestEngine(t, 12)

	layout := engine.Layout()
	if len(layout.Positions) != 12 {
		t.Fatalf("%d positions, want 12", len(layout.Positions))
	}
	if engine.DeviceInfo().Class != DeviceDesktop {
		t.Errorf("device = %v, want desktop", engine.DeviceInfo().Class)
	}
	for _, c := range testCards(12) {
		node := engine.CardNode(c.ID)
		if node == nil {
			t.Fatalf("no node for card %s", c.ID)
		}
		if node.CardID != c.ID {
			t.Errorf("node card id = %q, want %q", node.CardID, c.ID)
		}
	}
}

func TestEngineInitializeRejectsNilHost(t *testing.T) {
	store := newEngineStore(testCards(2))
	engine, err := NewEngine(store, func(context.Context, string) (*ebiten.Image, error) {
		return ebiten.NewImage(4, 4), nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Initialize(nil); err == nil {
		t.Error("expected error for nil host")
	}
}

func TestEngineRejectsNilStore(t *testing.T) {
	_, err := NewEngine(nil, func(context.Context, string) (*ebiten.Image, error) {
		return nil, nil
	}, DefaultOptions())
	if err == nil {
		t.Error("expected error for nil store")
	}
}

func TestEngineReconcileKeepsUnchangedNodes(t *testing.T) {
	engine, store, _ := newTestEngine(t, 8)

	before := engine.CardNode("a")
	engine.Update(1.0 / 60.0)
	if engine.CardNode("a") != before {
		t.Error("unchanged card was rebuilt")
	}

	// Flipping one card rebuilds only that card's subtree.
	otherBefore := engine.CardNode("b")
	store.setState("a", CardRevealed)
	engine.Update(1.0 / 60.0)
	if engine.CardNode("a") == before {
		t.Error("state-changed card kept its stale subtree")
	}
	if engine.CardNode("b") != otherBefore {
		t.Error("unrelated card was rebuilt")
	}
}

func TestEngineRevealAnimates(t *testing.T) {
	engine, store, _ := newTestEngine(t, 4)

	store.setState("a", CardRevealed)
	engine.Update(1.0 / 60.0)
	node := engine.CardNode("a")
	if node.ScaleX >= 1 {
		t.Errorf("freshly revealed card ScaleX = %v, want mid-flip (< 1)", node.ScaleX)
	}

	// The flip completes within its duration.
	for i := 0; i < 30; i++ {
		engine.Update(1.0 / 60.0)
	}
	if node.ScaleX != 1 {
		t.Errorf("ScaleX after flip = %v, want 1", node.ScaleX)
	}
}

func TestEngineResizeRecomputesLayout(t *testing.T) {
	engine, _, host := newTestEngine(t, 12)
	wideCols := engine.Layout().Cols

	host.w, host.h = 400, 900
	engine.Resize()

	if engine.DeviceInfo().Class != DeviceMobile {
		t.Errorf("device after shrink = %v, want mobile", engine.DeviceInfo().Class)
	}
	if engine.Layout().Cols >= wideCols {
		t.Errorf("cols %d -> %d, want narrower grid", wideCols, engine.Layout().Cols)
	}
	// Nodes moved to the new slots.
	node := engine.CardNode("a")
	slot := engine.Layout().Positions[0]
	if node.X != slot.Center.X || node.Y != slot.Center.Y {
		t.Errorf("node at (%v, %v), slot center (%v, %v)", node.X, node.Y, slot.Center.X, slot.Center.Y)
	}
}

func TestEngineResizeSameSizeIsNoOp(t *testing.T) {
	engine, _, _ := newTestEngine(t, 6)
	before := engine.CardNode("a")
	engine.Resize()
	if engine.CardNode("a") != before {
		t.Error("same-size resize rebuilt the board")
	}
}

func TestEnginePreloadMarksReadyAndRebuilds(t *testing.T) {
	store := newEngineStore(testCards(4))
	for i := range store.cards {
		store.cards[i].ImageURL = "art://" + store.cards[i].ID
	}
	engine, err := NewEngine(store, func(context.Context, string) (*ebiten.Image, error) {
		return ebiten.NewImage(16, 16), nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Initialize(&fixedHost{w: 1000, h: 700}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := engine.Preload(context.Background(), nil); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if engine.State().Phase() != PhaseReady {
		t.Errorf("phase = %v, want ready", engine.State().Phase())
	}
	if engine.Loader().Len() != 4 {
		t.Errorf("cached assets = %d, want 4", engine.Loader().Len())
	}
}

func TestEngineCardClickSelectsThroughSync(t *testing.T) {
	engine, store, _ := newTestEngine(t, 4)
	clock := newTestClock()
	engine.Sync().SetClock(clock.Now)

	var clicked string
	engine.OnCardClick = func(id string) { clicked = id }

	engine.handleCardClick("a")
	if clicked != "a" {
		t.Errorf("click callback got %q, want a", clicked)
	}
	if len(store.selected) != 1 || store.selected[0] != "a" {
		t.Errorf("store selection = %v, want [a]", store.selected)
	}
	// Clicking an already selected card is ignored.
	engine.handleCardClick("a")
	if len(store.selected) != 1 {
		t.Errorf("re-click duplicated selection: %v", store.selected)
	}

	// The selection lands in the canvas cache once the debounce and batching
	// windows elapse. The store already applied it via SelectCard; the flush
	// must not write the field a second time.
	clock.Advance(time.Second)
	engine.Sync().Update()
	cached, _ := engine.Sync().CacheValue(FieldSelectedCards)
	ids, _ := cached.([]string)
	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("cached selection = %v, want [a]", ids)
	}
	stored, _ := store.fields[FieldSelectedCards].([]string)
	if len(stored) != 0 {
		t.Errorf("flush wrote selection field %v, want the store untouched", stored)
	}
}

func TestEngineClickFlushKeepsResolvedStore(t *testing.T) {
	engine, store, _ := newTestEngine(t, 4)
	clock := newTestClock()
	engine.Sync().SetClock(clock.Now)

	engine.handleCardClick("a")
	engine.handleCardClick("b")
	// The store resolves the pair and clears its selection before the
	// debounce window elapses.
	store.selected = nil
	store.fields[FieldSelectedCards] = []string{}

	clock.Advance(time.Second)
	engine.Sync().Update()

	ids, _ := store.fields[FieldSelectedCards].([]string)
	if len(ids) != 0 {
		t.Errorf("flush overwrote the resolved selection with %v", ids)
	}
}

func TestEnginePreloadConcurrentWithUpdate(t *testing.T) {
	store := newEngineStore(testCards(8))
	for i := range store.cards {
		store.cards[i].ImageURL = "art://" + store.cards[i].ID
	}
	engine, err := NewEngine(store, func(context.Context, string) (*ebiten.Image, error) {
		return ebiten.NewImage(8, 8), nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Initialize(&fixedHost{w: 1000, h: 700}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- engine.Preload(context.Background(), nil) }()
	for i := 0; i < 200; i++ {
		engine.Update(1.0 / 60.0)
		engine.State().Ready()
	}
	if err := <-done; err != nil {
		t.Fatalf("Preload: %v", err)
	}
	engine.Update(1.0 / 60.0)
	if engine.State().Phase() != PhaseReady {
		t.Errorf("phase = %v, want ready", engine.State().Phase())
	}
}

func TestEngineRemovedCardsDropNodes(t *testing.T) {
	engine, store, _ := newTestEngine(t, 6)
	removed := engine.CardNode("f")
	store.cards = store.cards[:5]
	engine.Update(1.0 / 60.0)

	if engine.CardNode("f") != nil {
		t.Error("removed card still has a node")
	}
	if !removed.IsDisposed() {
		t.Error("removed card's node not disposed")
	}
	if len(engine.Layout().Positions) != 5 {
		t.Errorf("%d positions, want 5", len(engine.Layout().Positions))
	}
}

func TestEngineDestroy(t *testing.T) {
	engine, _, _ := newTestEngine(t, 6)
	node := engine.CardNode("a")
	engine.Destroy()

	if engine.CardNode("a") != nil {
		t.Error("card nodes survive Destroy")
	}
	if !node.IsDisposed() {
		t.Error("node not disposed by Destroy")
	}
	if engine.State().Ready() {
		t.Error("canvas ready after Destroy")
	}
	if engine.Loader().Len() != 0 {
		t.Errorf("loader cache = %d after Destroy, want 0", engine.Loader().Len())
	}
}
