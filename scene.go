package matchboard

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"
)

// EventSink is the interface for optional ECS integration.
// When set on a Scene, interaction events are forwarded to it.
type EventSink interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries interaction data for the ECS bridge.
type InteractionEvent struct {
	Type    EventType
	CardID  string
	GlobalX float64
	GlobalY float64
	LocalX  float64
	LocalY  float64
	Button  MouseButton
}

const defaultCommandCap = 256

// Scene is the top-level object that owns the node tree, input state, and
// render command buffer.
type Scene struct {
	root *Node
	sink EventSink

	// Render state
	commands []renderCommand
	face     text.Face

	// Input state
	handlers     handlerRegistry
	pointers     [maxPointers]pointerState
	hitBuf       []*Node
	touchMap     [maxPointers]ebiten.TouchID
	touchUsed    [maxPointers]bool
	prevTouchIDs []ebiten.TouchID

	// Debug
	debug bool
	log   *zap.SugaredLogger
}

// NewScene creates a new scene with a pre-created root container and the
// default label face.
func NewScene() *Scene {
	root := NewContainer("root")
	root.Interactable = true
	return &Scene{
		root:     root,
		commands: make([]renderCommand, 0, defaultCommandCap),
		face:     text.NewGoXFace(basicfont.Face7x13),
		log:      zap.NewNop().Sugar(),
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// SetFace sets the text face used for label nodes.
func (s *Scene) SetFace(face text.Face) {
	s.face = face
}

// Face returns the text face used for label nodes.
func (s *Scene) Face() text.Face {
	return s.face
}

// Update processes input and refreshes world transforms.
func (s *Scene) Update() {
	// Refresh world transforms first so hit testing has accurate positions
	// this frame.
	updateWorldTransform(s.root, identityTransform, 1.0, false)
	s.processInput()
}

// Draw traverses the scene tree, emits render commands in painter order, and
// submits them to the given screen image.
func (s *Scene) Draw(screen *ebiten.Image) {
	s.commands = s.commands[:0]

	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.traverse(s.root, identityTransform, 1.0, false)
	s.submit(screen)

	if s.debug {
		s.log.Debugw("scene draw",
			"commands", len(s.commands),
			"elapsed", time.Since(t0))
	}
}

// SetEventSink sets the optional ECS bridge.
func (s *Scene) SetEventSink(sink EventSink) {
	s.sink = sink
}

// SetLogger sets the logger used for debug output. A nil logger disables it.
func (s *Scene) SetLogger(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s.log = log
}

// SetDebugMode enables or disables per-frame stats logging.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}
