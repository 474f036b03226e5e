package ecs

import (
	"github.com/mosaicgames/matchboard"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for card interaction events.
// Subscribe to this in your ECS systems to receive pointer and click events.
var InteractionEventType = events.NewEventType[matchboard.InteractionEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Interaction events are published to InteractionEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) matchboard.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event matchboard.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}
