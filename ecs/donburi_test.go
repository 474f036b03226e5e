package ecs

import (
	"testing"

	"github.com/mosaicgames/matchboard"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []matchboard.InteractionEvent
	InteractionEventType.Subscribe(world, func(w donburi.World, e matchboard.InteractionEvent) {
		received = append(received, e)
	})

	sink.EmitEvent(matchboard.InteractionEvent{
		Type:    matchboard.EventPointerDown,
		CardID:  "card-7",
		GlobalX: 100,
		GlobalY: 200,
		Button:  matchboard.MouseButtonLeft,
	})
	sink.EmitEvent(matchboard.InteractionEvent{
		Type:   matchboard.EventClick,
		CardID: "card-7",
	})

	// Events are queued — process them.
	InteractionEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}

	e0 := received[0]
	if e0.Type != matchboard.EventPointerDown || e0.CardID != "card-7" {
		t.Errorf("event 0: %+v", e0)
	}
	if e0.GlobalX != 100 || e0.GlobalY != 200 {
		t.Errorf("event 0 position: (%v,%v)", e0.GlobalX, e0.GlobalY)
	}
	if received[1].Type != matchboard.EventClick {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	InteractionEventType.Subscribe(world, func(w donburi.World, e matchboard.InteractionEvent) {
		count1++
	})
	InteractionEventType.Subscribe(world, func(w donburi.World, e matchboard.InteractionEvent) {
		count2++
	})

	sink.EmitEvent(matchboard.InteractionEvent{Type: matchboard.EventClick})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
