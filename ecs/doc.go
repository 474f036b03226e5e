// Package ecs provides ECS adapters for matchboard's interaction event system.
//
// The primary adapter is [NewDonburiSink], which bridges matchboard card
// interaction events (pointer, click) into a [Donburi] world as typed events.
// Subscribe to [InteractionEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	engine.Scene().SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
