// Package ecs provides ECS adapters for ti3d's scene change notifications.
//
// The primary adapter is [NewDonburiListener], which bridges ti3d scene
// changes (create, destroy, reparent, transform) into a [Donburi] world as
// typed events. Subscribe to [SceneEventType] in your ECS systems to receive
// them.
//
// Usage:
//
//	engine.AddChangeListener(ecs.NewDonburiListener(world))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
