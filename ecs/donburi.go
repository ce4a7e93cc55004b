// Package ecs provides ECS adapters for ti3d.
package ecs

import (
	"github.com/tiyun2012/ti3d"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEventType is the Donburi event type for ti3d scene change events.
// Subscribe to this in your ECS systems to react to entity creation,
// destruction, reparenting, and transform edits.
var SceneEventType = events.NewEventType[ti3d.Change]()

type donburiListener struct {
	world donburi.World
}

// NewDonburiListener creates a ChangeListener backed by a Donburi world.
// Scene changes are published to SceneEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiListener(world donburi.World) ti3d.ChangeListener {
	return &donburiListener{world: world}
}

func (l *donburiListener) SceneChanged(c ti3d.Change) {
	SceneEventType.Publish(l.world, c)
}
