package resource

import (
	"github.com/wippyai/contract-sdk/val"
)

// Handle is the 32-bit object reference carried in an object Val's major
// bits. Handle 0 never refers to an object.
type Handle uint32

// EventType distinguishes object lifecycle events.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	}
	return "unknown"
}

// Event reports one allocation or release.
type Event struct {
	Object val.Object
	Handle Handle
	Tag    val.Tag
	Type   EventType
}

// Observer is notified synchronously of every lifecycle event. It must not
// call back into the table that notifies it.
type Observer interface {
	OnResourceEvent(Event)
}
