package testenv

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/resource"
	"github.com/wippyai/contract-sdk/val"
)

// objectLog counts host object allocations and logs each at debug level.
type objectLog struct {
	created atomic.Uint64
	dropped atomic.Uint64
}

func (l *objectLog) OnResourceEvent(ev resource.Event) {
	if ev.Type == resource.EventCreated {
		l.created.Add(1)
	} else {
		l.dropped.Add(1)
	}
	Logger().Debug("object "+ev.Type.String(),
		zap.Uint32("handle", uint32(ev.Handle)),
		zap.Stringer("tag", ev.Tag))
}

// ObjectStats counts host objects over the life of an Env.
type ObjectStats struct {
	Live    int
	Created uint64
	Dropped uint64
}

// ObjectStats reports how many host objects exist and how many were
// allocated and freed so far.
func (e *Env) ObjectStats() ObjectStats {
	return ObjectStats{
		Live:    e.objects.Len(),
		Created: e.log.created.Load(),
		Dropped: e.log.dropped.Load(),
	}
}

// Release frees the objects ws reference, following vector elements and
// map entries. Inline Vals and freed handles are skipped.
func (e *Env) Release(ws ...val.Val) {
	for _, w := range ws {
		obj, ok := e.objects.Remove(w)
		if !ok {
			continue
		}
		switch o := obj.(type) {
		case val.VecObject:
			e.Release(o...)
		case val.MapObject:
			for _, ent := range o {
				e.Release(ent.Key, ent.Value)
			}
		}
	}
}

// ReleaseObjects frees every host object. Vals kept from earlier
// invocations stop resolving.
func (e *Env) ReleaseObjects() {
	n := e.objects.Clear()
	Logger().Debug("objects released", zap.Int("count", n))
}

// Close frees every host object and detaches the allocation log. Later
// allocations fail.
func (e *Env) Close() error {
	e.objects.Unsubscribe(e.log)
	return e.objects.Close()
}
