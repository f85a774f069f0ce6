// Package resource provides the host object table.
//
// Values too large to travel inline in a val.Val (big integers, strings,
// bytes, vectors, maps, addresses) live in host memory and are referenced
// by a 32-bit handle stored in the Val's major bits. Table maps those
// handles to objects and implements val.ObjectStore:
//
//	table := resource.NewTable()
//
//	v, err := table.NewObject(val.String("hello"))
//	obj, err := table.Object(v)
//
// Handle 0 is reserved and always invalid. Freed handles are reused, so
// Object checks the Val's tag against the stored object before returning it.
//
// # Limits
//
// NewLimitedTable bounds the number of live objects; allocations past the
// limit fail with ErrFull, which the value codec surfaces as a host
// allocation failure.
//
// # Observers
//
// Register observers to track object lifecycle events:
//
//	table.Subscribe(observer)
//
// Each NewObject emits EventCreated and each Remove emits EventDropped;
// Clear removes objects one by one, so it emits EventDropped for each.
package resource
