package gc

import "time"

// handle is the dense arena index a record lives at. Identities are
// host-provided and sparse; handle is ours and dense, so the registry's
// backing slice never has to grow past the high-water mark of concurrently
// tracked objects.
type handle uint32

const invalidHandle handle = ^handle(0)

// record is one tracked-object record (spec §3). Records own no live
// references to each other; edges are handle pairs stored in outgoing and
// incoming, never Go pointers, so untracking an object is a local,
// O(deg(v)) operation rather than a graph walk.
type record struct {
	identity   Identity
	generation Generation

	declaredRefcount int64
	finalizer        bool
	uncollectable    bool

	outgoing map[handle]struct{} // objects this one references
	incoming map[handle]struct{} // objects that reference this one (inverse index)

	// incomingCount is scratch state used only during a collection's trial
	// deletion pass (§4.4 step 1-2). It has no meaning outside a
	// collection and is never read by any other operation.
	incomingCount int64

	sizeHint uintptr
	typeName string

	trackedAt time.Time
}

func newRecord(id Identity) *record {
	return &record{
		identity:         id,
		generation:       Young,
		declaredRefcount: 1,
		outgoing:         make(map[handle]struct{}),
		incoming:         make(map[handle]struct{}),
		trackedAt:        time.Now(),
	}
}
