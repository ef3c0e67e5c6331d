package gc

// registry is the object registry (spec §4.1): a dense arena of records
// indexed by handle, with the host identity -> handle lookup in a hash map.
// It is not safe for concurrent use on its own; Collector's single mutex
// guards every call into it, per the concurrency model in spec §5.
type registry struct {
	slots []*record
	free  []handle
	index map[Identity]handle
}

func newRegistry() *registry {
	return &registry{
		index: make(map[Identity]handle),
	}
}

func (r *registry) lookup(id Identity) (*record, bool) {
	h, ok := r.index[id]
	if !ok {
		return nil, false
	}

	return r.slots[h], true
}

func (r *registry) contains(id Identity) bool {
	_, ok := r.index[id]

	return ok
}

// insert allocates a record for id and returns it. The caller must have
// already checked id is not already tracked.
func (r *registry) insert(id Identity) *record {
	rec := newRecord(id)

	var h handle
	if n := len(r.free); n > 0 {
		h = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[h] = rec
	} else {
		h = handle(len(r.slots))
		r.slots = append(r.slots, rec)
	}

	r.index[id] = h

	return rec
}

// remove deletes id's record and every edge touching it, in both
// directions, so the invariant "every outgoing/incoming set only names live
// registry keys" holds immediately after remove returns. Cost is O(deg(v))
// because incoming is an inverse index.
func (r *registry) remove(id Identity) (*record, bool) {
	h, ok := r.index[id]
	if !ok {
		return nil, false
	}

	rec := r.slots[h]

	for otherHandle := range rec.outgoing {
		if other := r.slots[otherHandle]; other != nil {
			delete(other.incoming, h)
		}
	}

	for otherHandle := range rec.incoming {
		if other := r.slots[otherHandle]; other != nil {
			delete(other.outgoing, h)
		}
	}

	delete(r.index, id)
	r.slots[h] = nil
	r.free = append(r.free, h)

	return rec, true
}

func (r *registry) count() int {
	return len(r.index)
}

func (r *registry) identities() []Identity {
	out := make([]Identity, 0, len(r.index))
	for id := range r.index {
		out = append(out, id)
	}

	return out
}

func (r *registry) clear() {
	r.slots = nil
	r.free = nil
	r.index = make(map[Identity]handle)
}

// addEdge records that from references to. Unknown endpoints are tolerated
// as a no-op (spec §4.3): the host may notify out of order. Re-adding an
// existing edge is idempotent.
func (r *registry) addEdge(from, to Identity) {
	fh, ok := r.index[from]
	if !ok {
		return
	}

	th, ok := r.index[to]
	if !ok {
		return
	}

	r.slots[fh].outgoing[th] = struct{}{}
	r.slots[th].incoming[fh] = struct{}{}
}

// removeEdge erases the from->to edge. A missing edge, or a missing
// endpoint, is a no-op.
func (r *registry) removeEdge(from, to Identity) {
	fh, ok := r.index[from]
	if !ok {
		return
	}

	th, ok := r.index[to]
	if !ok {
		return
	}

	delete(r.slots[fh].outgoing, th)
	delete(r.slots[th].incoming, fh)
}

// referents returns the identities id declares an outgoing edge to.
func (r *registry) referents(id Identity) ([]Identity, bool) {
	rec, ok := r.lookup(id)
	if !ok {
		return nil, false
	}

	out := make([]Identity, 0, len(rec.outgoing))
	for h := range rec.outgoing {
		out = append(out, r.slots[h].identity)
	}

	return out, true
}

// referrers returns the identities that declare an outgoing edge to id,
// read straight off the inverse index.
func (r *registry) referrers(id Identity) ([]Identity, bool) {
	rec, ok := r.lookup(id)
	if !ok {
		return nil, false
	}

	out := make([]Identity, 0, len(rec.incoming))
	for h := range rec.incoming {
		out = append(out, r.slots[h].identity)
	}

	return out, true
}
