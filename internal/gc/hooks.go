package gc

// Hooks is the pluggable callback set the host supplies at construction
// time (spec §6). A small record of function values is all that's needed
// here; no interface/inheritance hierarchy fits a set this small, matching
// the teacher's own preference for function-value "strategy" fields over
// type hierarchies (refcount_optimizer.go's RefCountStrategy is the one
// place the teacher reaches for an interface, and only because it dispatches
// on more than one method).
type Hooks struct {
	// Reclaim is called once per reclaimed identity during step 6 of the
	// cycle collector (§4.4). The host frees the object, or enqueues it for
	// freeing. It must not synchronously call a Collector operation that
	// takes the lock; Collect, CollectGeneration and CollectIfNeeded return
	// ErrCollectionInProgress instead (see Collector's reentrancy contract).
	Reclaim func(id Identity)

	// Refcount is optional, and this package never calls it: the cycle
	// collector uses only the last value reported through RefcountChanged.
	// Spec §9 resolves the original's ambiguity here by treating whichever
	// value RefcountChanged reported last as authoritative regardless of
	// what Refcount would return, so this hook is advisory only and the
	// cycle collector never calls it.
	Refcount func(id Identity) int64

	// Finalize is optional. It is invoked for objects leaving the
	// uncollectable set through ClearUncollectable, one call per identity,
	// before the set is emptied. The host runs the finalizer; this package
	// only reports that it must run.
	Finalize func(id Identity)
}

func (h Hooks) reclaim(id Identity) {
	if h.Reclaim != nil {
		h.Reclaim(id)
	}
}

func (h Hooks) finalize(id Identity) {
	if h.Finalize != nil {
		h.Finalize(id)
	}
}
