package gc

import "fmt"

// Collect runs a full collection (generation Old), folding every younger
// generation in. Equivalent to CollectGeneration(Old).
func (c *Collector) Collect() error {
	return c.CollectGeneration(Old)
}

// CollectGeneration runs the cycle collector on g_target = g, over
// S = members[0] ∪ … ∪ members[g] (spec §4.4). It returns
// ErrInvalidGeneration for g outside {Young, Middle, Old}, and
// ErrCollectionInProgress if a collection is already running — whether
// from another goroutine or this one reentering through a reclamation
// callback (see Collector's type doc for why the guard is a
// compare-and-swap taken before the lock).
func (c *Collector) CollectGeneration(g Generation) error {
	if !validGeneration(g) {
		return ErrInvalidGeneration
	}

	if !c.tryEnterCollection() {
		return ErrCollectionInProgress
	}
	defer c.exitCollection()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.runCycleCollector(g)

	return nil
}

// runCycleCollector implements §4.4's trial-deletion algorithm. The caller
// must hold c.mu and must have already claimed the reentrancy guard.
func (c *Collector) runCycleCollector(target Generation) {
	working := c.snapshotWorkingSet(target)
	reachable, candidate := c.classifyRoots(working)
	c.propagateReachability(working, reachable, candidate)
	protected, reclaimable := c.partitionCandidates(working, candidate)

	c.moveToUncollectable(protected)
	reclaimed := c.reclaim(working, reclaimable)
	c.promoteSurvivors(working, reachable, target)

	for g := Young; g <= target; g++ {
		c.gens.resetCounter(g)
	}

	if c.debugFlags&DebugStats != 0 {
		fmt.Fprintf(c.debugWriter, "gc: collect generation=%s scanned=%d reclaimed=%d uncollectable=%d\n",
			target, len(working), reclaimed, len(protected))
	}
}

// snapshotWorkingSet materializes W = members[0] ∪ … ∪ target (step 1) and
// copies each record's declared refcount into its scratch incomingCount.
func (c *Collector) snapshotWorkingSet(target Generation) map[handle]*record {
	working := make(map[handle]*record)

	for g := Young; g <= target; g++ {
		for h := range c.gens.members[g] {
			rec := c.reg.slots[h]
			rec.incomingCount = rec.declaredRefcount
			working[h] = rec
		}
	}

	// Step 2: subtract internal references. Only edges whose target is also
	// in the working set count; an edge from outside W (or to outside W) is
	// exactly the "external reference" trial deletion is looking for.
	for _, rec := range working {
		for out := range rec.outgoing {
			if targetRec, inWorkingSet := working[out]; inWorkingSet {
				targetRec.incomingCount--
			}
		}
	}

	return working
}

// classifyRoots partitions W into reachable (incomingCount > 0: referenced
// from outside W, therefore live) and candidate (everything else) — step 3.
func (c *Collector) classifyRoots(working map[handle]*record) (reachable, candidate map[handle]struct{}) {
	reachable = make(map[handle]struct{})
	candidate = make(map[handle]struct{})

	for h, rec := range working {
		if rec.incomingCount > 0 {
			reachable[h] = struct{}{}
		} else {
			candidate[h] = struct{}{}
		}
	}

	return reachable, candidate
}

// propagateReachability grows reachable to a fixed point by following
// outgoing edges from reachable members into candidate — step 4.
func (c *Collector) propagateReachability(working map[handle]*record, reachable, candidate map[handle]struct{}) {
	queue := make([]handle, 0, len(reachable))
	for h := range reachable {
		queue = append(queue, h)
	}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		for out := range working[h].outgoing {
			if _, isCandidate := candidate[out]; !isCandidate {
				continue
			}

			delete(candidate, out)
			reachable[out] = struct{}{}
			queue = append(queue, out)
		}
	}
}

// partitionCandidates splits the remaining candidate set into protected
// (has a finalizer, was already flagged uncollectable by the host via
// MarkUncollectable, or is transitively reachable within candidate from
// something that is) and reclaimable — step 5. Seeding on uncollectable as
// well as finalizer is what makes MarkUncollectable's "persisted across
// collections until explicitly cleared" guarantee (spec §2 item 4, §3) hold:
// without it, a host-flagged object with no finalizer that later turns up in
// an unreferenced candidate set would be silently destroyed.
func (c *Collector) partitionCandidates(working map[handle]*record, candidate map[handle]struct{}) (protected, reclaimable map[handle]struct{}) {
	protected = make(map[handle]struct{})

	queue := make([]handle, 0)
	for h := range candidate {
		if working[h].finalizer || working[h].uncollectable {
			protected[h] = struct{}{}
			queue = append(queue, h)
		}
	}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		for out := range working[h].outgoing {
			if _, isCandidate := candidate[out]; !isCandidate {
				continue
			}

			if _, already := protected[out]; already {
				continue
			}

			protected[out] = struct{}{}
			queue = append(queue, out)
		}
	}

	reclaimable = make(map[handle]struct{})

	for h := range candidate {
		if _, isProtected := protected[h]; !isProtected {
			reclaimable[h] = struct{}{}
		}
	}

	return protected, reclaimable
}

// moveToUncollectable flags every protected record uncollectable and adds
// it to the uncollectable set, in the generation it was already in. They
// are not destroyed: running a finalizer may resurrect them (step 5).
// Members already in the uncollectable set (MarkUncollectable, or a prior
// collection) are marked again idempotently.
func (c *Collector) moveToUncollectable(protected map[handle]struct{}) {
	for h := range protected {
		rec := c.reg.slots[h]
		rec.uncollectable = true
		c.unc.mark(h)

		if c.debugFlags&DebugUncollectable != 0 {
			fmt.Fprintf(c.debugWriter, "gc: uncollectable id=%#x\n", rec.identity)
		}
	}
}

// reclaim calls Hooks.Reclaim for each reclaimable record, then removes it
// from the registry, its generation, and the uncollectable index — step 6.
// partitionCandidates already keeps every uncollectable-flagged record out
// of reclaimable, so c.unc.forget here is a defensive backstop rather than
// the primary guard: it keeps the uncollectable index from ever retaining a
// stale handle if that invariant is ever broken, which would otherwise let a
// later Track reuse the freed handle (registry.remove pushes it onto the
// freelist) and have the new, unrelated object misreported as uncollectable.
func (c *Collector) reclaim(working map[handle]*record, reclaimable map[handle]struct{}) int {
	count := 0

	for h := range reclaimable {
		rec := working[h]

		c.hooks.reclaim(rec.identity)

		if c.debugFlags&DebugCollectable != 0 {
			fmt.Fprintf(c.debugWriter, "gc: reclaim id=%#x\n", rec.identity)
		}

		c.gens.forget(h, rec.generation)
		c.unc.forget(h)
		c.reg.remove(rec.identity)
		count++
	}

	return count
}

// promoteSurvivors moves every reachable (therefore not reclaimed) member of
// W that is not flagged uncollectable into min(target+1, 2), the generational
// optimization of folding younger generations into an older generation's
// collection and promoting everything that survives together — step 7.
// Uncollectable members stay in the generation they were already in.
func (c *Collector) promoteSurvivors(working map[handle]*record, reachable map[handle]struct{}, target Generation) {
	dest := nextGeneration(target)

	for h := range reachable {
		rec := working[h]
		if rec.uncollectable {
			continue
		}

		c.gens.moveTo(h, rec.generation, dest)
		rec.generation = dest
	}
}
