package gc

import (
	"errors"
	"sort"
	"testing"
)

func TestCollectReclaimsUnreferencedCycle(t *testing.T) {
	var reclaimed []Identity

	c := New(Hooks{
		Reclaim: func(id Identity) {
			reclaimed = append(reclaimed, id)
		},
	})

	_ = c.Track(1)
	_ = c.Track(2)
	_ = c.AddReference(1, 2)
	_ = c.AddReference(2, 1)
	_ = c.RefcountChanged(1, 1, 1)
	_ = c.RefcountChanged(2, 1, 1)

	if err := c.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}

	sort.Slice(reclaimed, func(i, j int) bool { return reclaimed[i] < reclaimed[j] })

	if len(reclaimed) != 2 || reclaimed[0] != 1 || reclaimed[1] != 2 {
		t.Fatalf("expected both cycle members reclaimed, got %v", reclaimed)
	}

	if c.IsTracked(1) || c.IsTracked(2) {
		t.Fatalf("expected reclaimed members to be untracked")
	}
}

func TestCollectPromotesExternallyReferencedCycle(t *testing.T) {
	var reclaimed []Identity

	c := New(Hooks{
		Reclaim: func(id Identity) {
			reclaimed = append(reclaimed, id)
		},
	})

	_ = c.Track(1)
	_ = c.Track(2)
	_ = c.AddReference(1, 2)
	_ = c.AddReference(2, 1)

	// declaredRefcount 2 for object 1: one from the cycle, one external.
	_ = c.RefcountChanged(1, 1, 2)
	_ = c.RefcountChanged(2, 1, 1)

	if err := c.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if len(reclaimed) != 0 {
		t.Fatalf("expected nothing reclaimed, got %v", reclaimed)
	}

	if !c.IsTracked(1) || !c.IsTracked(2) {
		t.Fatalf("expected both members to remain tracked")
	}

	// Collect targets Old, so survivors land in min(Old+1, Old) = Old.
	n, err := c.GetGenerationCount(Old)
	if err != nil {
		t.Fatalf("get generation count: %v", err)
	}

	if n != 2 {
		t.Fatalf("expected both survivors promoted to Old, got %d", n)
	}
}

func TestCollectMovesFinalizerCycleToUncollectable(t *testing.T) {
	var reclaimed []Identity

	c := New(Hooks{
		Reclaim: func(id Identity) {
			reclaimed = append(reclaimed, id)
		},
	})

	_ = c.Track(1)
	_ = c.Track(2)
	_ = c.AddReference(1, 2)
	_ = c.AddReference(2, 1)
	_ = c.RefcountChanged(1, 1, 1)
	_ = c.RefcountChanged(2, 1, 1)
	_ = c.SetFinalizer(1, true)

	if err := c.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if len(reclaimed) != 0 {
		t.Fatalf("expected nothing reclaimed from a finalizer cycle, got %v", reclaimed)
	}

	if !c.IsUncollectable(1) || !c.IsUncollectable(2) {
		t.Fatalf("expected both cycle members marked uncollectable")
	}

	if !c.IsTracked(1) || !c.IsTracked(2) {
		t.Fatalf("expected uncollectable members to remain tracked")
	}
}

func TestCollectPreservesHostMarkedUncollectableWithoutFinalizer(t *testing.T) {
	var reclaimed []Identity

	c := New(Hooks{
		Reclaim: func(id Identity) {
			reclaimed = append(reclaimed, id)
		},
	})

	_ = c.Track(1)
	_ = c.Track(2)
	_ = c.AddReference(1, 2)
	_ = c.AddReference(2, 1)
	_ = c.RefcountChanged(1, 1, 0)
	_ = c.RefcountChanged(2, 1, 0)

	// No finalizer on either member; 1 is flagged uncollectable directly by
	// the host, independent of any finalizer.
	_ = c.MarkUncollectable(1)

	if err := c.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if len(reclaimed) != 0 {
		t.Fatalf("expected nothing reclaimed since 1 is host-marked uncollectable, got %v", reclaimed)
	}

	if !c.IsTracked(1) || !c.IsTracked(2) {
		t.Fatalf("expected both cycle members to remain tracked")
	}

	if !c.IsUncollectable(1) || !c.IsUncollectable(2) {
		t.Fatalf("expected both cycle members to end up flagged uncollectable")
	}
}

func TestReclaimForgetsUncollectableHandleBeforeReuse(t *testing.T) {
	c := newTestCollector()

	_ = c.Track(1)
	_ = c.MarkUncollectable(1)
	_ = c.UnmarkUncollectable(1)
	_ = c.RefcountChanged(1, 1, 0)

	if err := c.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if c.IsTracked(1) {
		t.Fatalf("expected 1 to be reclaimed after UnmarkUncollectable")
	}

	// The freed handle may be recycled by the next Track; it must not carry
	// over a stale uncollectable flag from the reclaimed object.
	_ = c.Track(2)

	if c.IsUncollectable(2) {
		t.Fatalf("expected freshly tracked object to not inherit a stale uncollectable flag")
	}

	stats := c.GetStats()
	if stats.Uncollectable != 0 {
		t.Fatalf("expected uncollectable count to be 0, got %d", stats.Uncollectable)
	}
}

func TestCollectGenerationRejectsInvalidGeneration(t *testing.T) {
	c := newTestCollector()

	if err := c.CollectGeneration(Generation(7)); !errors.Is(err, ErrInvalidGeneration) {
		t.Fatalf("expected ErrInvalidGeneration, got %v", err)
	}
}

func TestCollectionInProgressRejectsReentrantCall(t *testing.T) {
	var c *Collector

	c = New(Hooks{
		Reclaim: func(id Identity) {
			if err := c.Collect(); !errors.Is(err, ErrCollectionInProgress) {
				t.Errorf("expected reentrant Collect to fail with ErrCollectionInProgress, got %v", err)
			}
		},
	})

	_ = c.Track(1)
	_ = c.RefcountChanged(1, 1, 0)

	if err := c.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}
}

func TestCollectResetsAllocationCounters(t *testing.T) {
	c := newTestCollector()
	_ = c.Track(1)

	stats := c.GetStats()
	if stats.PerGeneration[Young] != 1 {
		t.Fatalf("expected 1 in Young before collect, got %d", stats.PerGeneration[Young])
	}

	if err := c.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if c.gens.allocCounter[Young] != 0 {
		t.Fatalf("expected Young allocation counter reset, got %d", c.gens.allocCounter[Young])
	}
}

func TestNeedsCollectionAndCollectIfNeeded(t *testing.T) {
	c := newTestCollector()
	_ = c.SetThreshold(Young, 1)

	_ = c.Track(1)
	_ = c.Track(2)

	if !c.NeedsCollection() {
		t.Fatalf("expected collection to be needed once Young's threshold is exceeded")
	}

	if err := c.CollectIfNeeded(); err != nil {
		t.Fatalf("collect if needed: %v", err)
	}

	if c.NeedsCollection() {
		t.Fatalf("expected no collection needed immediately after one ran")
	}
}

func TestThresholdTriggerReclaimsZeroRefcountObjects(t *testing.T) {
	var reclaimed []Identity

	c := New(Hooks{
		Reclaim: func(id Identity) {
			reclaimed = append(reclaimed, id)
		},
	})

	_ = c.SetThreshold(Young, 3)
	_ = c.SetThreshold(Middle, 100)
	_ = c.SetThreshold(Old, 100)

	ids := []Identity{1, 2, 3, 4}
	for _, id := range ids {
		_ = c.Track(id)
		_ = c.RefcountChanged(id, 1, 0)
	}

	if !c.NeedsCollection() {
		t.Fatalf("expected Young's threshold to be exceeded after 4 tracks")
	}

	if err := c.CollectIfNeeded(); err != nil {
		t.Fatalf("collect if needed: %v", err)
	}

	sort.Slice(reclaimed, func(i, j int) bool { return reclaimed[i] < reclaimed[j] })

	if len(reclaimed) != 4 {
		t.Fatalf("expected all 4 zero-refcount objects reclaimed, got %v", reclaimed)
	}

	for _, id := range ids {
		if c.IsTracked(id) {
			t.Fatalf("expected %d to be untracked after reclamation", id)
		}
	}

	if c.gens.allocCounter[Young] != 0 {
		t.Fatalf("expected Young's allocation counter reset, got %d", c.gens.allocCounter[Young])
	}
}

func TestCollectIfNeededRespectsDisable(t *testing.T) {
	c := newTestCollector()
	_ = c.SetThreshold(Young, 0)
	_ = c.Track(1)

	c.Disable()

	if err := c.CollectIfNeeded(); err != nil {
		t.Fatalf("collect if needed: %v", err)
	}

	if !c.IsTracked(1) {
		t.Fatalf("expected object untouched while collection is disabled")
	}
}
