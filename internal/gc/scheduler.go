package gc

import "sync/atomic"

// NeedsCollection reports whether the scheduler would choose to run a
// collection right now (spec §4.5): some generation g is due when its own
// allocation counter exceeds its threshold and so does every younger
// generation's.
func (c *Collector) NeedsCollection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, due := c.gens.highestDue()

	return due
}

// CollectIfNeeded selects the oldest generation currently over threshold
// and collects it. If automatic collection is disabled, or nothing is due,
// it returns nil without collecting. This is the entry point a host calls
// after every allocation or reference-count transition to get CPython-style
// threshold-driven scheduling (spec §4.5) instead of calling
// CollectGeneration directly.
func (c *Collector) CollectIfNeeded() error {
	// Checked before mu, like CollectGeneration's guard, so a reclamation
	// callback reentering here gets an error instead of deadlocking.
	if atomic.LoadInt32(&c.collecting) != 0 {
		return ErrCollectionInProgress
	}

	c.mu.Lock()
	enabled := c.enabled
	target, due := c.gens.highestDue()
	c.mu.Unlock()

	if !enabled || !due {
		return nil
	}

	return c.CollectGeneration(target)
}
