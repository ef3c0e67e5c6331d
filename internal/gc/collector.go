package gc

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Collector is the single process-wide garbage collection service (spec
// §5, §9 "encapsulate it in a single service value guarded by one mutex").
// Construct one with New, wire in the host's Hooks, and call its methods
// from any goroutine: every mutating and read operation serializes on mu.
//
// Reentrancy: collecting is a separate atomic flag, checked and set with a
// compare-and-swap before mu is ever touched. That is what lets a
// reclamation callback invoked synchronously from inside a collection
// (same goroutine, mu already held) call back into Collect and receive
// ErrCollectionInProgress instead of deadlocking on a non-reentrant mutex;
// it is also what lets a genuinely concurrent collect call from another
// goroutine fail fast instead of blocking for the whole collection. Every
// other operation (Track, AddReference, GetStats, ...) has no such fast
// path and simply blocks on mu like any other critical section.
type Collector struct {
	mu sync.Mutex

	initialized  bool
	enabled      bool
	autoTracking bool
	debugFlags   DebugFlag
	debugWriter  io.Writer

	collecting int32 // atomic; guards reentrancy, see type doc

	hooks Hooks

	reg  *registry
	gens *generationBook
	unc  *uncollectableSet
}

// New constructs an initialized Collector. Construction is always
// successful (init is the only operation spec.md allows to be idempotent
// rather than erroring on repeat), so New has no error return; calling Init
// afterward is a no-op that returns nil.
func New(hooks Hooks) *Collector {
	c := &Collector{
		hooks:       hooks,
		debugWriter: os.Stderr,
	}
	c.resetState()

	return c
}

func (c *Collector) resetState() {
	c.initialized = true
	c.enabled = true
	c.autoTracking = true
	c.reg = newRegistry()
	c.gens = newGenerationBook()
	c.unc = newUncollectableSet()
}

// Init (re)initializes global state. Repeated calls are idempotent and
// always return nil, matching spec §4.6 ("already initialized -> ok").
func (c *Collector) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		c.resetState()
	}

	return nil
}

// Cleanup releases all state; the registry is empty afterward. Repeated
// calls are idempotent.
func (c *Collector) Cleanup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = false
	c.reg = newRegistry()
	c.gens = newGenerationBook()
	c.unc = newUncollectableSet()

	return nil
}

// Enable turns on automatic collection.
func (c *Collector) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable turns off automatic collection. Manual Collect/CollectGeneration
// calls still run; only CollectIfNeeded is affected.
func (c *Collector) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

// IsEnabled reports whether automatic collection is on.
func (c *Collector) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enabled
}

// EnableAutomaticTracking and DisableAutomaticTracking govern whether the
// host is expected to call Track itself for every new object, or whether
// object-creation hooks (outside this package's scope, see spec §1) do it
// on the collector's behalf. The flag is advisory bookkeeping the façade
// exposes; Track always works regardless of its value.
func (c *Collector) EnableAutomaticTracking() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoTracking = true
}

func (c *Collector) DisableAutomaticTracking() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoTracking = false
}

func (c *Collector) IsAutomaticTrackingEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.autoTracking
}

// Track registers identity for collection in generation Young.
func (c *Collector) Track(id Identity) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reg.contains(id) {
		return ErrAlreadyTracked
	}

	c.reg.insert(id)
	c.gens.placeNew(c.reg.index[id])

	return nil
}

// Untrack removes identity from the registry, erasing every edge that
// touched it in both directions (spec §4.1, testable property "symmetric
// untracking").
func (c *Collector) Untrack(id Identity) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.untrackLocked(id)
}

func (c *Collector) untrackLocked(id Identity) error {
	h, ok := c.reg.index[id]
	if !ok {
		return ErrNotTracked
	}

	rec := c.reg.slots[h]
	c.gens.forget(h, rec.generation)
	c.unc.forget(h)
	c.reg.remove(id)

	return nil
}

// DebugUntrack is an alias for Untrack kept for parity with the source this
// spec was distilled from (py_gc_debug_untrack): debug tooling built on top
// of this package untracks the same way production code does, there being
// no separate debug build of the registry.
func (c *Collector) DebugUntrack(id Identity) error {
	return c.Untrack(id)
}

// IsTracked reports whether identity currently has a registry record. A
// null identity reports false rather than erroring, per spec §4.6.
func (c *Collector) IsTracked(id Identity) bool {
	if id == 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reg.contains(id)
}

// AddReference records an edge from -> to. Unknown endpoints are a no-op,
// not an error (spec §4.3).
func (c *Collector) AddReference(from, to Identity) error {
	if from == 0 || to == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reg.addEdge(from, to)

	return nil
}

// RemoveReference erases the from -> to edge, if it exists.
func (c *Collector) RemoveReference(from, to Identity) error {
	if from == 0 || to == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reg.removeEdge(from, to)

	return nil
}

// RefcountChanged updates identity's declared reference count. The new
// value is authoritative (spec §9 resolves the source's ambiguity this
// way): it replaces declaredRefcount outright rather than adjusting it by
// (new - old).
func (c *Collector) RefcountChanged(id Identity, old, new int64) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.reg.lookup(id)
	if !ok {
		return ErrNotTracked
	}

	_ = old
	rec.declaredRefcount = new

	return nil
}

// SetFinalizer records whether identity has a host finalizer that must run
// before it can be safely reclaimed.
func (c *Collector) SetFinalizer(id Identity, hasFinalizer bool) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.reg.lookup(id)
	if !ok {
		return ErrNotTracked
	}

	rec.finalizer = hasFinalizer

	return nil
}

// HasFinalizer reports identity's finalizer flag.
func (c *Collector) HasFinalizer(id Identity) (bool, error) {
	if id == 0 {
		return false, ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.reg.lookup(id)
	if !ok {
		return false, ErrNotTracked
	}

	return rec.finalizer, nil
}

// SetTypeName and SetSizeHint attach the optional debug/statistics metadata
// spec §3 names (type_name, size_hint). Neither is required for collection
// to function; both are surfaced back through GetObjectTypeName,
// GetObjectSize and GetTrackedInfo.
func (c *Collector) SetTypeName(id Identity, name string) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.reg.lookup(id)
	if !ok {
		return ErrNotTracked
	}

	rec.typeName = name

	return nil
}

func (c *Collector) SetSizeHint(id Identity, size uintptr) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.reg.lookup(id)
	if !ok {
		return ErrNotTracked
	}

	rec.sizeHint = size

	return nil
}

// GetObjectTypeName returns identity's recorded type name, which is empty
// if the host never called SetTypeName.
func (c *Collector) GetObjectTypeName(id Identity) (string, error) {
	if id == 0 {
		return "", ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.reg.lookup(id)
	if !ok {
		return "", ErrNotTracked
	}

	return rec.typeName, nil
}

// GetObjectSize returns identity's recorded size hint, or 0 if untracked or
// never set.
func (c *Collector) GetObjectSize(id Identity) uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.reg.lookup(id)
	if !ok {
		return 0
	}

	return rec.sizeHint
}

// MarkUncollectable flags identity so the cycle collector never reclaims
// it, persisting across collections until ClearUncollectable or
// UnmarkUncollectable.
func (c *Collector) MarkUncollectable(id Identity) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.reg.index[id]
	if !ok {
		return ErrNotTracked
	}

	c.reg.slots[h].uncollectable = true
	c.unc.mark(h)

	return nil
}

// UnmarkUncollectable clears the uncollectable flag on a single identity.
func (c *Collector) UnmarkUncollectable(id Identity) error {
	if id == 0 {
		return ErrInternal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.reg.index[id]
	if !ok {
		return ErrNotTracked
	}

	c.reg.slots[h].uncollectable = false
	c.unc.unmark(h)

	return nil
}

// IsUncollectable reports identity's uncollectable flag.
func (c *Collector) IsUncollectable(id Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.reg.index[id]
	if !ok {
		return false
	}

	return c.unc.contains(h)
}

// ClearUncollectable runs Finalize (if the host supplied one) for every
// member of the uncollectable set, then empties it. Spec §9 takes the
// conservative stance on the source's ambiguity here: clearing the set
// does not re-track or reclaim its members, it only lifts the flag: the
// objects stay in the registry, in whatever generation they were in,
// eligible for ordinary trial deletion on the next collection.
func (c *Collector) ClearUncollectable() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for h := range c.unc.handles {
		rec := c.reg.slots[h]
		if rec == nil {
			continue
		}

		rec.uncollectable = false

		c.hooks.finalize(rec.identity)
	}

	c.unc.clear()

	return nil
}

// ClearRegistry empties the registry and every generation; nothing is
// reclaimed through Hooks.Reclaim, since this is a hard reset rather than a
// collection (spec §4.6: "empties the registry and generations").
func (c *Collector) ClearRegistry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reg = newRegistry()
	c.gens = newGenerationBook()
	c.unc = newUncollectableSet()

	return nil
}

// SetDebug stores the debug bitmask interpreted by the debug printer (§6).
func (c *Collector) SetDebug(flags DebugFlag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debugFlags = flags
}

// GetDebug returns the current debug bitmask.
func (c *Collector) GetDebug() DebugFlag {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.debugFlags
}

// SetDebugWriter redirects the debug printer's output. The default is
// os.Stderr, matching the teacher's fmt.Printf-to-stdout convention for
// DebugMode traces (gc_avoidance.go) closely enough while letting tests
// capture output without touching package state.
func (c *Collector) SetDebugWriter(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debugWriter = w
}

// GetStats fills and returns the fixed statistics record (spec §6).
func (c *Collector) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.statsLocked()
}

func (c *Collector) statsLocked() Stats {
	var s Stats

	s.TotalTracked = c.reg.count()
	for g := Young; g <= Old; g++ {
		s.PerGeneration[g] = c.gens.count(g)
	}

	s.Uncollectable = c.unc.count()

	return s
}

// GetCount returns the total number of tracked objects.
func (c *Collector) GetCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reg.count()
}

// GetRegistryCount is an alias for GetCount, matching the source's
// py_gc_get_registry_count naming (spec §4 supplement).
func (c *Collector) GetRegistryCount() int {
	return c.GetCount()
}

// GetGenerationCount returns the number of tracked objects currently in
// generation g, or (-1, ErrInvalidGeneration) for an out-of-range g.
func (c *Collector) GetGenerationCount(g Generation) (int, error) {
	if !validGeneration(g) {
		return -1, ErrInvalidGeneration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gens.count(g), nil
}

// GetUncollectableCount returns the number of objects in the uncollectable
// set.
func (c *Collector) GetUncollectableCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.unc.count()
}

// GetGarbage returns a snapshot of every identity currently in the
// uncollectable set (spec §4 supplement, py_gc_get_garbage /
// gc.get_garbage() compatibility).
func (c *Collector) GetGarbage() []Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	handles := c.unc.members()
	out := make([]Identity, 0, len(handles))

	for _, h := range handles {
		out = append(out, c.reg.slots[h].identity)
	}

	return out
}

// GetObjects returns a snapshot of every currently tracked identity (spec §4
// supplement, py_gc_get_objects).
func (c *Collector) GetObjects() []Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reg.identities()
}

// GetReferents returns the identities id declares an outgoing edge to.
func (c *Collector) GetReferents(id Identity) ([]Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, ok := c.reg.referents(id)
	if !ok {
		return nil, ErrNotTracked
	}

	return out, nil
}

// GetReferrers returns the identities that declare an outgoing edge to id,
// read off the inverse index in O(deg(id)) rather than a full scan.
func (c *Collector) GetReferrers(id Identity) ([]Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, ok := c.reg.referrers(id)
	if !ok {
		return nil, ErrNotTracked
	}

	return out, nil
}

// SetThreshold sets generation g's allocation threshold.
func (c *Collector) SetThreshold(g Generation, value int64) error {
	if !validGeneration(g) {
		return ErrInvalidGeneration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens.setThreshold(g, value)

	return nil
}

// GetThreshold returns generation g's allocation threshold, or -1 for an
// out-of-range g.
func (c *Collector) GetThreshold(g Generation) int64 {
	if !validGeneration(g) {
		return -1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gens.getThreshold(g)
}

// tryEnterCollection is the reentrancy guard described in the Collector
// type doc: a compare-and-swap on an atomic flag, taken before mu, so a
// concurrent or reentrant Collect call fails fast rather than blocking or
// deadlocking.
func (c *Collector) tryEnterCollection() bool {
	return atomic.CompareAndSwapInt32(&c.collecting, 0, 1)
}

func (c *Collector) exitCollection() {
	atomic.StoreInt32(&c.collecting, 0)
}
