package gc

// generationBook is the generation book (spec §4.2): three ordered buckets
// of member handles, each with an allocation counter and a threshold. It
// holds handles rather than identities so membership checks and moves never
// need to go back through the registry's identity map.
type generationBook struct {
	members      [numGenerations]map[handle]struct{}
	allocCounter [numGenerations]int64
	threshold    [numGenerations]int64
}

func newGenerationBook() *generationBook {
	gb := &generationBook{threshold: defaultThresholds}
	for g := range gb.members {
		gb.members[g] = make(map[handle]struct{})
	}

	return gb
}

// placeNew inserts h into generation Young and increments its counter.
func (gb *generationBook) placeNew(h handle) {
	gb.members[Young][h] = struct{}{}
	gb.allocCounter[Young]++
}

// promote moves h out of generation from into min(from+1, Old), crediting
// the destination generation's allocation counter. Moving generations never
// touches references (spec §4.2). This is the generic single-step
// promotion primitive; the cycle collector's bulk survivor promotion (step
// 7 of §4.4, which promotes every survivor to min(g_target+1, 2) in one
// shot and resets the source counters itself) uses moveTo directly instead.
func (gb *generationBook) promote(h handle, from Generation) Generation {
	to := nextGeneration(from)
	gb.moveTo(h, from, to)
	gb.allocCounter[to]++

	return to
}

// moveTo relocates h from generation from to generation to without
// touching either generation's allocation counter.
func (gb *generationBook) moveTo(h handle, from, to Generation) {
	delete(gb.members[from], h)
	gb.members[to][h] = struct{}{}
}

// forget removes h from whichever generation it is recorded in. Used by
// untrack and by reclamation, where the caller already knows the current
// generation.
func (gb *generationBook) forget(h handle, g Generation) {
	delete(gb.members[g], h)
}

func (gb *generationBook) resetCounter(g Generation) {
	gb.allocCounter[g] = 0
}

func (gb *generationBook) count(g Generation) int {
	return len(gb.members[g])
}

func (gb *generationBook) getThreshold(g Generation) int64 {
	return gb.threshold[g]
}

func (gb *generationBook) setThreshold(g Generation, value int64) {
	gb.threshold[g] = value
}

// due reports whether generation g is a collection candidate: its own
// counter exceeds its threshold, and so does every younger generation's
// (spec §4.5 — "generation g is due when the corresponding counter exceeds
// its threshold", read cumulatively down from g).
func (gb *generationBook) due(g Generation) bool {
	for younger := Young; younger <= g; younger++ {
		if gb.allocCounter[younger] <= gb.threshold[younger] {
			return false
		}
	}

	return true
}

// highestDue returns the oldest generation currently due and true, or false
// if none is.
func (gb *generationBook) highestDue() (Generation, bool) {
	result, found := Generation(-1), false

	for g := Young; g <= Old; g++ {
		if gb.due(g) {
			result, found = g, true
		}
	}

	return result, found
}
