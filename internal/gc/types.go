package gc

// Identity is an opaque host-provided pointer treated as an identity token.
// The collector never dereferences it; it only uses it as a map key.
type Identity uintptr

// Generation is one of the three ordered buckets a tracked object can live
// in. Younger generations are collected more often.
type Generation int

const (
	// Young is generation 0, where every newly tracked object starts.
	Young Generation = iota
	// Middle is generation 1.
	Middle
	// Old is generation 2, the terminal generation.
	Old

	numGenerations = 3
)

// String renders the generation the way GetTrackedInfo and the per-collection
// debug line print it.
func (g Generation) String() string {
	switch g {
	case Young:
		return "young"
	case Middle:
		return "middle"
	case Old:
		return "old"
	default:
		return "invalid"
	}
}

func validGeneration(g Generation) bool {
	return g >= Young && g <= Old
}

// nextGeneration implements the promotion rule min(g+1, Old).
func nextGeneration(g Generation) Generation {
	if g >= Old {
		return Old
	}

	return g + 1
}

// DebugFlag is a bit in the debug bitmask interpreted only by the debug
// printer (§6). Flags compose with bitwise OR.
type DebugFlag int32

const (
	// DebugStats prints a one-line summary on every collection.
	DebugStats DebugFlag = 1 << 0
	// DebugCollectable prints every identity as it is reclaimed.
	DebugCollectable DebugFlag = 1 << 1
	// DebugUncollectable prints every identity a collection moves into the
	// uncollectable set; MarkUncollectable does not print.
	DebugUncollectable DebugFlag = 1 << 2
)

// Stats is the fixed statistics record exposed by GetStats.
type Stats struct {
	TotalTracked  int
	PerGeneration [numGenerations]int
	Uncollectable int
}

// defaultThresholds is the fixed default threshold tuple (700, 10, 10), matching
// the canonical generational scheme this collector is modeled on.
var defaultThresholds = [numGenerations]int64{700, 10, 10}
