// Package gc implements a generational, reference-tracking garbage
// collector for a host object runtime.
//
// The host owns allocation and reference-count arithmetic for its own
// objects; this package only observes that arithmetic through notifications
// (Track, AddReference, RefcountChanged, ...) and periodically walks the
// known subgraph to reclaim cycle-trapped objects that simple reference
// counting cannot free. The algorithm is trial deletion, the same scheme
// CPython's gc module uses: declared reference counts are copied into a
// scratch counter, internal references are subtracted out, and whatever
// remains above zero is reachable from outside the scanned set.
//
// A single Collector value is the whole service: construct one with New,
// register the host's callbacks, and call its methods from any goroutine.
// All mutating and read operations serialize on one internal lock; see
// Collector for the concurrency contract.
package gc
