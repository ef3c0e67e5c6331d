package gc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"
)

// MetricsSnapshot returns the collector's stats as a flat metric map, the
// shape StartMetricsServer exposes. Values are float64 for compatibility
// with text-exposition consumers even though every one of these is an
// integer count.
func (c *Collector) MetricsSnapshot() map[string]float64 {
	c.mu.Lock()
	stats := c.statsLocked()
	c.mu.Unlock()

	return map[string]float64{
		"tracked_total":  float64(stats.TotalTracked),
		"tracked_young":  float64(stats.PerGeneration[Young]),
		"tracked_middle": float64(stats.PerGeneration[Middle]),
		"tracked_old":    float64(stats.PerGeneration[Old]),
		"uncollectable":  float64(stats.Uncollectable),
	}
}

// StartMetricsServer starts a minimal text exposition endpoint for this
// collector's stats on addr (host:port), under "/metrics". It returns the
// bound address (which may differ from addr if port 0 was used) and a
// shutdown function.
func (c *Collector) StartMetricsServer(addr string) (string, func(ctx context.Context) error, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		snapshot := c.MetricsSnapshot()

		keys := make([]string, 0, len(snapshot))
		for k := range snapshot {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(w, "gc_%s %g\n", k, snapshot[k])
		}
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 3 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, err
	}

	bound := ln.Addr().String()

	go func() {
		_ = srv.Serve(ln)
	}()

	stop := func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}

	return bound, stop, nil
}
