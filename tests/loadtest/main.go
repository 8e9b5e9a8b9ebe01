// Command loadtest hammers a running kiosk API with the traffic a lobby
// display and its touch panel generate.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"
)

type weighted struct {
	weight float64
	next   func(rng *rand.Rand) (method, path string)
}

type phase struct {
	name  string
	picks []weighted
}

func get(path string) func(*rand.Rand) (string, string) {
	return func(*rand.Rand) (string, string) { return http.MethodGet, path }
}

func post(path string) func(*rand.Rand) (string, string) {
	return func(*rand.Rand) (string, string) { return http.MethodPost, path }
}

func tap(rng *rand.Rand) (string, string) {
	if rng.Intn(2) == 0 {
		return http.MethodPost, fmt.Sprintf("/tap?x=%.2f", rng.Float64())
	}
	return http.MethodPost, fmt.Sprintf("/tap?x=%.2f&y=%.2f", rng.Float64(), rng.Float64())
}

func element(rng *rand.Rand) (string, string) {
	return http.MethodPost, fmt.Sprintf("/element?i=%d", rng.Intn(4))
}

var phases = []phase{
	{name: "frame polling", picks: []weighted{{1, get("/frame")}}},
	{name: "touch panel", picks: []weighted{
		{0.60, get("/frame")},
		{0.15, tap},
		{0.07, post("/next")},
		{0.05, post("/prev")},
		{0.03, element},
		{0.10, get("/stats")},
	}},
	{name: "monitoring", picks: []weighted{
		{0.50, get("/frame")},
		{0.30, get("/stats")},
		{0.20, get("/health")},
	}},
}

func (p phase) pick(rng *rand.Rand) (string, string) {
	r := rng.Float64()
	for _, w := range p.picks {
		if r < w.weight {
			return w.next(rng)
		}
		r -= w.weight
	}
	return p.picks[len(p.picks)-1].next(rng)
}

type sample struct {
	label   string
	latency time.Duration
	failed  bool
}

type tally struct {
	mu      sync.Mutex
	byLabel map[string][]sample
}

func (t *tally) add(s sample) {
	t.mu.Lock()
	t.byLabel[s.label] = append(t.byLabel[s.label], s)
	t.mu.Unlock()
}

type runner struct {
	base   string
	client *http.Client
}

func (r *runner) hit(ctx context.Context, method, path string) sample {
	label := method + " " + strings.SplitN(path, "?", 2)[0]
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, nil)
	if err != nil {
		return sample{label: label, failed: true}
	}
	start := time.Now()
	resp, err := r.client.Do(req)
	s := sample{label: label, latency: time.Since(start)}
	if err != nil {
		s.failed = ctx.Err() == nil
		return s
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	// 503 only means the kiosk is between sessions
	s.failed = resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable
	return s
}

func (r *runner) waitReady(ctx context.Context) error {
	for {
		s := r.hit(ctx, http.MethodGet, "/health")
		if !s.failed && s.latency > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("kiosk at %s not responding", r.base)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (r *runner) run(p phase, workers int, d time.Duration) *tally {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	t := &tally{byLabel: make(map[string][]sample)}
	g, ctx := errgroup.WithContext(ctx)
	for i := range workers {
		rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
		g.Go(func() error {
			for ctx.Err() == nil {
				method, path := p.pick(rng)
				s := r.hit(ctx, method, path)
				if ctx.Err() == nil {
					t.add(s)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return t
}

func report(t *tally, d time.Duration) {
	labels := make([]string, 0, len(t.byLabel))
	for l := range t.byLabel {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	head := color.New(color.Bold)
	head.Printf("  %-16s %8s %6s %9s %9s %9s\n", "Endpoint", "Reqs", "Errs", "P50", "P95", "P99")

	var total, failed int
	for _, l := range labels {
		samples := t.byLabel[l]
		lat := make([]time.Duration, len(samples))
		errs := 0
		for i, s := range samples {
			lat[i] = s.latency
			if s.failed {
				errs++
			}
		}
		slices.Sort(lat)
		total += len(samples)
		failed += errs

		line := fmt.Sprintf("  %-16s %8d %6d %9s %9s %9s", l, len(samples), errs,
			quantile(lat, 0.50), quantile(lat, 0.95), quantile(lat, 0.99))
		if errs > 0 {
			color.Red("%s", line)
		} else {
			fmt.Println(line)
		}
	}

	summary := color.GreenString
	if failed > 0 {
		summary = color.YellowString
	}
	fmt.Println(summary("  %d requests, %d failed, %.0f req/s", total, failed, float64(total)/d.Seconds()))
}

func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := min(int(float64(len(sorted))*q), len(sorted)-1)
	return sorted[i].Round(10 * time.Microsecond)
}

func main() {
	base := flag.String("url", "http://127.0.0.1:18090", "kiosk API base URL")
	workers := flag.Int("workers", 50, "concurrent clients")
	duration := flag.Duration("duration", 10*time.Second, "length of each phase")
	flag.Parse()

	r := &runner{
		base: strings.TrimRight(*base, "/"),
		client: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: *workers * 2,
				IdleConnTimeout:     30 * time.Second,
				DialContext:         (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	err := r.waitReady(ctx)
	cancel()
	if err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}

	fmt.Printf("%d workers, %s per phase against %s\n", *workers, *duration, r.base)
	for i, p := range phases {
		color.Cyan("\nPhase %d: %s", i+1, p.name)
		report(r.run(p, *workers, *duration), *duration)
	}
}
