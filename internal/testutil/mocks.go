package testutil

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"storypanel/internal/providers"
)

// MockLogger implements providers.Logger. Messages are rendered on the way
// in so tests can match on what an operator would read.
type MockLogger struct {
	mu      sync.Mutex
	entries []logLine
}

type logLine struct {
	level string
	kind  providers.TypeEnum
	text  string
}

func (m *MockLogger) add(level string, kind providers.TypeEnum, format string, args []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logLine{level: level, kind: kind, text: fmt.Sprintf(format, args...)})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.add("error", t, format, args)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.add("warn", t, format, args)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.add("debug", t, format, args)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.add("info", t, format, args)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.add("fatal", t, format, args)
}
func (m *MockLogger) Close() {}

// Messages returns the rendered lines logged at level.
func (m *MockLogger) Messages(level string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		if e.level == level {
			out = append(out, e.text)
		}
	}
	return out
}

// Count returns how many lines were logged at level.
func (m *MockLogger) Count(level string) int {
	return len(m.Messages(level))
}

// CountType returns how many lines went to the given log file.
func (m *MockLogger) CountType(kind providers.TypeEnum) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface. Entries never
// expire; TTLs passed to SetTTL are recorded.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
	TTLs map[string]time.Duration
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte), TTLs: make(map[string]time.Duration)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) SetTTL(key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
	m.TTLs[key] = ttl
}

func (m *MockCache) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TTLs[key]
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor stands in for the zstd codec: it copies bytes unless a
// failure is injected.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	return bytes.Clone(val), nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	return bytes.Clone(val), nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu               sync.Mutex
	Requests         map[string]int
	CacheHits        int
	CacheMisses      int
	Persistence      int
	SlidesShown      int
	TrackingFailures map[string]int
	BuilderSaves     map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Requests:         make(map[string]int),
		TrackingFailures: make(map[string]int),
		BuilderSaves:     make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Requests == nil {
		m.Requests = make(map[string]int)
	}
	m.Requests[endpoint]++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persistence++
}

func (m *MockMetrics) IncSlidesShown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SlidesShown++
}

func (m *MockMetrics) IncTrackingFailures(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TrackingFailures == nil {
		m.TrackingFailures = make(map[string]int)
	}
	m.TrackingFailures[kind]++
}

func (m *MockMetrics) IncBuilderSaves(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BuilderSaves == nil {
		m.BuilderSaves = make(map[string]int)
	}
	m.BuilderSaves[outcome]++
}

func (m *MockMetrics) TrackingFailureCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TrackingFailures[kind]
}

func (m *MockMetrics) BuilderSaveCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.BuilderSaves[outcome]
}

// MockTracker records open tracking calls synchronously.
type MockTracker struct {
	mu         sync.Mutex
	SlideOpens []int
	GroupOpens []int
}

func (m *MockTracker) TrackSlideOpen(_ context.Context, slideID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SlideOpens = append(m.SlideOpens, slideID)
}

func (m *MockTracker) TrackGroupOpen(_ context.Context, groupID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GroupOpens = append(m.GroupOpens, groupID)
}

func (m *MockTracker) Slides() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.SlideOpens...)
}

func (m *MockTracker) Groups() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.GroupOpens...)
}

// MockOpener records external link activations.
type MockOpener struct {
	mu     sync.Mutex
	Opened []string
}

func (m *MockOpener) Open(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Opened = append(m.Opened, url)
	return nil
}

func (m *MockOpener) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Opened...)
}

var _ providers.MetricsProviderInterface = (*MockMetrics)(nil)
var _ providers.CacheProviderInterface = (*MockCache)(nil)
var _ providers.Logger = (*MockLogger)(nil)
