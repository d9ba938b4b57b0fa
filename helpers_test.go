package logify

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	reads int
}

func newFakeClock() *fakeClock {
	t := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	return &fakeClock{start: t, now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return c.now
}

func (c *fakeClock) StartTime() time.Time { return c.start }

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

type recordingSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(entry *LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *recordingSink) Flush()       {}
func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.entries...)
}

type failingSink struct {
	mu   sync.Mutex
	fail bool
}

var errDiskFull = errors.New("disk full")

func (s *failingSink) Name() string { return "failing" }

func (s *failingSink) Write(*LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errDiskFull
	}
	return nil
}

func (s *failingSink) SetFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *failingSink) Flush()       {}
func (s *failingSink) Close() error { return nil }

// slowWriter sleeps before every write.
type slowWriter struct {
	delay time.Duration
	mu    sync.Mutex
	buf   bytes.Buffer
}

func (w *slowWriter) Write(p []byte) (int, error) {
	time.Sleep(w.delay)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *slowWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// quietConfig returns the default config with console and file sinks off.
func quietConfig() *Config {
	cfg := DefaultConfig()
	cfg.Console = false
	cfg.File = false
	return cfg
}
