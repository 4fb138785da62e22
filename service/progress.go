package service

import "sync"

// ProgressReporter receives (percentage, phase) events from a running job.
// The orchestrator calls it synchronously from the goroutine executing Run and
// never concurrently; it imposes no ordering on the values.
type ProgressReporter interface {
	Report(percent int, phase string)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(percent int, phase string)

func (f ProgressFunc) Report(percent int, phase string) { f(percent, phase) }

// NopProgress discards every event.
var NopProgress ProgressReporter = ProgressFunc(func(int, string) {})

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// MonotonicProgress forwards events clamped to 0..100 and never lets the
// percentage go backwards. Use it in front of progress displays.
type MonotonicProgress struct {
	mu   sync.Mutex
	next ProgressReporter
	last int
}

func NewMonotonicProgress(next ProgressReporter) *MonotonicProgress {
	return &MonotonicProgress{next: next}
}

func (m *MonotonicProgress) Report(percent int, phase string) {
	m.mu.Lock()
	p := clampPercent(percent)
	if p < m.last {
		p = m.last
	}
	m.last = p
	m.mu.Unlock()
	m.next.Report(p, phase)
}

// scopedProgress maps a stage's own 0..100 onto its slice [from, to] of the job.
type scopedProgress struct {
	next     ProgressReporter
	from, to int
}

func (s scopedProgress) Report(percent int, phase string) {
	p := clampPercent(percent)
	s.next.Report(s.from+(s.to-s.from)*p/100, phase)
}
