/*
Zaparoo 1G1R
Copyright (C) 2025 The Zaparoo Project Contributors

This file is part of Zaparoo 1G1R.

Zaparoo 1G1R is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Zaparoo 1G1R is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Zaparoo 1G1R.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package progress reports advisory progress of long running scans. Progress
// output never affects results.
package progress

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// DefaultInterval is how often a Logger reports while running.
const DefaultInterval = 2 * time.Second

// Reporter receives progress events. Step may be called concurrently.
type Reporter interface {
	Start(total int)
	Step(worker int, item string)
	Done()
}

// Nop discards all events.
type Nop struct{}

func (Nop) Start(int) {}

func (Nop) Step(int, string) {}

func (Nop) Done() {}

// Logger writes a periodic progress line to a zerolog logger.
type Logger struct {
	clock    clockwork.Clock
	stop     chan struct{}
	last     *atomic.String
	total    *atomic.Int64
	done     *atomic.Int64
	logger   zerolog.Logger
	label    string
	wg       sync.WaitGroup
	interval time.Duration
}

// NewLogger returns a reporter logging through logger every interval. A nil
// clock uses the real clock.
func NewLogger(logger zerolog.Logger, label string, clock clockwork.Clock, interval time.Duration) *Logger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Logger{
		clock:    clock,
		logger:   logger,
		label:    label,
		interval: interval,
		last:     atomic.NewString(""),
		total:    atomic.NewInt64(0),
		done:     atomic.NewInt64(0),
	}
}

// Start resets the counters and begins periodic reporting.
func (l *Logger) Start(total int) {
	l.total.Store(int64(total))
	l.done.Store(0)
	l.last.Store("")
	l.stop = make(chan struct{})

	ticker := l.clock.NewTicker(l.interval)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-l.stop:
				return
			case <-ticker.Chan():
				l.report("in progress")
			}
		}
	}()
}

// Step records one finished item.
func (l *Logger) Step(worker int, item string) {
	l.done.Inc()
	l.last.Store(item)
	l.logger.Trace().Int("worker", worker).Str("item", item).Msg(l.label)
}

// Done stops periodic reporting and logs the final count.
func (l *Logger) Done() {
	if l.stop != nil {
		close(l.stop)
		l.wg.Wait()
		l.stop = nil
	}
	l.report("finished")
}

// Completed returns the number of items reported so far.
func (l *Logger) Completed() int64 {
	return l.done.Load()
}

func (l *Logger) report(state string) {
	done, total := l.done.Load(), l.total.Load()
	pct := 100.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}
	l.logger.Info().
		Int64("done", done).
		Int64("total", total).
		Float64("percent", math.Round(pct*10)/10).
		Str("last", l.last.Load()).
		Msgf("%s %s", l.label, state)
}
