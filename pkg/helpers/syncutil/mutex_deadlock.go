//go:build deadlock

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

// Package syncutil wraps the lock types used across the resolver so the
// deadlock detector can be swapped in with -tags=deadlock.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether locks are backed by go-deadlock.
const DeadlockEnabled = true

func init() {
	// hashing a large archive can legitimately hold a worker for a while,
	// but nothing should ever sit on the region table lock this long
	deadlock.Opts.DeadlockTimeout = 15 * time.Second
}

// Mutex reports lock-order inversions and long waits when built with -tags=deadlock.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex reports lock-order inversions and long waits when built with -tags=deadlock.
type RWMutex struct {
	deadlock.RWMutex
}
