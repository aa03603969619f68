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

package resolver

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/hasher"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/transfer"
	"github.com/rs/zerolog/log"
)

type Result struct {
	Resolved    int
	Failed      int
	Skipped     int
	Transferred int
	// Errors counts transfers that failed or did not verify.
	Errors int
}

type ApplyOptions struct {
	Transferer *transfer.Transferer
	// Verify re-hashes every transferred file and compares it with the
	// source.
	Verify bool
}

// Apply performs the transfers of plan. Failed transfers are logged and
// counted; the run continues.
func (r *Resolver) Apply(ctx context.Context, plan *Plan, opts ApplyOptions) (Result, error) {
	res := Result{
		Resolved: len(plan.Selections),
		Failed:   len(plan.Failed),
		Skipped:  len(plan.Stopped) + len(plan.Empty),
	}
	if opts.Transferer == nil {
		return res, nil
	}

	for _, sel := range plan.Selections {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("transfer interrupted: %w", err)
		}

		for _, it := range sel.Items {
			if it.Destination == "" {
				continue
			}
			if r.transferItem(it, opts) {
				res.Transferred++
			} else {
				res.Errors++
			}
		}

		if sel.Dir != "" && sel.DirDestination != "" {
			if err := opts.Transferer.CopyStat(sel.Dir, sel.DirDestination); err != nil {
				log.Warn().Err(err).Str("dir", sel.DirDestination).Msg("failed to copy directory metadata")
			}
		}
	}
	return res, nil
}

func (r *Resolver) transferItem(it Item, opts ApplyOptions) bool {
	var want *hasher.FileHash
	if opts.Verify {
		h, err := hasher.ComputeFileHashes(r.Fs, it.Source)
		if err != nil {
			log.Error().Err(err).Str("file", it.Source).Msg("failed to hash file before transfer")
			return false
		}
		want = h
	}

	if err := opts.Transferer.Transfer(it.Source, it.Destination); err != nil {
		log.Error().Err(err).Str("file", it.Source).Msg("error while transferring file")
		return false
	}

	if want != nil {
		ok, err := hasher.ValidateHashes(r.Fs, it.Destination, want)
		if err != nil {
			log.Error().Err(err).Str("file", it.Destination).Msg("failed to verify transferred file")
			return false
		}
		if !ok {
			log.Error().Str("file", it.Destination).Msg("transferred file does not match source")
			return false
		}
	}
	return true
}
