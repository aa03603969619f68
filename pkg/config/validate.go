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

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/regions"
	"github.com/go-playground/validator/v10"
	"github.com/hbollon/go-edlib"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report settings by their profile key
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

type conflict struct {
	bad   func(v *Values) bool
	field string
	msg   string
}

var conflicts = []conflict{
	{
		field: "extension",
		msg:   "scanning does not support extensions",
		bad:   func(v *Values) bool { return v.Scan.Extension != "" && v.UseHashes() },
	},
	{
		field: "early_revisions",
		msg:   "early-revisions and early-versions are mutually exclusive with input-order",
		bad: func(v *Values) bool {
			return (v.Selection.EarlyRevisions || v.Selection.EarlyVersions) && v.Selection.InputOrder
		},
	},
	{
		field: "early_revisions",
		msg:   "early-revisions and early-versions are mutually exclusive with prefer-parents",
		bad: func(v *Values) bool {
			return (v.Selection.EarlyRevisions || v.Selection.EarlyVersions) && v.Selection.PreferParents
		},
	},
	{
		field: "prefer_parents",
		msg:   "prefer-parents is mutually exclusive with input-order",
		bad:   func(v *Values) bool { return v.Selection.PreferParents && v.Selection.InputOrder },
	},
	{
		field: "output_dir",
		msg:   "output-dir requires an input-dir",
		bad:   func(v *Values) bool { return v.Output.Dir != "" && v.Scan.InputDir == "" },
	},
	{
		field: "output_dir",
		msg:   "output-dir must differ from input-dir",
		bad: func(v *Values) bool {
			return v.Output.Dir != "" && v.Scan.InputDir != "" &&
				filepath.Clean(v.Output.Dir) == filepath.Clean(v.Scan.InputDir)
		},
	},
	{
		field: "ignore_case",
		msg:   "ignore-case only works if there's a prefer, avoid or exclude list too",
		bad:   func(v *Values) bool { return v.Lists.IgnoreCase && !v.HasLists() },
	},
	{
		field: "regex",
		msg:   "regex only works if there's a prefer, avoid or exclude list too",
		bad:   func(v *Values) bool { return v.Lists.Regex && !v.HasLists() },
	},
	{
		field: "all_regions",
		msg:   "all-regions is mutually exclusive with all-regions-with-lang",
		bad:   func(v *Values) bool { return v.Selection.AllRegions && v.Selection.AllRegionsWithLang },
	},
	{
		field: "group_by_first_letter",
		msg:   "group-by-first-letter requires an output directory",
		bad:   func(v *Values) bool { return v.Output.GroupByFirstLetter && v.Output.Dir == "" },
	},
	{
		field: "move",
		msg:   "move is mutually exclusive with symlink",
		bad:   func(v *Values) bool { return v.Output.Move && v.Output.Symlink },
	},
	{
		field: "relative",
		msg:   "relative only works with symlink",
		bad:   func(v *Values) bool { return v.Output.Relative && !v.Output.Symlink },
	},
	{
		field: "verify",
		msg:   "verify requires an output directory",
		bad:   func(v *Values) bool { return v.Output.Verify && v.Output.Dir == "" },
	},
}

// Validate checks ranges and conflicting settings. The returned error is
// an *Error holding every problem found.
func (v *Values) Validate() error {
	verr := &Error{}

	if err := validate.Struct(v); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return fmt.Errorf("validation failed: %w", err)
		}
		verr.addValidation(ves)
	}

	for _, c := range conflicts {
		if c.bad(v) {
			verr.add(c.field, "conflict", c.msg)
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// UnknownRegions returns a warning for every selected region code the
// table does not know, suggesting the closest known code. Unknown codes
// are not errors since catalogs may introduce their own.
func (v *Values) UnknownRegions(table *regions.Table) []string {
	known := table.Codes()
	var warnings []string
	for _, code := range v.Regions {
		if slices.Contains(known, code) {
			continue
		}
		msg := fmt.Sprintf("unknown region code %q", code)
		if s, ok := SuggestRegion(code, known); ok {
			msg += fmt.Sprintf(", did you mean %q?", s)
		}
		warnings = append(warnings, msg)
	}
	return warnings
}

// maxSuggestDistance is the largest edit distance still worth suggesting.
const maxSuggestDistance = 2

// SuggestRegion returns the known code closest to code. Ties go to the
// code listed first.
func SuggestRegion(code string, known []string) (string, bool) {
	code = strings.ToUpper(code)
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range known {
		if d := edlib.DamerauLevenshteinDistance(code, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, best != ""
}
