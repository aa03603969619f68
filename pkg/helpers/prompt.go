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

package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// YesNoPrompt asks label on out and reads the answer from in. An empty
// answer or a closed input returns def; anything other than y/yes/n/no asks
// again.
func YesNoPrompt(in io.Reader, out io.Writer, label string, def bool) bool {
	choices := "Y/n"
	if !def {
		choices = "y/N"
	}

	r := bufio.NewReader(in)
	for {
		_, _ = fmt.Fprintf(out, "%s [%s] ", label, choices)
		s, err := r.ReadString('\n')
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		case "":
			return def
		}
		if err != nil {
			return def
		}
	}
}
