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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/cli"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp()
	return status(os.Stderr, app, app.Run(ctx, os.Args[1:]))
}

// status prints the final status line for err and returns the exit code.
func status(w io.Writer, app *cli.App, err error) int {
	switch {
	case err == nil:
		if !app.Finished {
			return 0
		}
		if app.LogPath != "" {
			_, _ = fmt.Fprintf(w, "[SUCCESS] Execution finished. See %s for details.\n", app.LogPath)
		} else {
			_, _ = fmt.Fprintln(w, "[SUCCESS] Execution finished.")
		}
		return 0
	case errors.Is(err, context.Canceled):
		_, _ = fmt.Fprintln(w, "[ERROR] Execution interrupted. Cleaning up and exiting.")
		return 130
	case reported(err):
		return 1
	default:
		_, _ = fmt.Fprintf(w, "[ERROR] %v\n", err)
		return 1
	}
}

// reported is true for errors Run has already printed.
func reported(err error) bool {
	var verr *config.Error
	return errors.Is(err, cli.ErrUsage) || errors.As(err, &verr)
}
