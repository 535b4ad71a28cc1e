package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/billow-vn/idapm/internal/app"
	"github.com/billow-vn/idapm/internal/domain/acquire"
	"github.com/billow-vn/idapm/internal/domain/projector"
)

// printAttempts shows each git invocation and the output git produced.
func printAttempts(w io.Writer, res *app.InstallResult) {
	if res == nil {
		return
	}
	for _, a := range res.Attempts {
		if a.Outcome == acquire.AlreadyPresent {
			fmt.Fprintf(w, "%s\n", mutedStyle.Render("Already cloned: "+a.Path))
			if a.ForeignOrigin() {
				fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%s is a clone of %s, not %s", a.Path, a.RemoteURL, a.URL)))
			}
			continue
		}
		fmt.Fprintf(w, "Try: git clone %s\n", a.URL)
		for _, line := range nonEmptyLines(a.Stdout + a.Stderr) {
			fmt.Fprintf(w, "  %s\n", mutedStyle.Render(line))
		}
	}
}

// printReport shows what happened to every projected entry.
func printReport(w io.Writer, report *projector.Report) {
	if report == nil {
		return
	}
	verb := "Copy"
	if report.Mode == projector.Symlink {
		verb = "Symlink"
	}
	for _, e := range report.Entries {
		switch e.Status {
		case projector.Created:
			fmt.Fprintf(w, "%s %s -> %s\n", verb, e.Source, e.Dest)
		case projector.Skipped:
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("File %s already exists", e.Dest)))
		case projector.Failed:
			fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Failed %s: %v", e.Dest, e.Err)))
		}
	}
	if len(report.Entries) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No scripts found in "+report.Source))
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
