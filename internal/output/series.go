package output

import (
	"fmt"
	"strings"
	"time"
)

// PatchStatus is how a patch appears in a series listing
type PatchStatus int

const (
	StatusApplied PatchStatus = iota
	StatusTop
	StatusUnapplied
	StatusHidden
)

// marker returns the one-character prefix used for a status
func (s PatchStatus) marker() string {
	switch s {
	case StatusTop:
		return ">"
	case StatusApplied:
		return "+"
	case StatusHidden:
		return "!"
	default:
		return "-"
	}
}

// SeriesLine is one patch in a series listing
type SeriesLine struct {
	Name        string
	Status      PatchStatus
	Commit      string
	Description string
	Conflicted  bool
}

// SeriesOptions controls what RenderSeries shows
type SeriesOptions struct {
	ShowCommits     bool
	ShowDescription bool
}

// RenderSeries renders patches bottom to top, one per line
func RenderSeries(lines []SeriesLine, opts SeriesOptions) string {
	width := 0
	for _, l := range lines {
		width = max(width, len(l.Name))
	}

	var b strings.Builder
	for _, l := range lines {
		style := appliedStyle
		switch l.Status {
		case StatusTop:
			style = topStyle
		case StatusUnapplied:
			style = unappliedStyle
		case StatusHidden:
			style = hiddenStyle
		}

		line := l.Status.marker() + " "
		if opts.ShowCommits {
			line += idStyle.Render(ShortID(l.Commit)) + " "
		}
		if opts.ShowDescription {
			line += style.Render(fmt.Sprintf("%-*s", width, l.Name))
			if l.Description != "" {
				line += " # " + l.Description
			}
		} else {
			line += style.Render(l.Name)
		}
		if l.Conflicted {
			line += " " + conflictStyle.Render("(conflicts)")
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// LogLine is one entry of the stack log
type LogLine struct {
	ID    string
	Label string
	When  time.Time
}

// RenderLog renders log entries in the order given, newest first by convention
func RenderLog(entries []LogLine) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s %s\n",
			idStyle.Render(ShortID(e.ID)),
			e.When.Local().Format("2006-01-02 15:04:05"),
			labelStyle.Render(e.Label))
	}
	return b.String()
}

// ShortID abbreviates an object id for display
func ShortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
