package rates

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/pmezard/go-difflib/difflib"
)

// ChangeKind classifies a per-currency difference between two snapshots.
type ChangeKind string

// Change kinds.
const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeMoved   ChangeKind = "changed"
)

// RateChange is one currency whose quote differs between two snapshots.
// Values are units of Code per one unit of the snapshot's base.
type RateChange struct {
	Code string
	Kind ChangeKind
	Old  float64
	New  float64
}

// Percent returns the relative move from Old to New in percent. It is zero
// for added and removed currencies.
func (c RateChange) Percent() float64 {
	if c.Kind != ChangeMoved || c.Old == 0 {
		return 0
	}

	return (c.New - c.Old) / c.Old * 100
}

// DiffResult is the comparison of two snapshots: a unified diff of their
// canonical YAML plus the per-currency changes.
type DiffResult struct {
	Unified        string
	Changes        []RateChange
	HasDifferences bool
	OldLabel       string
	NewLabel       string
}

// DiffOptions configures Diff.
type DiffOptions struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultDiffOptions labels the sides "old" and "new" with three lines of
// context.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		OldLabel: "old",
		NewLabel: "new",
		Context:  3,
	}
}

// Diff compares two snapshots. Metadata changes (date, source) appear only
// in the unified diff; rate changes appear in both.
func Diff(oldSnap, newSnap *Snapshot, opts DiffOptions) (*DiffResult, error) {
	oldDoc, err := oldSnap.Canonical()
	if err != nil {
		return nil, err
	}

	newDoc, err := newSnap.Canonical()
	if err != nil {
		return nil, err
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldDoc),
		B:        difflib.SplitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("computing rate diff: %w", err)
	}

	return &DiffResult{
		Unified:        unified,
		Changes:        rateChanges(oldSnap, newSnap),
		HasDifferences: unified != "",
		OldLabel:       opts.OldLabel,
		NewLabel:       opts.NewLabel,
	}, nil
}

// rateChanges walks the union of both code sets in sorted order.
func rateChanges(oldSnap, newSnap *Snapshot) []RateChange {
	union := make(map[string]struct{})
	for _, c := range append(oldSnap.Codes(), newSnap.Codes()...) {
		union[c] = struct{}{}
	}

	var changes []RateChange

	for _, code := range slices.Sorted(maps.Keys(union)) {
		o, oldErr := oldSnap.Rate(code)
		n, newErr := newSnap.Rate(code)

		switch {
		case oldErr != nil && newErr == nil:
			changes = append(changes, RateChange{Code: code, Kind: ChangeAdded, New: n.Value})
		case oldErr == nil && newErr != nil:
			changes = append(changes, RateChange{Code: code, Kind: ChangeRemoved, Old: o.Value})
		case oldErr == nil && o.Value != n.Value:
			changes = append(changes, RateChange{Code: code, Kind: ChangeMoved, Old: o.Value, New: n.Value})
		}
	}

	return changes
}

const (
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// WriteDiff prints the unified diff followed by a rate change summary.
// With color set, removed lines are red, added lines green and hunk
// headers cyan.
func WriteDiff(w io.Writer, result *DiffResult, color bool) {
	if !result.HasDifferences {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(result.Unified, "\n"), "\n") {
		_, _ = fmt.Fprintln(w, paint(line, diffColor(line), color))
	}

	if len(result.Changes) == 0 {
		return
	}

	_, _ = fmt.Fprintf(w, "\n%d rate(s) changed:\n", len(result.Changes))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, c := range result.Changes {
		switch c.Kind {
		case ChangeAdded:
			_, _ = fmt.Fprintf(tw, "  %s\t\t%g\t%s\n", c.Code, c.New, paint("(added)", ansiGreen, color))
		case ChangeRemoved:
			_, _ = fmt.Fprintf(tw, "  %s\t%g\t\t%s\n", c.Code, c.Old, paint("(removed)", ansiRed, color))
		default:
			code := ansiGreen
			if c.Percent() < 0 {
				code = ansiRed
			}

			_, _ = fmt.Fprintf(tw, "  %s\t%g\t%g\t%s\n", c.Code, c.Old, c.New, paint(fmt.Sprintf("%+.2f%%", c.Percent()), code, color))
		}
	}

	_ = tw.Flush()
}

func diffColor(line string) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return ansiBold
	case strings.HasPrefix(line, "@@"):
		return ansiCyan
	case strings.HasPrefix(line, "-"):
		return ansiRed
	case strings.HasPrefix(line, "+"):
		return ansiGreen
	default:
		return ""
	}
}

func paint(s, code string, color bool) string {
	if !color || code == "" {
		return s
	}

	return code + s + ansiReset
}
