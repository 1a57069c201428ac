package tracker

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/evaluator"
)

// HistoryMarker is the line after which new entries are inserted,
// newest first. Without it entries are appended.
const HistoryMarker = "<!-- New entries will be prepended below this line -->"

const maxFailedListed = 5

// UpdateHistory adds a summary entry for rec to HISTORY.md.
func (t *Tracker) UpdateHistory(rec *Record) error {
	entry := HistoryEntry(rec)
	path := t.HistoryPath()

	var content string
	existing, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		content = "# Evaluation History\n\n" + entry
	case err != nil:
		return errors.Wrap(err, "failed to read history")
	default:
		old := string(existing)
		if before, after, ok := strings.Cut(old, HistoryMarker); ok {
			content = before + HistoryMarker + "\n" + entry + strings.TrimLeft(after, "\n")
		} else {
			content = old + entry
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrap(err, "failed to write history")
	}
	return nil
}

// HistoryEntry renders the markdown entry of one record.
func HistoryEntry(rec *Record) string {
	res := rec.Results
	meta := rec.Metadata
	s := summarize(res.Details)

	dirty := ""
	if meta.GitDirty {
		dirty = " (dirty)"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n## %s UTC\n\n", meta.Timestamp.UTC().Format("2006-01-02 15:04"))
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Commit | `%s`%s |\n", meta.GitCommit, dirty)
	fmt.Fprintf(&sb, "| Branch | `%s` |\n", meta.GitBranch)
	fmt.Fprintf(&sb, "| Model | `%s` |\n", meta.Model)
	fmt.Fprintf(&sb, "| **Pass Rate** | **%.1f%%** |\n", res.PassRate*100)
	fmt.Fprintf(&sb, "| Passed | %d |\n", res.Passed)
	fmt.Fprintf(&sb, "| Failed | %d |\n", res.Failed)
	fmt.Fprintf(&sb, "| Skipped | %d |\n", res.Skipped)
	fmt.Fprintf(&sb, "| Total | %d |\n", res.Total)
	fmt.Fprintf(&sb, "| Skills Invoked | %d/%d |\n", s.invoked, len(res.Details))
	fmt.Fprintf(&sb, "| Avg Turns | %.1f |\n", s.avgTurns())
	fmt.Fprintf(&sb, "| Total Turns | %d |\n", s.turns)
	fmt.Fprintf(&sb, "| Cost | $%.4f |\n", s.cost)
	fmt.Fprintf(&sb, "| Results File | `%s` |\n\n", rec.File)

	var failed []*evaluator.Detail
	for _, d := range res.Details {
		if !d.Passed {
			failed = append(failed, d)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("**Failed Tests:**\n")
		for i, d := range failed {
			if i == maxFailedListed {
				fmt.Fprintf(&sb, "- ... and %d more\n", len(failed)-maxFailedListed)
				break
			}
			name := d.Name
			if name == "" {
				name = d.Skill
			}
			if d.Error != "" {
				fmt.Fprintf(&sb, "- `%s`: %s\n", name, clip(d.Error, 100))
			} else {
				fmt.Fprintf(&sb, "- `%s`\n", name)
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("---\n")
	return sb.String()
}

// stats are the per-record figures shared by history and trends.
type stats struct {
	cost     float64
	invoked  int
	turns    int
	withTurn int
}

func summarize(details []*evaluator.Detail) stats {
	var s stats
	for _, d := range details {
		s.cost += d.CostUSD
		if d.ExpectedSkillInvoked {
			s.invoked++
		}
		if d.TurnsUsed > 0 {
			s.turns += d.TurnsUsed
			s.withTurn++
		}
	}
	return s
}

func (s stats) avgTurns() float64 {
	if s.withTurn == 0 {
		return 0
	}
	return float64(s.turns) / float64(s.withTurn)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
