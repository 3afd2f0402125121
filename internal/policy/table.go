// Package policy holds the precomputed state->action score table the decision
// engine indexes. The table is loaded once at startup and never mutated, so
// concurrent lookups need no synchronization.
package policy

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wlhuang/riskgate/params"
)

type Action int

const (
	ActionAccept Action = iota
	ActionMFA
	ActionReject
)

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "ACCEPT"
	case ActionMFA:
		return "MFA"
	case ActionReject:
		return "REJECT"
	}
	return "NONE"
}

// Table maps each of the 72 discretized states to one score per action.
type Table struct {
	scores [params.PolicyStateCount][params.PolicyActionCount]float64
}

// Index flattens the 5-dimensional state. Layout:
// accountRisk*24 + userPresent*12 + userVerified*6 + hasUnknownExt*3 + signCountRisk.
func Index(accountRisk int, userPresent, userVerified, hasUnknownExt bool, signCountRisk int) int {
	idx := accountRisk * 24
	if userPresent {
		idx += 12
	}
	if userVerified {
		idx += 6
	}
	if hasUnknownExt {
		idx += 3
	}
	return idx + signCountRisk
}

// BestAction selects the action with the highest score for the given state.
// The scan is sequential and strict: a later action only wins by strictly
// exceeding the best score seen so far, so ties resolve to the lowest action.
// This ordering is part of the observable contract and must not be replaced
// with an arbitrary-tie max.
func (t *Table) BestAction(accountRisk int, userPresent, userVerified, hasUnknownExt bool, signCountRisk int) Action {
	row := t.scores[Index(accountRisk, userPresent, userVerified, hasUnknownExt, signCountRisk)]
	best, act := row[0], ActionAccept
	if row[1] > best {
		best, act = row[1], ActionMFA
	}
	if row[2] > best {
		act = ActionReject
	}
	return act
}

// Scores returns the score row for a flat state index.
func (t *Table) Scores(idx int) [params.PolicyActionCount]float64 {
	return t.scores[idx]
}

// Parse validates and decodes raw table content: exactly 72 non-blank lines of
// exactly 3 comma-separated numeric cells.
func Parse(data string) (*Table, error) {
	var rows []string
	for _, line := range strings.Split(data, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) != params.PolicyStateCount {
		return nil, fmt.Errorf("policy table must have %d rows, got %d", params.PolicyStateCount, len(rows))
	}

	var table Table
	for i, row := range rows {
		cells := strings.Split(row, ",")
		if len(cells) != params.PolicyActionCount {
			return nil, fmt.Errorf("policy table row %d must have %d cells, got %d", i+1, params.PolicyActionCount, len(cells))
		}
		for j, cell := range cells {
			score, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("policy table row %d cell %d: %w", i+1, j+1, err)
			}
			table.scores[i][j] = score
		}
	}
	return &table, nil
}

// Load reads and parses the table file. Callers must treat any error as fatal:
// the process has no valid decision policy without it.
func Load(filename string) (*Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read policy table: %w", err)
	}
	return Parse(string(data))
}
