// Package diag renders synthesis results for operator-facing output, as
// fixed-width github.com/dekarrin/rosed tables for console display.
package diag

import (
	"sort"
	"strconv"

	"github.com/dekarrin/rosed"

	"github.com/corvidlab/psmsynth/internal/psm"
)

const tableWidth = 80

// Report renders a synthesis Result as a fixed-width table: one row per DPA
// state, the decoded invariant, and each lexicographic PSM component in
// priority-rank order.
func Report(res *psm.Result) string {
	states := make([]int64, 0, len(res.PSM))
	for q := range res.PSM {
		states = append(states, q)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })

	header := []string{"q", "I^q"}
	for i := range res.PriorityLevels {
		header = append(header, rankHeader(i))
	}
	data := [][]string{header}

	for _, q := range states {
		row := []string{strconv.FormatInt(q, 10), res.Invariant[q].String()}
		for _, v := range res.PSM[q] {
			row = append(row, v.String())
		}
		data = append(data, row)
	}

	opts := rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}
	return rosed.Edit("").InsertTableOpts(0, data, tableWidth, opts).String()
}

func rankHeader(i int) string {
	return "V_" + strconv.Itoa(i) + "^q"
}
