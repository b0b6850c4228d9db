package diagfmt

import (
	"fmt"
	"io"
	"slices"

	"github.com/mattn/go-runewidth"

	"splice/internal/diag"
)

// SummaryRow counts the diagnostics of one code.
type SummaryRow struct {
	Code  diag.Code
	Title string
	Count int
}

// Summarize groups the bag by code, ordered by code.
func Summarize(bag *diag.Bag) []SummaryRow {
	counts := make(map[diag.Code]int)
	for _, d := range bag.Items() {
		counts[d.Code]++
	}
	rows := make([]SummaryRow, 0, len(counts))
	for code, n := range counts {
		rows = append(rows, SummaryRow{Code: code, Title: code.Title(), Count: n})
	}
	slices.SortFunc(rows, func(a, b SummaryRow) int { return int(a.Code) - int(b.Code) })
	return rows
}

// Summary writes one aligned line per code followed by the total.
func Summary(w io.Writer, bag *diag.Bag) error {
	rows := Summarize(bag)
	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.Title))
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-8s %s %4d\n", r.Code.ID(), runewidth.FillRight(r.Title, width), r.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d diagnostics\n", bag.Len())
	return err
}
