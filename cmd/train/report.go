package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/drakos74/free-ml/internal/buffer"
	mlmath "github.com/drakos74/free-ml/internal/math"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

func renderTable(header []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}

func renderWeights(w []float64) {
	rows := make([][]string, len(w))
	for j, v := range w {
		rows[j] = []string{fmt.Sprintf("w%d", j), mlmath.Format(v)}
	}
	renderTable([]string{"weight", "value"}, rows)
}

func renderTimings(s buffer.Summary) {
	renderTable([]string{"rounds", "avg (s)", "stdev (s)", "min (s)", "max (s)", "total (s)"}, [][]string{{
		fmt.Sprintf("%d", s.Count),
		fmt.Sprintf("%.4f", s.Avg),
		fmt.Sprintf("%.4f", s.StDev),
		fmt.Sprintf("%.4f", s.Min),
		fmt.Sprintf("%.4f", s.Max),
		fmt.Sprintf("%.4f", s.Sum),
	}})
}

// plot needs at least two points to draw anything useful.
func plot(caption string, values []float64) {
	if len(values) < 2 {
		return
	}
	fmt.Println(asciigraph.Plot(values,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption)))
}

func formatVector(v []float64) string {
	ss := make([]string, len(v))
	for i, f := range v {
		ss[i] = mlmath.Format(f)
	}
	return fmt.Sprintf("[%s]", strings.Join(ss, " "))
}
