package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/cbminer/internal/model"
)

const runTimeLayout = "2006-01-02 15:04:05"

// RenderRuns prints stored extraction runs, newest first as given.
func RenderRuns(w io.Writer, runs []model.Run, useColor bool) error {
	lines := []string{heading("Runs", useColor)}
	if len(runs) == 0 {
		lines = append(lines, "No runs recorded.")
		return writeLines(w, lines)
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(runTimeLayout),
			runDuration(run),
			strconv.Itoa(run.Attempts),
			strconv.Itoa(run.Issues),
			run.Dataset,
		})
	}
	cols := []column{
		textCol("ID"), textCol("Started"), numCol("Took"), numCol("Attempts"), numCol("Issues"), textCol("Dataset"),
	}
	lines = append(lines, formatTable(cols, rows, useColor)...)
	return writeLines(w, lines)
}

func runDuration(run model.Run) string {
	if run.FinishedAt == nil {
		return "unfinished"
	}
	took := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)
	return fmt.Sprint(took)
}
