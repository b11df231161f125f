package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/service/codegen"
)

// recordSummary is the part of a codegen.Result printed when recording ends.
type recordSummary struct {
	ID          string
	Steps       int
	Destination string
	Written     bool
	Inserted    bool
	Crashed     bool
	Duration    time.Duration
}

func printRecordSummary(out io.Writer, res *codegen.Result, took time.Duration) {
	if res == nil {
		return
	}
	printer := pp.New()
	printer.SetOutput(out)
	printer.SetColorScheme(models.GetSummaryColorScheme())
	printer.SetExportedOnly(true)
	_, _ = printer.Println(recordSummary{
		ID:          res.ID,
		Steps:       len(res.Steps),
		Destination: res.Destination,
		Written:     res.Written,
		Inserted:    res.Inserted,
		Crashed:     res.Crashed,
		Duration:    took.Round(time.Millisecond),
	})
	for _, s := range res.Steps {
		fmt.Fprintln(out, "  "+models.HighlightGrayString(s.Text))
	}
}

// inProject resolves p against the project root unless it is absolute.
func inProject(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
