// Package output renders scan results for terminal display: a styled
// human-readable report by default, or the raw manifest document as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jamesainslie/mde/pkg/mde/manifest"
	"github.com/jamesainslie/mde/pkg/mde/types"
)

// Result is everything the scan command hands a formatter.
type Result struct {
	// Root is the scanned directory.
	Root string

	// Report is the detection outcome.
	Report *types.Report

	// ManifestPath is where the manifest was written; empty when no
	// duplicates were found and none was written.
	ManifestPath string

	// Elapsed is the total scan duration.
	Elapsed time.Duration

	// WalkErrors is the number of traversal failures.
	WalkErrors int
}

// RenderPretty writes the styled report.
func RenderPretty(w io.Writer, r *Result) {
	fmt.Fprintln(w, r.formatHeader())

	if len(r.Report.Groups) > 0 {
		fmt.Fprintln(w, r.formatTable())
	}

	fmt.Fprintln(w, r.formatFooter())
}

// RenderJSON writes the manifest document as indented JSON. It is the
// machine-readable twin of RenderPretty and matches the persisted
// manifest byte for byte in structure.
func RenderJSON(w io.Writer, doc *manifest.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// formatHeader builds the header box with scan metadata.
func (r *Result) formatHeader() string {
	lines := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Scanned:"), ValueStyle.Render(r.Root)),
		fmt.Sprintf("%s %s in %s",
			LabelStyle.Render("Files:"),
			ValueStyle.Render(fmt.Sprintf("%d", r.Report.TotalFiles)),
			ValueStyle.Render(r.Elapsed.Round(time.Millisecond).String())),
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatTable renders one row per duplicate group.
func (r *Result) formatTable() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Type", "Original (kept)", "Duplicates", "Reclaimable"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for i := range r.Report.Groups {
		group := &r.Report.Groups[i]
		tw.AppendRow(table.Row{
			string(group.Type),
			group.Files[0],
			group.DuplicateCount(),
			types.FormatSize(group.WastedBytes),
		})
	}

	return tw.Render()
}

// formatFooter builds the summary box.
func (r *Result) formatFooter() string {
	var lines []string

	if len(r.Report.Groups) == 0 {
		lines = append(lines, SuccessStyle.Render("No duplicates found"))
	} else {
		lines = append(lines, fmt.Sprintf("%s %s in %s, %s reclaimable",
			LabelStyle.Render("Duplicates:"),
			ValueStyle.Render(fmt.Sprintf("%d", r.Report.DuplicateCount())),
			ValueStyle.Render(fmt.Sprintf("%d groups", len(r.Report.Groups))),
			ValueStyle.Render(types.FormatSize(r.Report.WastedBytes()))))
	}

	if r.ManifestPath != "" {
		lines = append(lines, fmt.Sprintf("%s %s",
			LabelStyle.Render("Manifest:"), ValueStyle.Render(r.ManifestPath)))
	}

	if errs := r.Report.Errors + r.WalkErrors; errs > 0 {
		lines = append(lines, WarningStyle.Render(
			fmt.Sprintf("%d files could not be processed", errs)))
	}

	return FooterBox.Render(strings.Join(lines, "\n"))
}
