package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/torontotech/meetups/internal/meetup"
	"github.com/torontotech/meetups/internal/scrape"
	"github.com/torontotech/meetups/internal/site"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// summaryOutput is the JSON shape of a run summary
type summaryOutput struct {
	*scrape.Summary
	Counts scrape.Counts `json:"counts"`
}

// WriteSummary writes the result in the specified format
func WriteSummary(w io.Writer, summary *scrape.Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summaryOutput{Summary: summary, Counts: summary.Counts()})
	case FormatText:
		return writeSummaryText(w, summary)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// writeSummaryText prints one line per source followed by the totals
func writeSummaryText(w io.Writer, summary *scrape.Summary) error {
	title := "Scraping Summary"
	if summary.DryRun {
		title += " (Dry Run)"
	}
	fmt.Fprintf(w, "\n%s:\n", title)

	if len(summary.Outcomes) == 0 {
		fmt.Fprintln(w, "No sources processed.")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"", "Source", "Site", "Details"})
	for _, o := range summary.Outcomes {
		t.AppendRow(table.Row{statusMark(o), o.Source, o.Site, details(summary.Scraper, o, summary.DryRun)})
	}

	c := summary.Counts()
	footer := fmt.Sprintf("%d ok, %d failed, %d skipped", c.Succeeded, c.Failed, c.Skipped)
	if summary.Scraper == scrape.ScraperEvents {
		footer += fmt.Sprintf(", %d events", c.Events)
		if c.Rejected > 0 {
			footer += fmt.Sprintf(", %d rejected", c.Rejected)
		}
	}
	t.Render()
	fmt.Fprintf(w, "Total: %s\n", footer)
	return nil
}

func statusMark(o scrape.Outcome) string {
	switch {
	case o.Skipped:
		return "-"
	case o.Success:
		return "✓"
	default:
		return "✗"
	}
}

func details(scraper string, o scrape.Outcome, dryRun bool) string {
	switch {
	case o.Skipped:
		return "Skipped (unknown website)"
	case !o.Success:
		return "Failed: " + o.Error
	case scraper == scrape.ScraperEvents:
		s := fmt.Sprintf("%d events found", o.EventsFound)
		if dryRun {
			s = fmt.Sprintf("(Dry Run) Would update %d events", o.EventsFound)
		}
		if o.Rejected > 0 {
			s += fmt.Sprintf(" (%d rejected)", o.Rejected)
		}
		return s
	case o.Inserted && dryRun:
		return "(Dry Run) Would insert profile"
	case o.Inserted:
		return "Profile inserted"
	case dryRun:
		return "(Dry Run) Would update profile"
	default:
		return "Profile updated"
	}
}

// sourceOutput is one row of the sources listing
type sourceOutput struct {
	meetup.Source
	Site string `json:"site"`
}

// WriteSources lists registry entries with the site each maps to
func WriteSources(w io.Writer, sources []meetup.Source, format OutputFormat) error {
	rows := make([]sourceOutput, 0, len(sources))
	for _, src := range sources {
		rows = append(rows, sourceOutput{Source: src, Site: site.Classify(src.URL).String()})
	}

	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatText:
		t := newTable(w)
		t.AppendHeader(table.Row{"URL", "Platform", "Category", "Site"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.URL, r.Platform, r.Category, r.Site})
		}
		t.Render()
		fmt.Fprintf(w, "Total: %d sources\n", len(rows))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
