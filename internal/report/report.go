// Package report renders a human-readable summary of a finished batch.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"sheetwise/domain/batch"
)

// Markdown builds the batch summary document.
func Markdown(job *batch.BatchJob) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Upload report: %s\n\n", job.Filename)
	fmt.Fprintf(&b, "Batch `%s` — %d sheet(s): %d succeeded, %d failed, %d skipped.\n\n",
		job.ID, job.TotalProcessed, job.SuccessCount, job.FailedCount, job.SkippedCount)

	b.WriteString("| # | Sheet | State | Upload | Error |\n")
	b.WriteString("|---|-------|-------|--------|-------|\n")
	for _, t := range job.Tasks {
		upload := string(t.UploadID)
		if upload == "" {
			upload = "—"
		}
		errMsg := t.ErrorMessage
		if errMsg == "" {
			errMsg = "—"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			t.SheetIndex, escapePipes(t.SheetName), t.State, upload, escapePipes(errMsg))
	}
	b.WriteString("\n")

	if job.FailedCount > 0 {
		b.WriteString("Failed sheets can be retried individually while the stored workbook bytes remain available.\n")
	}
	return b.String()
}

// HTML renders the markdown summary for the report endpoint
func HTML(job *batch.BatchJob) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(Markdown(job)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
