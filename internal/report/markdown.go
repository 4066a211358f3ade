package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/threadharvest/internal/model"
)

// topKeywordLimit caps the keyword tables per source.
const topKeywordLimit = 5

// MarkdownWriter renders a run summary as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary implements SummaryWriter.
func (w *MarkdownWriter) WriteSummary(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSources(md, summary)
	w.writeThemes(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.RunSummary) {
	md.H1("threadharvest run")
	md.PlainText("")

	artifact := s.ArtifactPath
	if artifact == "" {
		artifact = "-"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Finished", s.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration().Round(time.Second).String()},
			{"Artifact", "`" + artifact + "`"},
			{"Sources", strconv.Itoa(len(s.Outcomes))},
			{"Posts", strconv.Itoa(s.TotalPosts())},
		},
	})
	md.PlainText("")

	if failed := s.FailedCount(); failed > 0 {
		md.Warningf("%d of %d source(s) failed and are empty in the artifact.", failed, len(s.Outcomes))
	} else {
		md.Tip("All sources were harvested.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSources(md *markdown.Markdown, s *model.RunSummary) {
	md.H2("Sources")
	md.PlainText("")

	if len(s.Outcomes) == 0 {
		md.PlainText("No sources were harvested.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.Outcomes))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Posts per source"),
		piechart.WithShowData(true),
	)
	charted := 0
	for _, o := range s.Outcomes {
		themes := w.themesOf(s, o.Name)
		status := "ok"
		if !o.Succeeded() {
			status = "failed: " + truncateString(o.ErrorMessage(), 60)
		}
		rows = append(rows, []string{
			o.Name,
			string(o.Kind),
			strconv.Itoa(len(o.Posts)),
			strconv.Itoa(len(themes.Frustrations)),
			strconv.Itoa(len(themes.Successes)),
			status,
		})
		if len(o.Posts) > 0 {
			chart.LabelAndIntValue(o.Name, uint64(len(o.Posts)))
			charted++
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Kind", "Posts", "Frustrations", "Successes", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if charted > 1 {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeThemes(md *markdown.Markdown, s *model.RunSummary) {
	md.H2("Top keywords")
	md.PlainText("")

	written := 0
	for _, o := range s.Outcomes {
		themes := w.themesOf(s, o.Name)
		if themes.Total() == 0 {
			continue
		}

		md.H3(o.Name)
		md.PlainText("")
		rows := make([][]string, 0, 2*topKeywordLimit)
		for _, kc := range model.TopKeywords(themes.Frustrations, topKeywordLimit) {
			rows = append(rows, []string{"frustration", kc.Keyword, strconv.Itoa(kc.Count)})
		}
		for _, kc := range model.TopKeywords(themes.Successes, topKeywordLimit) {
			rows = append(rows, []string{"success", kc.Keyword, strconv.Itoa(kc.Count)})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Theme", "Keyword", "Matches"},
			Rows:   rows,
		})
		md.PlainText("")
		written++
	}

	if written == 0 {
		md.PlainText("No keyword matches.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) themesOf(s *model.RunSummary, name string) model.ThemeReport {
	if s.Artifact == nil {
		return model.NewThemeReport()
	}
	data, ok := s.Artifact.Get(name)
	if !ok {
		return model.NewThemeReport()
	}
	return data.Themes
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by threadharvest*")
}

// truncateString truncates a string to maxLen runes with ellipsis and
// flattens line breaks so it fits a table cell.
func truncateString(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
