// Package web renders analysis results as sanitized HTML for the dashboard.
package web

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/scriptlyze/scriptlyze/internal/domain/model"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// RenderAnalysisReport renders one analysis as a self-contained HTML
// fragment. Result text originates from the remote scorer and may carry
// markdown; everything passes through the sanitizer before it reaches the
// page.
func RenderAnalysisReport(result model.AnalysisResult) string {
	var buf strings.Builder

	title := result.Title
	if title == "" {
		title = "Untitled Script"
	}

	buf.WriteString(`<article class="analysis-report">`)
	fmt.Fprintf(&buf, `<h1>%s</h1>`, html.EscapeString(title))
	fmt.Fprintf(&buf, `<p class="report-meta">%d words · %s · analyzed %s</p>`,
		result.WordCount,
		html.EscapeString(result.EstimatedDuration),
		html.EscapeString(result.CreatedAt.UTC().Format("2006-01-02 15:04")),
	)
	fmt.Fprintf(&buf, `<p class="report-score">Overall score <strong>%.1f</strong> / 10 · virality <strong>%s</strong></p>`,
		result.OverallScore,
		html.EscapeString(string(result.ViralityPrediction)),
	)

	if len(result.Scores) > 0 {
		buf.WriteString(`<h2>Category scores</h2><ul class="report-scores">`)
		for _, category := range sortedKeys(result.Scores) {
			fmt.Fprintf(&buf, `<li>%s: %.1f</li>`, html.EscapeString(category), result.Scores[category])
		}
		buf.WriteString(`</ul>`)
	}

	writeStringList(&buf, "Strengths", result.Strengths)
	writeStringList(&buf, "Weaknesses", result.Weaknesses)

	if len(result.Improvements) > 0 {
		buf.WriteString(`<h2>Improvements</h2>`)
		for _, imp := range result.Improvements {
			buf.WriteString(`<section class="report-improvement">`)
			fmt.Fprintf(&buf, `<h3>%s</h3>`, html.EscapeString(imp.Section))
			fmt.Fprintf(&buf, `<p><strong>Issue:</strong> %s</p>`, html.EscapeString(imp.Issue))
			buf.WriteString(`<div class="report-suggestion">`)
			buf.WriteString(RenderMarkdown(imp.Suggestion))
			buf.WriteString(`</div></section>`)
		}
	}

	writeStringList(&buf, "Viral patterns detected", result.ViralPatternsDetected)
	writeStringList(&buf, "Viral patterns missing", result.ViralPatternsMissing)

	if result.EstimatedRetention != "" {
		fmt.Fprintf(&buf, `<p class="report-retention">Estimated retention: %s</p>`,
			html.EscapeString(result.EstimatedRetention))
	}

	buf.WriteString(`</article>`)
	return buf.String()
}

func writeStringList(buf *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}

	fmt.Fprintf(buf, `<h2>%s</h2><ul>`, html.EscapeString(heading))
	for _, item := range items {
		fmt.Fprintf(buf, `<li>%s</li>`, html.EscapeString(item))
	}
	buf.WriteString(`</ul>`)
}

// sortedKeys returns map keys in lexical order so report output is stable.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
