// Package report renders a recorded conversion batch as a human-readable
// summary, in markdown or HTML.
package report

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/estconvert/internal/store"
)

// Generator renders batch reports from the audit store.
type Generator struct {
	store *store.Store
}

// NewGenerator returns a generator reading from the given store.
func NewGenerator(s *store.Store) *Generator {
	return &Generator{store: s}
}

// Markdown renders the batch as a markdown document with a summary header,
// a result table, and a failure section when any file failed.
func (g *Generator) Markdown(ctx context.Context, batchID string) (string, error) {
	batch, err := g.store.GetBatch(ctx, batchID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Conversion Batch %s\n\n", batch.ID)
	fmt.Fprintf(&b, "- **Date:** %s\n", batch.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Converted:** %d\n", batch.Succeeded)
	fmt.Fprintf(&b, "- **Failed:** %d\n\n", batch.Failed)

	if len(batch.Rows) > 0 {
		b.WriteString("## Results\n\n")
		b.WriteString("| Equipment | Asset | Standard | Class | Test Date | Overall |\n")
		b.WriteString("|-----------|-------|----------|-------|-----------|--------|\n")
		for _, row := range batch.Rows {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				row.EquipmentNumber, row.AssetNumber, row.Standard,
				row.ClassType, row.TestDate, row.OverallPassFail)
		}
		b.WriteString("\n")
	}

	if len(batch.Errors) > 0 {
		b.WriteString("## Failures\n\n")
		for _, be := range batch.Errors {
			fmt.Fprintf(&b, "- `%s`: %s\n", filepath.Base(be.Path), be.Message)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// HTML renders the batch report as a standalone HTML document.
func (g *Generator) HTML(ctx context.Context, batchID string) (string, error) {
	md, err := g.Markdown(ctx, batchID)
	if err != nil {
		return "", err
	}

	converter := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := converter.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	doc.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>Conversion Batch %s</title>\n", batchID)
	doc.WriteString("</head>\n<body>\n")
	doc.Write(buf.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.String(), nil
}
