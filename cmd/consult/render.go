package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/fuo-consult-server/internal/domain"
	"github.com/fuo-consult-server/internal/service"
)

// consultMarkdown summarises a consult as Markdown for terminal rendering.
func consultMarkdown(result *service.ConsultResult) string {
	var sb strings.Builder

	sb.WriteString("# FUO Consult\n\n")
	if len(result.Findings) > 0 {
		fmt.Fprintf(&sb, "**Findings:** %s\n\n", strings.Join(result.Findings, ", "))
	}

	sb.WriteString("## Differential\n\n")
	if len(result.Candidates) == 0 {
		fmt.Fprintf(&sb, "_%s_\n\n", service.NoSyndromicPattern)
	}
	for _, c := range result.Candidates {
		fmt.Fprintf(&sb, "%d. **%s** (%s, score %d)", c.Rank, c.Name, strings.ToLower(c.Band), c.Score)
		if c.Forced {
			sb.WriteString(" *forced*")
		}
		sb.WriteString("\n")
		for _, e := range c.Evidence {
			fmt.Fprintf(&sb, "   - %s\n", e)
		}
	}
	if len(result.Candidates) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("## Plan\n\n")
	for _, t := range domain.AllTiers {
		tests := result.Plan.Tests(t)
		if len(tests) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "### %s\n\n", t.Label())
		for _, test := range tests {
			fmt.Fprintf(&sb, "- %s\n", test)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func renderPretty(markdown string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	return out, nil
}
