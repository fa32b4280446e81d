package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nulllvoid/labordash"
)

var printer = message.NewPrinter(language.English)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			PaddingRight(2)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Right)

	sectionStyle = lipgloss.NewStyle().
			Underline(true).
			MarginTop(1)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)

func formatValue(n labordash.Number, unit string) string {
	if !n.Valid {
		return "n/a"
	}
	switch unit {
	case labordash.UnitDollars:
		return printer.Sprintf("$%.0f", n.Value)
	case labordash.UnitCount:
		return printer.Sprintf("%.0f", n.Value)
	default:
		return printer.Sprintf("%.2f", n.Value)
	}
}

// keyValues renders aligned label/value rows.
func keyValues(labels, values []string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(strings.Join(labels, "\n")),
		valueStyle.Render(strings.Join(values, "\n")),
	)
}

func renderPage(page *labordash.Page) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(page.Title + " (" + page.Request.Occupation + ")"))
	b.WriteString("\n")

	if page.Degraded() {
		b.WriteString(bannerStyle.Render("Data unavailable for: " + strings.Join(page.Unavailable, ", ")))
		b.WriteString("\n")
	}

	if page.Snapshot != nil {
		var labels, values []string
		for _, f := range page.Snapshot.Fields() {
			labels = append(labels, f.Label)
			values = append(values, formatValue(f.Value, f.Unit))
		}
		b.WriteString(boxStyle.Render(keyValues(labels, values)))
		b.WriteString("\n")
	}

	if v := page.View(labordash.ViewWageDistribution); v != nil {
		b.WriteString(sectionStyle.Render(v.Title))
		b.WriteString("\n")
		if v.Empty() {
			b.WriteString("No data available\n")
		} else {
			var labels, values []string
			for _, p := range v.Points {
				labels = append(labels, p.Label)
				values = append(values, formatValue(p.Value, labordash.UnitDollars))
			}
			b.WriteString(keyValues(labels, values))
			b.WriteString("\n")
		}
	}

	if v := page.View(labordash.ViewTopGeographies); v != nil {
		b.WriteString(sectionStyle.Render(v.Title))
		b.WriteString("\n")
		if v.Empty() {
			b.WriteString("No data available\n")
		} else {
			var labels, values []string
			for _, r := range v.Table.Records {
				wage, ok := r.Num(labordash.ColAMedian)
				labels = append(labels, r.Str(labordash.ColAreaTitle))
				values = append(values, formatValue(labordash.Number{Value: wage, Valid: ok}, labordash.UnitDollars))
			}
			b.WriteString(keyValues(labels, values))
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
