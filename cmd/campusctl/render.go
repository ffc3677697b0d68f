package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/constraints"
	"github.com/dd0wney/campusnav/pkg/routing"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	labelStyle = lipgloss.NewStyle().
			Width(16).
			Foreground(lipgloss.Color("#888888"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)
)

// staticTable renders rows as a non-interactive table sized to fit them
func staticTable(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	t.SetHeight(len(rows) + lipgloss.Height(s.Header.Render("x")))
	return t.View()
}

func severityStyle(s constraints.Severity) lipgloss.Style {
	switch s {
	case constraints.Error:
		return errorStyle
	case constraints.Warning:
		return warningStyle
	default:
		return mutedStyle
	}
}

// violationSubject names the element a violation is about
func violationSubject(v constraints.Violation) string {
	switch {
	case v.EdgeID != "":
		return "edge " + v.EdgeID
	case v.NodeID != "":
		return "node " + v.NodeID
	case v.BuildingID != "":
		return "building " + v.BuildingID
	default:
		return "-"
	}
}

func renderValidation(w io.Writer, location string, result *constraints.ValidationResult) {
	errs, warnings := result.Errors(), result.Warnings()
	info := result.GetViolationsBySeverity(constraints.Info)

	fmt.Fprintln(w, titleStyle.Render("Validation: "+location))
	if len(result.Violations) > 0 {
		rows := make([]table.Row, 0, len(result.Violations))
		for _, v := range result.Violations {
			rows = append(rows, table.Row{v.Severity.String(), v.Constraint, violationSubject(v), v.Message})
		}
		fmt.Fprintln(w, staticTable([]table.Column{
			{Title: "Severity", Width: 8},
			{Title: "Constraint", Width: 22},
			{Title: "Subject", Width: 18},
			{Title: "Message", Width: 60},
		}, rows))
	}

	summary := fmt.Sprintf("%d errors, %d warnings, %d info", len(errs), len(warnings), len(info))
	switch {
	case len(errs) > 0:
		fmt.Fprintln(w, severityStyle(constraints.Error).Render("INVALID: "+summary))
	case len(warnings) > 0:
		fmt.Fprintln(w, severityStyle(constraints.Warning).Render("VALID with warnings: "+summary))
	default:
		fmt.Fprintln(w, successStyle.Render("VALID: "+summary))
	}
}

func buildingName(g *campus.Graph, id string) string {
	if b, ok := g.Building(id); ok && b.Name != "" && b.Name != id {
		return b.Name + " (" + id + ")"
	}
	return id
}

func formatSeconds(s float64) string {
	if s < 60 {
		return strconv.FormatFloat(s, 'f', 1, 64) + " s"
	}
	m := int(s) / 60
	return fmt.Sprintf("%d min %.0f s", m, s-float64(m*60))
}

func renderItinerary(w io.Writer, g *campus.Graph, it *routing.Itinerary) {
	rows := make([]table.Row, 0, len(it.Legs))
	for i, leg := range it.Legs {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			buildingName(g, leg.FromBuilding),
			buildingName(g, leg.ToBuilding),
			formatSeconds(leg.TimeS),
			strconv.Itoa(len(leg.Path)),
		})
	}
	fmt.Fprintln(w, staticTable([]table.Column{
		{Title: "#", Width: 3},
		{Title: "From", Width: 28},
		{Title: "To", Width: 28},
		{Title: "Time", Width: 12},
		{Title: "Nodes", Width: 6},
	}, rows))
	fmt.Fprintf(w, "total %.1f s (%s)\n", it.TotalTimeS, formatSeconds(it.TotalTimeS))
}

func renderStats(w io.Writer, snap *snapshot.Snapshot) {
	g := snap.Graph
	settings := g.Settings()

	entrances := 0
	for _, b := range g.Buildings() {
		entrances += len(g.EntrancesOf(b.ID))
	}

	lines := []struct{ label, value string }{
		{"source", snap.Source},
		{"fingerprint", snap.Fingerprint},
		{"size", fmt.Sprintf("%d bytes", snap.SizeBytes)},
		{"nodes", strconv.Itoa(g.NodeCount())},
		{"edges", strconv.Itoa(g.EdgeCount())},
		{"blocked edges", strconv.Itoa(snap.BlockedEdgeCount())},
		{"buildings", strconv.Itoa(g.BuildingCount())},
		{"entrances", strconv.Itoa(entrances)},
		{"px_per_meter", strconv.FormatFloat(settings.PxPerMeter, 'f', -1, 64)},
		{"walking speed", strconv.FormatFloat(settings.WalkingSpeedMPS, 'f', -1, 64) + " m/s"},
	}
	if v := snap.Validation; v != nil {
		lines = append(lines, struct{ label, value string }{
			"validation", fmt.Sprintf("%d errors, %d warnings", len(v.Errors()), len(v.Warnings())),
		})
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(labelStyle.Render(l.label) + l.value)
	}
	fmt.Fprintln(w, boxStyle.Render(b.String()))
}
