package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/routing"
)

// planModel lets the user pick stops from the building list and plans a
// route through them in pick order.
type planModel struct {
	graph   *campus.Graph
	planner *routing.Planner
	table   table.Model
	stops   []string
	route   *routing.Itinerary
	err     error
}

func newPlanModel(g *campus.Graph, planner *routing.Planner) planModel {
	rows := make([]table.Row, 0, g.BuildingCount())
	for _, b := range g.Buildings() {
		rows = append(rows, table.Row{b.ID, b.Name, fmt.Sprint(len(g.EntrancesOf(b.ID)))})
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Code", Width: 10},
			{Title: "Name", Width: 32},
			{Title: "Entrances", Width: 9},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows), 12)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	return planModel{graph: g, planner: planner, table: t}
}

func (m planModel) Init() tea.Cmd { return nil }

func (m planModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if row := m.table.SelectedRow(); row != nil {
				m.stops = append(m.stops, row[0])
				m.route, m.err = nil, nil
			}
			return m, nil
		case "backspace":
			if len(m.stops) > 0 {
				m.stops = m.stops[:len(m.stops)-1]
				m.route, m.err = nil, nil
			}
			return m, nil
		case "c":
			m.stops, m.route, m.err = nil, nil, nil
			return m, nil
		case "r":
			m.route, m.err = m.planner.ComposeRoute(m.graph, m.stops)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m planModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Campus route planner"))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	stops := "none"
	if len(m.stops) > 0 {
		stops = strings.Join(m.stops, " -> ")
	}
	b.WriteString("Stops: " + stops + "\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	case m.route != nil:
		for _, leg := range m.route.Legs {
			fmt.Fprintf(&b, "  %s -> %s  %s\n", leg.FromBuilding, leg.ToBuilding, formatSeconds(leg.TimeS))
		}
		b.WriteString(successStyle.Render("Total "+formatSeconds(m.route.TotalTimeS)) + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render("enter: add stop  backspace: remove  r: route  c: clear  q: quit"))
	return b.String()
}

func runPlanner(in io.Reader, out io.Writer, g *campus.Graph, planner *routing.Planner) error {
	p := tea.NewProgram(newPlanModel(g, planner), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
