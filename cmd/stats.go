package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/concierge/internal/config"
	"github.com/lepinkainen/concierge/internal/sheets"
	"github.com/lepinkainen/concierge/internal/stats"
)

// StatsCmd represents the stats command
type StatsCmd struct {
	Rooms int    `help:"Total number of rooms for occupancy (defaults to stats.rooms in config)"`
	Date  string `help:"Day to compute occupancy for, as YYYY-MM-DD (defaults to today)"`
	JSON  bool   `help:"Print the summary as JSON"`
}

var (
	kpiTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110"))
	kpiValueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
)

func (s *StatsCmd) Run() error {
	today := now()
	if s.Date != "" {
		parsed, err := time.Parse("2006-01-02", s.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s.Date)
		}
		today = parsed
	}
	rooms := s.Rooms
	if rooms <= 0 {
		rooms = config.RoomCount
	}

	return withClient("", func(_ context.Context, c *sheets.Client) error {
		summary := stats.Summarize(c.AllData(), stats.Options{Rooms: rooms, Today: today})
		if s.JSON {
			return printJSON(summary)
		}
		_, err := fmt.Fprintln(stdout, renderSummary(summary))
		return err
	})
}

func renderSummary(summary stats.Summary) string {
	var b strings.Builder

	for _, kpi := range stats.KPIs(summary) {
		fmt.Fprintf(&b, "%s %s\n  %s\n",
			kpiTitleStyle.Render(kpi.Title+":"),
			kpiValueStyle.Render(kpi.Value),
			kpi.Description)
	}

	if len(summary.TicketStatus) > 0 {
		b.WriteString(sectionStyle.Render("Tickets by status") + "\n")
		statuses := make([]string, 0, len(summary.TicketStatus))
		for status := range summary.TicketStatus {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			fmt.Fprintf(&b, "  %-12s %d\n", status, summary.TicketStatus[status])
		}
	}

	if len(summary.GuestNeeds) > 0 {
		b.WriteString(sectionStyle.Render("Guest needs") + "\n")
		for _, need := range summary.GuestNeeds {
			fmt.Fprintf(&b, "  %-12s %3d%%  %d\n", need.Category, need.Percentage, need.Count)
		}
	}

	r := summary.Rooms
	b.WriteString(sectionStyle.Render("Rooms") + "\n")
	fmt.Fprintf(&b, "  available %d | occupied %d | maintenance %d | cleaning %d\n",
		r.Available, r.Occupied, r.Maintenance, r.Cleaning)
	fmt.Fprintf(&b, "  reviews: %d open, %d positive | sessions: %.0f | intents: %.0f",
		summary.OpenReviews, summary.PositiveReviews, summary.UniqueSessions, summary.IntentsTriggered)

	return b.String()
}
