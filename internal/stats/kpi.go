package stats

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// KPI is one headline card.
type KPI struct {
	Title       string
	Value       string
	Description string
}

// KPIs formats the headline cards of the analytics page with English
// number grouping.
func KPIs(s Summary) []KPI {
	return KPIsFor(s, message.NewPrinter(language.English))
}

// KPIsFor formats the headline cards with p.
func KPIsFor(s Summary, p *message.Printer) []KPI {
	rating := "N/A"
	if s.AverageRating > 0 {
		rating = p.Sprintf("%.1f", s.AverageRating)
	}

	revenue := "$0"
	if s.TotalRevenue > 0 {
		revenue = "$" + formatNumber(p, s.TotalRevenue)
	}

	return []KPI{
		{
			Title:       "Total Interactions",
			Value:       formatNumber(p, s.TotalInteractions),
			Description: "Guest interactions across all channels",
		},
		{
			Title:       "Active Tickets",
			Value:       p.Sprintf("%d", s.ActiveTickets),
			Description: "Open and in-progress tickets",
		},
		{
			Title:       "Average Rating",
			Value:       rating,
			Description: "From guest reviews",
		},
		{
			Title:       "Current Occupancy",
			Value:       p.Sprintf("%d/%d", s.CurrentOccupancy, s.TotalRooms),
			Description: p.Sprintf("Occupied rooms out of %d total", s.TotalRooms),
		},
		{
			Title:       "Total Revenue",
			Value:       revenue,
			Description: "From bookings",
		},
		{
			Title:       "Menu Items",
			Value:       p.Sprintf("%d", s.MenuItems),
			Description: "Available menu items",
		},
		{
			Title:       "Guest Satisfaction",
			Value:       p.Sprintf("%.1f%%", s.GuestSatisfaction),
			Description: "Average across analytics rows",
		},
		{
			Title:       "Avg Resolution Time",
			Value:       p.Sprintf("%.1fh", s.AvgResolutionHours),
			Description: "Time to resolve guest requests",
		},
	}
}

// formatNumber groups thousands and shows up to two decimals, dropping
// them for whole numbers.
func formatNumber(p *message.Printer, v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return p.Sprintf("%d", int64(v))
	}
	return p.Sprintf("%.2f", v)
}
