// Package stats derives the dashboard analytics from a snapshot of every
// sheet.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/lepinkainen/concierge/internal/record"
)

// DefaultRooms is the room total used for occupancy when none is configured.
const DefaultRooms = 14

const defaultGuestNeeds = "Food: 40%, Room: 35%, Service: 15%, Other: 10%"

// Sheet names the analytics read from.
const (
	sheetAnalytics    = "Analytics_Dashboard"
	sheetTickets      = "ticket_management"
	sheetReviews      = "review_managment"
	sheetBookings     = "Booking_Info"
	sheetMenu         = "Menu_Manager"
	sheetInteractions = "guest_interaction_log"
	sheetRoomChart    = "room_chart"
)

// Options tune Summarize.
type Options struct {
	// Rooms is the number of rooms occupancy is measured against.
	Rooms int
	// Today is the day occupancy is computed for.
	Today time.Time
}

// NeedShare is one category of the guest needs breakdown.
type NeedShare struct {
	Category   string
	Percentage int
	Count      int
}

// RoomStatus counts rooms in the room chart by state.
type RoomStatus struct {
	Available   int
	Occupied    int
	Maintenance int
	Cleaning    int
}

// Summary holds the figures shown on the analytics page.
type Summary struct {
	TotalInteractions  float64
	ActiveTickets      int
	TicketStatus       map[string]int
	AverageRating      float64
	OpenReviews        int
	PositiveReviews    int
	TotalRevenue       float64
	CurrentOccupancy   int
	TotalRooms         int
	GuestSatisfaction  float64
	AvgResolutionHours float64
	UniqueSessions     float64
	IntentsTriggered   float64
	GuestNeeds         []NeedShare
	MenuItems          int
	Rooms              RoomStatus
}

// Summarize computes the analytics summary. Missing sheets count as empty.
func Summarize(snap record.Snapshot, opts Options) Summary {
	if opts.Rooms <= 0 {
		opts.Rooms = DefaultRooms
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}

	analytics := snap[sheetAnalytics]
	s := Summary{
		TicketStatus: make(map[string]int),
		TotalRooms:   opts.Rooms,
		MenuItems:    len(snap[sheetMenu]),
	}

	if len(analytics) > 0 {
		for _, row := range analytics {
			s.TotalInteractions += ToNumber(firstPresent(row, "Total Interactions", "Total_Interactions", "Interactions"))
			s.UniqueSessions += ToNumber(firstPresent(row, "Unique Sessions", "Unique_Sessions"))
			s.IntentsTriggered += ToNumber(firstPresent(row, "Intents Triggered", "Intents"))
		}
		s.GuestSatisfaction = meanPositive(analytics, func(row *record.Record) float64 {
			return ParsePercent(firstPresent(row, "Guest Satisfaction %", "Guest Satisfaction", "Satisfaction %"))
		})
		s.AvgResolutionHours = meanPositive(analytics, func(row *record.Record) float64 {
			return ParseDurationHours(firstPresent(row, "Average Resolution Time", "Avg Resolution Time", "Avg_Resolution_Time"))
		})
	} else {
		s.TotalInteractions = float64(len(snap[sheetInteractions]))
	}

	for _, t := range snap[sheetTickets] {
		status := t.String("Status")
		if status != "" {
			s.TicketStatus[status]++
		}
		if status == "Open" || status == "In Progress" {
			s.ActiveTickets++
		}
	}

	reviews := snap[sheetReviews]
	s.AverageRating = meanPositive(reviews, func(row *record.Record) float64 {
		return ToNumber(firstPresent(row, "Rating"))
	})
	for _, r := range reviews {
		if r.String("Status") == "Open" {
			s.OpenReviews++
		}
		if r.String("Sentiment") == "Positive" {
			s.PositiveReviews++
		}
	}

	today := opts.Today.Format("2006-01-02")
	for _, b := range snap[sheetBookings] {
		s.TotalRevenue += ToNumber(firstSet(b, "Revenue", "Total Amount", "Amount"))
		if isCurrentStay(b.String("Check-In"), b.String("Check-Out"), today) {
			s.CurrentOccupancy++
		}
	}

	for _, room := range snap[sheetRoomChart] {
		switch room.String("Status") {
		case "Available", "Ready":
			s.Rooms.Available++
		case "Occupied":
			s.Rooms.Occupied++
		case "Maintenance", "Under Maintenance":
			s.Rooms.Maintenance++
		case "Cleaning", "To be Cleaned":
			s.Rooms.Cleaning++
		}
	}

	needs := defaultGuestNeeds
	if len(analytics) > 0 {
		if v := analytics[len(analytics)-1].String("Guest Needs Breakdown"); v != "" {
			needs = v
		}
	}
	s.GuestNeeds = ParseGuestNeeds(needs, s.TotalInteractions)

	return s
}

// isCurrentStay compares ISO dates as text, so it only holds for
// YYYY-MM-DD cells.
func isCurrentStay(checkIn, checkOut, today string) bool {
	if checkIn == "" || checkOut == "" {
		return false
	}
	return checkIn <= today && checkOut >= today
}

// ParseGuestNeeds reads "Food: 40%, Room: 35%" into shares of total.
// Categories whose scaled count rounds to zero are dropped.
func ParseGuestNeeds(breakdown string, total float64) []NeedShare {
	var shares []NeedShare
	for _, item := range strings.Split(breakdown, ",") {
		category, pct, _ := strings.Cut(item, ":")
		category = strings.TrimSpace(category)
		pct = strings.TrimSpace(strings.ReplaceAll(pct, "%", ""))

		value := 0
		if f, ok := parseLeadingFloat(pct); ok {
			value = int(f)
		}

		count := int(math.Round(float64(value) / 100 * total))
		if count <= 0 {
			continue
		}
		shares = append(shares, NeedShare{Category: category, Percentage: value, Count: count})
	}
	return shares
}

func meanPositive(rows record.Table, value func(*record.Record) float64) float64 {
	var sum float64
	var n int
	for _, row := range rows {
		if v := value(row); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
