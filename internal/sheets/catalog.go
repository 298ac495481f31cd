package sheets

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lepinkainen/concierge/internal/record"
)

// SheetInfo describes a sheet the dashboard knows by name.
type SheetInfo struct {
	Name     string
	Title    string
	IDColumn string
	IDPrefix string
	// Compact IDs are the prefix plus the last six digits of the
	// millisecond timestamp, without a separator.
	Compact bool
	// ExportColumns fixes the CSV export layout. Empty means every column
	// in first-seen order.
	ExportColumns []string
}

var interactionColumns = []string{
	"Log ID", "Timestamp", "Source", "Session ID", "Guest Email", "Guest Name",
	"User Input", "Bot Response", "Intent", "Guest Type", "Sentiment",
	"Reference Ticket ID", "Conversation URL",
}

var knownSheets = []SheetInfo{
	{Name: "ticket_management", Title: "Tickets", IDColumn: "Ticket ID", IDPrefix: "TCK"},
	{Name: "Booking_Info", Title: "Bookings", IDColumn: "Booking ID", IDPrefix: "BKG"},
	{Name: "review_managment", Title: "Reviews", IDColumn: "Review ID", IDPrefix: "REV"},
	{Name: "user_information", Title: "Users", IDColumn: "User ID", IDPrefix: "USR"},
	{Name: "Menu_Manager", Title: "Menu", IDColumn: "Item ID", IDPrefix: "MENU"},
	{Name: "Campaigns_Manager", Title: "Campaigns", IDColumn: "Campaign ID", IDPrefix: "CAM"},
	{Name: "QnA_Manager", Title: "Q&A", IDColumn: "QnA ID", IDPrefix: "QNA"},
	{Name: "Dos and Donts", Title: "Policies", IDColumn: "Policy ID", IDPrefix: "POL"},
	{Name: "guest_interaction_log", Title: "Interactions", IDColumn: "Log ID", IDPrefix: "LOG", ExportColumns: interactionColumns},
	{Name: "agent_management", Title: "Channels", IDColumn: "Channel_ID", IDPrefix: "CH", Compact: true},
	{Name: "agents", Title: "Agents", IDColumn: "Agent ID"},
	{Name: "rate_management", Title: "Rates"},
	{Name: "Analytics_Dashboard", Title: "Analytics"},
	{Name: "room_chart", Title: "Rooms"},
}

// KnownSheets lists the sheets the dashboard uses.
func KnownSheets() []SheetInfo {
	out := make([]SheetInfo, len(knownSheets))
	copy(out, knownSheets)
	return out
}

// Lookup returns the catalog entry for a sheet name.
func Lookup(name string) (SheetInfo, bool) {
	for _, s := range knownSheets {
		if s.Name == name {
			return s, true
		}
	}
	return SheetInfo{}, false
}

// NewID generates an identifier for a new row of this sheet.
func (s SheetInfo) NewID(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if s.Compact {
		if len(millis) > 6 {
			millis = millis[len(millis)-6:]
		}
		return s.IDPrefix + millis
	}
	return fmt.Sprintf("%s-%s", s.IDPrefix, millis)
}

// EnsureID fills the sheet's ID column when it is missing or empty and
// returns the row's ID. Sheets without generated IDs return "".
func EnsureID(sheet string, rec *record.Record, now time.Time) string {
	info, ok := Lookup(sheet)
	if !ok || info.IDColumn == "" {
		return ""
	}
	if id := rec.String(info.IDColumn); id != "" {
		return id
	}
	if info.IDPrefix == "" {
		return ""
	}
	id := info.NewID(now)
	rec.Prepend(info.IDColumn, id)
	return id
}
