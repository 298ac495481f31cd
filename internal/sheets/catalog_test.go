package sheets

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/concierge/internal/record"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1718000123456)

	tickets, ok := Lookup("ticket_management")
	require.True(t, ok)
	assert.Equal(t, "TCK-1718000123456", tickets.NewID(now))

	channels, ok := Lookup("agent_management")
	require.True(t, ok)
	assert.Equal(t, "CH123456", channels.NewID(now))
}

func TestEnsureID(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	t.Run("fills missing id first", func(t *testing.T) {
		rec := record.New("Guest Name", "Jane")
		id := EnsureID("Booking_Info", rec, now)
		assert.Equal(t, "BKG-1700000000000", id)
		assert.Equal(t, []string{"Booking ID", "Guest Name"}, rec.Keys())
	})

	t.Run("keeps existing id", func(t *testing.T) {
		rec := record.New("Ticket ID", "TCK-1", "Guest", "Jane")
		assert.Equal(t, "TCK-1", EnsureID("ticket_management", rec, now))
		assert.Equal(t, 2, rec.Len())
	})

	t.Run("sheet without prefix", func(t *testing.T) {
		rec := record.New("Name", "Ana")
		assert.Empty(t, EnsureID("agents", rec, now))
		assert.False(t, rec.Has("Agent ID"))
	})

	t.Run("unknown sheet", func(t *testing.T) {
		rec := record.New("Price", 100)
		assert.Empty(t, EnsureID("rates_2025", rec, now))
		assert.Equal(t, 1, rec.Len())
	})
}

func TestKnownSheetsIsACopy(t *testing.T) {
	sheets := KnownSheets()
	require.NotEmpty(t, sheets)
	sheets[0].Name = "changed"

	_, ok := Lookup("changed")
	assert.False(t, ok)
}

func TestNotifierFunc(t *testing.T) {
	var got []string
	n := NotifierFunc(func(level slog.Level, message string) {
		got = append(got, level.String()+" "+message)
	})
	n.Notify(slog.LevelError, "Failed to addRow: boom")
	assert.Equal(t, []string{"ERROR Failed to addRow: boom"}, got)

	// a zero LogNotifier falls back to the default logger
	assert.NotPanics(t, func() { LogNotifier{}.Notify(slog.LevelInfo, "ok") })
}
