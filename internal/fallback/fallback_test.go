package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/concierge/internal/testutil"
)

func TestDefaultDatasetLoads(t *testing.T) {
	policy, err := Default()
	require.NoError(t, err)

	tickets, ok := policy.Table("ticket_management")
	require.True(t, ok)
	require.Len(t, tickets, 1)
	assert.Equal(t, "TCK-001", tickets[0].String("Ticket ID"))
	assert.Equal(t, "Ticket ID", tickets[0].Keys()[0])
	// quoted numbers stay text, as the spreadsheet returns them
	assert.Equal(t, "101", tickets[0].String("Room No"))

	assert.Contains(t, policy.Snapshot().Names(), "guest_interaction_log")
}

func TestStaticReturnsCopies(t *testing.T) {
	policy, err := Default()
	require.NoError(t, err)

	tickets, _ := policy.Table("ticket_management")
	tickets[0].Set("Status", "Open")

	again, _ := policy.Table("ticket_management")
	assert.Equal(t, "Resolved", again[0].String("Status"))
}

func TestUnknownSheet(t *testing.T) {
	policy, err := Default()
	require.NoError(t, err)

	_, ok := policy.Table("rate_management")
	assert.False(t, ok)
}

func TestNonePolicy(t *testing.T) {
	var p Policy = None{}
	_, ok := p.Table("ticket_management")
	assert.False(t, ok)
	assert.Nil(t, p.Snapshot())
}

func TestParseRejectsBadShapes(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("tickets:\n  foo: bar\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("tickets:\n  - just a string\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("fallback.yaml", "rates:\n  - Rate ID: RATE-1\n    Price: 100\n")

	policy, err := LoadFile(env.Path("fallback.yaml"))
	require.NoError(t, err)

	rates, ok := policy.Table("rates")
	require.True(t, ok)
	price, ok := rates[0].Float("Price")
	require.True(t, ok)
	assert.Equal(t, 100.0, price)
}
