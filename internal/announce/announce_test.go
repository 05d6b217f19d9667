package announce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceTextIsLiteralDecimal(t *testing.T) {
	assert.Equal(t, "1.1", PriceText(1.1))
	assert.Equal(t, "1.3", PriceText(1.3000))
	assert.Equal(t, "2000", PriceText(2000))
	assert.Equal(t, "1.427822", PriceText(1.427822))
}

func TestFormatSetParseSetRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		set  SetAnnouncement
	}{
		{
			name: "without note",
			set: SetAnnouncement{
				Symbol: "EURUSD", Target: 1.1, PriceText: "1.1",
				Screener: "forex", Exchange: "OANDA",
			},
		},
		{
			name: "with note",
			set: SetAnnouncement{
				Symbol: "BTCUSDT", Target: 64250.5, PriceText: "64250.5",
				Screener: "crypto", Exchange: "BINANCE", Note: "watch the breakout",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := FormatSet(tc.set.Symbol, PriceText(tc.set.Target), tc.set.Screener, tc.set.Exchange, tc.set.Note)

			parsed, ok := ParseSet(text)
			require.True(t, ok)
			assert.Equal(t, tc.set, parsed)
		})
	}
}

func TestFormatSetNormalizesCasing(t *testing.T) {
	text := FormatSet("eurusd", "1.1", "FOREX", "oanda", "")
	assert.Equal(t, "Alert set for symbol EURUSD at target price 1.1 using screener: forex and exchange: OANDA.", text)
}

func TestParseSetRejectsForeignText(t *testing.T) {
	for _, text := range []string{
		"",
		"hello there",
		"Alert triggered for symbol EURUSD at target price 1.1.",
		"Alert set for symbol EURUSD at target price not-a-number using screener: forex and exchange: OANDA.",
	} {
		_, ok := ParseSet(text)
		assert.False(t, ok, "text: %q", text)
	}
}

func TestFormatTriggered(t *testing.T) {
	assert.Equal(t,
		"Alert triggered for symbol EURUSD at target price 1.1.",
		FormatTriggered("EURUSD", "1.1", nil))

	assert.Equal(t,
		"Alert triggered for symbol EURUSD at target price 1.1. @alice @bob",
		FormatTriggered("EURUSD", "1.1", []string{"@alice", "@bob"}))
}

func TestMatchesTriggered(t *testing.T) {
	triggered := FormatTriggered("EURUSD", "1.1", []string{"@bob"})

	assert.True(t, MatchesTriggered(triggered, "EURUSD", "1.1"))
	assert.False(t, MatchesTriggered(triggered, "GBPUSD", "1.1"))
	assert.False(t, MatchesTriggered(triggered, "EURUSD", "1.3"))

	set := FormatSet("EURUSD", "1.1", "forex", "OANDA", "")
	assert.False(t, MatchesTriggered(set, "EURUSD", "1.1"), "set announcements never resolve")
}
