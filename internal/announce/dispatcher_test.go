package announce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch-telegram-bot/internal/alert"
)

type fakeSender struct {
	nextID   int
	sets     []string
	triggers []string
}

func (f *fakeSender) SendSetAnnouncement(_, _ int64, text string) (int, error) {
	f.nextID++
	f.sets = append(f.sets, text)
	return f.nextID, nil
}

func (f *fakeSender) SendTriggerAnnouncement(_, _ int64, text string) (int, error) {
	f.nextID++
	f.triggers = append(f.triggers, text)
	return f.nextID, nil
}

type staticMarket struct {
	candle alert.Candle
}

func (m staticMarket) Candle(_ context.Context, _ alert.InstrumentKey) (alert.Candle, error) {
	return m.candle, nil
}

func TestAnnounceSetReturnsMessageID(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender)

	a := alert.New(1, 1, alert.NewInstrumentKey("EURUSD", "forex", "OANDA"), 1.1, "scalp")
	id, err := d.AnnounceSet(a)

	require.NoError(t, err)
	assert.Equal(t, 1, id)
	require.Len(t, sender.sets, 1)

	parsed, ok := ParseSet(sender.sets[0])
	require.True(t, ok, "announcement must round-trip through the parser")
	assert.Equal(t, "EURUSD", parsed.Symbol)
	assert.Equal(t, 1.1, parsed.Target)
	assert.Equal(t, "scalp", parsed.Note)
}

func TestTriggerMentionsSubscribers(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender)

	a := alert.New(1, 1, alert.NewInstrumentKey("GBPUSD", "forex", "OANDA"), 1.3, "")
	a.AddSubscriber(10, "@bob")
	a.AddSubscriber(20, "@alice")

	require.NoError(t, d.Trigger(a))
	require.Len(t, sender.triggers, 1)
	assert.Equal(t, "Alert triggered for symbol GBPUSD at target price 1.3. @alice @bob", sender.triggers[0])
}

// Create → poll → trigger, through the real store, checker and dispatcher.
func TestPollCycleEndToEnd(t *testing.T) {
	store := alert.NewStore(alert.DuplicateReject)
	sender := &fakeSender{}
	d := NewDispatcher(sender)

	a := alert.New(7, 7, alert.NewInstrumentKey("GBPUSD", "forex", "OANDA"), 1.3, "")
	id, err := d.AnnounceSet(a)
	require.NoError(t, err)
	a.AnnouncementMessageID = id
	require.NoError(t, store.Create(a))

	checker := alert.NewChecker(store, staticMarket{alert.Candle{High: 1.3050, Low: 1.2990}}, d, 2)
	checker.Run(context.Background())

	require.Len(t, sender.triggers, 1)
	assert.True(t, MatchesTriggered(sender.triggers[0], "GBPUSD", "1.3"))
	assert.Equal(t, 0, store.Len())

	checker.Run(context.Background())
	assert.Len(t, sender.triggers, 1, "exactly one trigger notification")
}
