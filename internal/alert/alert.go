package alert

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// InstrumentKey identifies what the market-data provider is asked for.
type InstrumentKey struct {
	Symbol   string
	Screener string
	Exchange string
}

// NewInstrumentKey normalizes casing the same way announcements render it:
// symbol and exchange uppercase, screener lowercase.
func NewInstrumentKey(symbol, screener, exchange string) InstrumentKey {
	return InstrumentKey{
		Symbol:   strings.ToUpper(symbol),
		Screener: strings.ToLower(screener),
		Exchange: strings.ToUpper(exchange),
	}
}

// Candle is a single price-range sample for one interval.
type Candle struct {
	High float64
	Low  float64
}

// Contains reports whether price lies within [Low, High], inclusive on both
// bounds.
func (c Candle) Contains(price float64) bool {
	return c.Low <= price && price <= c.High
}

// Alert is a standing request to notify a channel once a target price falls
// within a polled candle's range. TargetPrice is fixed at creation. An alert
// lives in a Store exactly as long as it is armed; triggering removes it.
type Alert struct {
	WorkspaceID int64
	ChannelID   int64
	Key         InstrumentKey
	TargetPrice float64
	Note        string
	CreatedAt   time.Time

	// AnnouncementMessageID anchors reaction collection and is the
	// correlation key for reconciliation after a restart.
	AnnouncementMessageID int

	mu          sync.Mutex
	subscribers map[int64]string
	candles     []Candle
}

func New(workspaceID, channelID int64, key InstrumentKey, target float64, note string) *Alert {
	return &Alert{
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		Key:         key,
		TargetPrice: target,
		Note:        note,
		CreatedAt:   time.Now(),
		subscribers: make(map[int64]string),
	}
}

// Equal reports whether two alerts are the same unit of work: same channel,
// same instrument, same target. The store's duplicate checks use this.
func (a *Alert) Equal(o *Alert) bool {
	return a.ChannelID == o.ChannelID && a.Key == o.Key && a.TargetPrice == o.TargetPrice
}

// PushCandle appends c to the candle history, evicting the oldest sample once
// limit is reached.
func (a *Alert) PushCandle(c Candle, limit int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.candles = append(a.candles, c)
	if limit > 0 && len(a.candles) > limit {
		a.candles = a.candles[len(a.candles)-limit:]
	}
}

// Touched reports whether the target lies inside any buffered candle, not
// only the newest. The lookback covers a candle that closed between two poll
// ticks.
func (a *Alert) Touched() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range a.candles {
		if c.Contains(a.TargetPrice) {
			return true
		}
	}
	return false
}

// Candles returns a copy of the buffered candle history, oldest first.
func (a *Alert) Candles() []Candle {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Candle, len(a.candles))
	copy(out, a.candles)
	return out
}

// AddSubscriber records a user to mention when the alert fires. Growth is
// monotonic, there is no unsubscribe.
func (a *Alert) AddSubscriber(userID int64, mention string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.subscribers == nil {
		a.subscribers = make(map[int64]string)
	}
	a.subscribers[userID] = mention
}

// Mentions returns the subscriber mention texts in a stable order.
func (a *Alert) Mentions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.subscribers))
	for _, m := range a.subscribers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
