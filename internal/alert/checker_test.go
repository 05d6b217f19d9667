package alert

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	mu      sync.Mutex
	candles map[InstrumentKey]Candle
	errs    map[InstrumentKey]error
	calls   map[InstrumentKey]int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		candles: make(map[InstrumentKey]Candle),
		errs:    make(map[InstrumentKey]error),
		calls:   make(map[InstrumentKey]int),
	}
}

func (f *fakeMarket) Candle(_ context.Context, key InstrumentKey) (Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if err := f.errs[key]; err != nil {
		return Candle{}, err
	}
	return f.candles[key], nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	triggered []*Alert
	err       error
}

func (f *fakeNotifier) Trigger(a *Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered = append(f.triggered, a)
	return f.err
}

func TestCheckerTriggersOnceAndRetires(t *testing.T) {
	store := NewStore(DuplicateReject)
	a := New(1, 5, NewInstrumentKey("GBPUSD", "forex", "OANDA"), 1.3, "")
	require.NoError(t, store.Create(a))

	market := newFakeMarket()
	market.candles[a.Key] = Candle{High: 1.3050, Low: 1.2990}
	notifier := &fakeNotifier{}

	checker := NewChecker(store, market, notifier, 2)
	checker.Run(context.Background())

	require.Len(t, notifier.triggered, 1)
	assert.Same(t, a, notifier.triggered[0])
	assert.Equal(t, 0, store.Len(), "triggered alert left the store")

	// A second cycle finds nothing to do.
	checker.Run(context.Background())
	assert.Len(t, notifier.triggered, 1)
}

func TestCheckerRetainsAlertOutsideRange(t *testing.T) {
	store := NewStore(DuplicateReject)
	a := New(1, 5, NewInstrumentKey("USDCAD", "forex", "OANDA"), 1.5, "")
	require.NoError(t, store.Create(a))

	market := newFakeMarket()
	market.candles[a.Key] = Candle{High: 1.4200, Low: 1.4100}
	notifier := &fakeNotifier{}

	checker := NewChecker(store, market, notifier, 2)
	for i := 0; i < 3; i++ {
		checker.Run(context.Background())
	}

	assert.Empty(t, notifier.triggered)
	assert.Equal(t, 1, store.Len())
	assert.Len(t, a.Candles(), 2, "buffer holds the K most recent candles")
}

func TestCheckerIsolatesProviderFailures(t *testing.T) {
	store := NewStore(DuplicateReject)
	broken := New(1, 5, NewInstrumentKey("BADSYM", "forex", "OANDA"), 1.0, "")
	healthy := New(1, 5, NewInstrumentKey("GBPUSD", "forex", "OANDA"), 1.3, "")
	require.NoError(t, store.Create(broken))
	require.NoError(t, store.Create(healthy))

	market := newFakeMarket()
	market.errs[broken.Key] = errors.New("scanner unavailable")
	market.candles[healthy.Key] = Candle{High: 1.3050, Low: 1.2990}
	notifier := &fakeNotifier{}

	checker := NewChecker(store, market, notifier, 2)
	checker.Run(context.Background())

	require.Len(t, notifier.triggered, 1, "healthy alert still processed")
	assert.Same(t, healthy, notifier.triggered[0])
	assert.Equal(t, 1, store.Len(), "failing alert is retained for retry")
}

func TestCheckerBacksOffFailingInstrument(t *testing.T) {
	store := NewStore(DuplicateReject)
	a := New(1, 5, NewInstrumentKey("BADSYM", "forex", "OANDA"), 1.0, "")
	require.NoError(t, store.Create(a))

	market := newFakeMarket()
	market.errs[a.Key] = errors.New("scanner unavailable")
	checker := NewChecker(store, market, &fakeNotifier{}, 2)

	checker.Run(context.Background())
	checker.Run(context.Background())

	assert.Equal(t, 1, market.calls[a.Key], "immediate retry deferred by backoff")
	assert.Equal(t, 1, store.Len())
}

// flakyMarket fails the first call and serves the candle afterwards.
type flakyMarket struct {
	mu     sync.Mutex
	calls  int
	candle Candle
}

func (f *flakyMarket) Candle(_ context.Context, _ InstrumentKey) (Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == 1 {
		return Candle{}, errors.New("scanner unavailable")
	}
	return f.candle, nil
}

func TestCheckerRetiresExactInstanceUnderAppendPolicy(t *testing.T) {
	store := NewStore(DuplicateAppend)
	key := NewInstrumentKey("EURUSD", "forex", "OANDA")
	first := New(1, 5, key, 1.1, "first")
	second := New(1, 5, key, 1.1, "second")
	require.NoError(t, store.Create(first))
	require.NoError(t, store.Create(second))

	// The first instance's fetch fails and enters backoff while its equal
	// sibling triggers in the same cycle.
	market := &flakyMarket{candle: Candle{High: 1.1010, Low: 1.0990}}
	notifier := &fakeNotifier{}
	checker := NewChecker(store, market, notifier, 2)

	checker.Run(context.Background())
	checker.Run(context.Background())

	require.Len(t, notifier.triggered, 1, "exactly one trigger notification")
	assert.Same(t, second, notifier.triggered[0])

	remaining := store.List(1)
	require.Len(t, remaining, 1)
	assert.Same(t, first, remaining[0], "the failing instance stays armed with its own subscribers")
}

func TestCheckerRetiresEvenWhenNotificationFails(t *testing.T) {
	store := NewStore(DuplicateReject)
	a := New(1, 5, NewInstrumentKey("GBPUSD", "forex", "OANDA"), 1.3, "")
	require.NoError(t, store.Create(a))

	market := newFakeMarket()
	market.candles[a.Key] = Candle{High: 1.3050, Low: 1.2990}
	notifier := &fakeNotifier{err: errors.New("channel gone")}

	checker := NewChecker(store, market, notifier, 2)
	checker.Run(context.Background())

	assert.Equal(t, 0, store.Len(), "delivery is best effort")
}
