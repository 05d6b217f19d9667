package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/internal/metrics"
)

// MarketData fetches the current candle for an instrument.
type MarketData interface {
	Candle(ctx context.Context, key InstrumentKey) (Candle, error)
}

// Notifier sends the triggered announcement. Together with the removal in
// the checker it forms the single retirement point for an armed alert.
type Notifier interface {
	Trigger(a *Alert) error
}

// Checker drives the poll cycle: once per interval it walks a snapshot of
// every workspace's alerts, fetches candles and fires whichever alerts were
// touched.
type Checker struct {
	store   *Store
	market  MarketData
	notify  Notifier
	history int

	mu      sync.Mutex
	retries map[*Alert]*retryState

	cron *cron.Cron
}

type retryState struct {
	policy *backoff.ExponentialBackOff
	until  time.Time
}

func NewChecker(store *Store, market MarketData, notify Notifier, historySize int) *Checker {
	return &Checker{
		store:   store,
		market:  market,
		notify:  notify,
		history: historySize,
		retries: make(map[*Alert]*retryState),
	}
}

// Start schedules the poll cycle. A cycle that outlives the interval causes
// the next tick to be skipped rather than overlap.
func (c *Checker) Start(interval time.Duration) error {
	runner := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger())),
	))
	_, err := runner.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		c.Run(context.Background())
	})
	if err != nil {
		return err
	}
	runner.Start()
	c.cron = runner
	log.Infof("alert checker started, polling every %s", interval)
	return nil
}

func (c *Checker) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

// Run executes one poll cycle. Every alert present at cycle start is
// attempted exactly once; a provider failure for one alert never aborts the
// rest of the cycle.
func (c *Checker) Run(ctx context.Context) {
	log.Debug("checking prices...")

	for _, workspaceID := range c.store.Workspaces() {
		for _, a := range c.store.List(workspaceID) {
			c.checkAlert(ctx, a)
		}
	}

	metrics.PollCycles.Inc()
	metrics.AlertsActive.Set(float64(c.store.Len()))
}

func (c *Checker) checkAlert(ctx context.Context, a *Alert) {
	if c.inBackoff(a) {
		return
	}

	candle, err := c.market.Candle(ctx, a.Key)
	if err != nil {
		metrics.ProviderErrors.Inc()
		log.Errorf("error fetching data for %s (%s, %s): %v", a.Key.Symbol, a.Key.Screener, a.Key.Exchange, err)
		c.deferRetry(a)
		return
	}
	c.clearRetry(a)

	a.PushCandle(candle, c.history)
	if !a.Touched() {
		return
	}

	if err := c.notify.Trigger(a); err != nil {
		// Delivery is best effort; the alert still retires.
		log.Errorf("error sending trigger notification for %s: %v", a.Key.Symbol, err)
	}
	c.store.Remove(a)
	c.clearRetry(a)
	metrics.AlertsTriggered.Inc()
	log.Infof("alert triggered for %s at %v in workspace %d", a.Key.Symbol, a.TargetPrice, a.WorkspaceID)
}

// inBackoff reports whether a's next provider attempt is still deferred after
// earlier failures.
func (c *Checker) inBackoff(a *Alert) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.retries[a]
	return ok && time.Now().Before(st.until)
}

// deferRetry pushes a's next attempt out with exponential backoff, capped so
// a persistently failing instrument is still retried every few minutes. The
// alert itself is never dropped.
func (c *Checker) deferRetry(a *Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.retries[a]
	if !ok {
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = 30 * time.Second
		policy.MaxInterval = 15 * time.Minute
		policy.MaxElapsedTime = 0
		st = &retryState{policy: policy}
		c.retries[a] = st
	}
	st.until = time.Now().Add(st.policy.NextBackOff())
}

func (c *Checker) clearRetry(a *Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.retries, a)
}
