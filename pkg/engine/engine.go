// Package engine implements the currency conversion state machine:
// selection, debounced conversion, rate caching and observer notification.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/history"
	"github.com/amirasaad/fxconvert/pkg/metrics"
	"github.com/amirasaad/fxconvert/pkg/preferences"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
)

const (
	// DefaultDebounce is the quiet period before a conversion executes.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultBaseCurrency is the base requested from the rate source.
	DefaultBaseCurrency = "EUR"
	// ReferenceAmount is converted after a selection change.
	ReferenceAmount = 1.0
	// MinHistoryAmount is the smallest amount recorded in history.
	MinHistoryAmount = 0.01
)

// Config holds the engine tunables.
type Config struct {
	BaseCurrency string
	Debounce     time.Duration
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Catalog     *currency.Catalog
	Source      exchange.RateSource
	Cache       *exchange.Cache
	History     *history.Store
	Preferences *preferences.Store
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type subscriber struct {
	id uint64
	fn func(State)
}

// Engine owns the conversion state. All methods are safe for concurrent use.
type Engine struct {
	catalog *currency.Catalog
	source  exchange.RateSource
	cache   *exchange.Cache
	history *history.Store
	prefs   *preferences.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	base    string

	mu         sync.Mutex
	state      State
	settings   preferences.Preferences
	seq        uint64
	cancelPrev context.CancelFunc
	closed     bool

	notifyMu sync.Mutex
	// commitMu orders the final state change of a conversion with its
	// history append.
	commitMu sync.Mutex

	subsMu  sync.RWMutex
	subs    []subscriber
	nextSub uint64

	debounce *debouncer
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New restores preferences and history and returns a ready engine.
func New(ctx context.Context, deps Deps, cfg Config, opts ...Option) (*Engine, error) {
	if deps.Catalog == nil || deps.Catalog.Count() == 0 {
		return nil, errors.New("engine: catalog is required")
	}
	if deps.Source == nil {
		return nil, errors.New("engine: rate source is required")
	}
	if deps.History == nil || deps.Preferences == nil {
		return nil, errors.New("engine: history and preferences stores are required")
	}
	if deps.Cache == nil {
		deps.Cache = exchange.NewCache(exchange.DefaultValidity)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = DefaultBaseCurrency
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		catalog:  deps.Catalog,
		source:   deps.Source,
		cache:    deps.Cache,
		history:  deps.History,
		prefs:    deps.Preferences,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With(slog.String("component", "engine")),
		now:      time.Now,
		base:     cfg.BaseCurrency,
		debounce: newDebouncer(cfg.Debounce),
		ctx:      runCtx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.settings = e.prefs.Load(ctx)
	e.state.From = e.resolve(e.settings.DefaultFrom, currency.DefaultFrom, 0)
	e.state.To = e.resolve(e.settings.DefaultTo, currency.DefaultTo, 1)

	if _, err := e.history.Load(ctx); err != nil {
		e.logger.Warn("Failed to restore conversion history", "error", err)
	}

	e.logger.Info("Engine ready",
		"from", e.state.From.Code,
		"to", e.state.To.Code,
		"base", e.base,
		"debounce", cfg.Debounce)
	return e, nil
}

// resolve picks code, then fallback, then the catalog entry at index.
func (e *Engine) resolve(code, fallback string, index int) currency.Currency {
	if c, ok := e.catalog.Find(code); ok {
		return c
	}
	if c, ok := e.catalog.Find(fallback); ok {
		return c
	}
	all := e.catalog.All()
	if index >= len(all) {
		index = 0
	}
	return all[index]
}

// Catalog returns the currency catalog.
func (e *Engine) Catalog() *currency.Catalog { return e.catalog }

// BaseCurrency returns the base requested from the rate source.
func (e *Engine) BaseCurrency() string { return e.base }

// Preferences returns the current user preferences.
func (e *Engine) Preferences() preferences.Preferences {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Callbacks run synchronously and in mutation order; they must not call
// mutating engine methods. The returned func removes the subscription.
func (e *Engine) Subscribe(fn func(State)) func() {
	e.subsMu.Lock()
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subsMu.Lock()
			defer e.subsMu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// update applies fn to the state under the lock and notifies observers.
func (e *Engine) update(fn func(*State)) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	fn(&e.state)
	snapshot := e.state.clone()
	e.mu.Unlock()

	e.notify(snapshot)
}

// notify delivers snapshot to every subscriber. Callers hold notifyMu.
func (e *Engine) notify(snapshot State) {
	e.subsMu.RLock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.subsMu.RUnlock()

	for _, s := range subs {
		s.fn(snapshot)
	}
}

func (e *Engine) publishError(err error) {
	e.metrics.ObserveConversion(string(KindOf(err)))
	e.update(func(s *State) { s.LastError = err })
}

// SetFromCurrency selects the source currency.
func (e *Engine) SetFromCurrency(code string) error {
	return e.selectCurrency(code, func(s *State, c currency.Currency) { s.From = c })
}

// SetToCurrency selects the target currency.
func (e *Engine) SetToCurrency(code string) error {
	return e.selectCurrency(code, func(s *State, c currency.Currency) { s.To = c })
}

func (e *Engine) selectCurrency(code string, apply func(*State, currency.Currency)) error {
	c, ok := e.catalog.Find(code)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, code)
		e.publishError(err)
		return err
	}

	var hadResult bool
	e.update(func(s *State) {
		apply(s, c)
		hadResult = s.LastResult != nil
	})
	e.persistSelection()
	if hadResult {
		e.schedule(ReferenceAmount)
	}
	return nil
}

// SwapCurrencies exchanges the source and target currencies.
func (e *Engine) SwapCurrencies() {
	var hadResult bool
	e.update(func(s *State) {
		s.From, s.To = s.To, s.From
		hadResult = s.LastResult != nil
	})
	e.persistSelection()
	if hadResult {
		e.schedule(ReferenceAmount)
	}
}

func (e *Engine) persistSelection() {
	e.mu.Lock()
	e.settings.DefaultFrom = e.state.From.Code
	e.settings.DefaultTo = e.state.To.Code
	prefs := e.settings
	e.mu.Unlock()

	if err := e.prefs.Save(e.ctx, prefs); err != nil {
		e.logger.Warn("Failed to save preferences", "error", err)
	}
}

// Convert schedules a debounced conversion of amount between the selected
// currencies. Invalid amounts are published immediately.
func (e *Engine) Convert(amount float64) error {
	if !validAmount(amount) {
		e.publishError(ErrInvalidAmount)
		return ErrInvalidAmount
	}
	e.schedule(amount)
	return nil
}

func (e *Engine) schedule(amount float64) {
	e.logger.Debug("Scheduling conversion", "amount", amount)
	e.debounce.Trigger(func() {
		if !e.acquire() {
			return
		}
		defer e.wg.Done()
		_, _ = e.execute(e.ctx, amount)
	})
}

// ConvertNow runs a conversion synchronously, bypassing the debounce.
// The result is returned even when a newer request superseded it.
func (e *Engine) ConvertNow(ctx context.Context, amount float64) (ConversionResult, error) {
	if !validAmount(amount) {
		e.publishError(ErrInvalidAmount)
		return ConversionResult{}, ErrInvalidAmount
	}
	if !e.acquire() {
		return ConversionResult{}, ErrClosed
	}
	defer e.wg.Done()
	return e.execute(ctx, amount)
}

func (e *Engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.wg.Add(1)
	return true
}

func validAmount(amount float64) bool {
	return amount > 0 && finite(amount)
}

// execute runs one conversion request. Results of requests superseded by
// a newer one are discarded.
func (e *Engine) execute(parent context.Context, amount float64) (ConversionResult, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		seq      uint64
		from, to currency.Currency
	)
	e.update(func(s *State) {
		e.seq++
		seq = e.seq
		if e.cancelPrev != nil {
			e.cancelPrev()
		}
		e.cancelPrev = cancel
		from, to = s.From, s.To
		s.IsLoading = true
		s.LastError = nil
	})

	res, err := e.convert(ctx, seq, from, to, amount)

	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	if err != nil {
		applied := e.finish(seq, func(s *State) {
			s.LastResult = nil
			s.LastError = err
			s.IsLoading = false
		})
		if !applied {
			e.discard(seq)
			return res, err
		}
		e.logger.Warn("Conversion failed",
			"from", from.Code, "to", to.Code, "amount", amount, "error", err)
		e.metrics.ObserveConversion(string(KindOf(err)))
		return res, err
	}

	applied := e.finish(seq, func(s *State) {
		r := res
		at := res.ComputedAt
		s.LastResult = &r
		s.LastUpdated = &at
		s.LastError = nil
		s.IsLoading = false
	})
	if !applied {
		e.discard(seq)
		return res, nil
	}

	if amount >= MinHistoryAmount {
		entry := history.NewEntry(from.Code, to.Code, res.FromAmount, res.ToAmount, res.Rate, res.ComputedAt)
		if herr := e.history.Append(e.ctx, entry); herr != nil {
			e.logger.Warn("Failed to save conversion history", "error", herr)
		}
	}
	e.metrics.ObserveConversion(string(KindNone))
	e.logger.Info("Conversion completed",
		"from", from.Code, "to", to.Code,
		"amount", amount, "result", res.ToAmount, "rate", res.Rate)
	return res, nil
}

func (e *Engine) discard(seq uint64) {
	e.metrics.Superseded()
	e.logger.Debug("Discarding superseded conversion", "seq", seq)
}

// finish applies fn and notifies observers only if seq is still the
// newest request. It reports whether fn was applied.
func (e *Engine) finish(seq uint64, fn func(*State)) bool {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		return false
	}
	e.cancelPrev = nil
	fn(&e.state)
	snapshot := e.state.clone()
	e.mu.Unlock()

	e.notify(snapshot)
	return true
}

func (e *Engine) convert(ctx context.Context, seq uint64, from, to currency.Currency, amount float64) (ConversionResult, error) {
	table, err := e.rates(ctx, seq)
	if err != nil {
		return ConversionResult{}, err
	}
	fromRate, ok := table.Rate(from.Code)
	if !ok {
		return ConversionResult{}, fmt.Errorf("%w: %s", exchange.ErrRateNotFound, from.Code)
	}
	toRate, ok := table.Rate(to.Code)
	if !ok {
		return ConversionResult{}, fmt.Errorf("%w: %s", exchange.ErrRateNotFound, to.Code)
	}

	amountInBase := amount / fromRate
	toAmount := amountInBase * toRate
	rate := toRate / fromRate
	if !finite(toAmount) || !finite(rate) {
		return ConversionResult{}, fmt.Errorf("%w: %g %s to %s", ErrAmountOutOfRange, amount, from.Code, to.Code)
	}
	return ConversionResult{
		From:       from,
		To:         to,
		FromAmount: amount,
		ToAmount:   toAmount,
		Rate:       rate,
		ComputedAt: e.now(),
	}, nil
}

// Rates returns the base rate table, from the cache when it is fresh.
func (e *Engine) Rates(ctx context.Context) (*exchange.RateTable, error) {
	return e.rates(ctx, 0)
}

// rates serves the base table from the cache, fetching it on a miss.
// A fetched table is cached only while seq is still the newest request;
// seq 0 always caches.
func (e *Engine) rates(ctx context.Context, seq uint64) (*exchange.RateTable, error) {
	if table, ok := e.cache.Get(e.base); ok {
		e.metrics.CacheHit()
		return table, nil
	}
	e.metrics.CacheMiss()
	table, err := e.fetch(ctx)
	if err != nil {
		return nil, err
	}
	e.store(seq, table)
	return table, nil
}

func (e *Engine) store(seq uint64, table *exchange.RateTable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != 0 && seq != e.seq {
		e.logger.Debug("Not caching rates of superseded conversion", "seq", seq)
		return
	}
	e.cache.Put(table)
}

func (e *Engine) fetch(ctx context.Context) (*exchange.RateTable, error) {
	table, err := e.source.FetchRates(ctx, e.base)
	if err == nil {
		switch {
		case table == nil || table.Len() == 0:
			err = fmt.Errorf("%w: empty rate table for %s", exchange.ErrNoDataAvailable, e.base)
		case table.Base != e.base:
			err = fmt.Errorf("%w: requested base %s, got %s", exchange.ErrAPI, e.base, table.Base)
		}
	} else if !errors.Is(err, exchange.ErrNetwork) && !errors.Is(err, exchange.ErrAPI) {
		err = fmt.Errorf("%w: %w", exchange.ErrNetwork, err)
	}
	if err != nil {
		return nil, err
	}

	if table.FetchedAt.IsZero() {
		table.FetchedAt = e.now()
	}
	e.logger.Debug("Fetched rates", "base", e.base, "count", table.Len())
	return table, nil
}

// RefreshRates drops the cache and fetches a fresh base table.
func (e *Engine) RefreshRates(ctx context.Context) (*exchange.RateTable, error) {
	e.cache.Clear()
	table, err := e.fetch(ctx)
	if err != nil {
		return nil, err
	}
	e.store(0, table)
	return table, nil
}

// History returns recorded conversions, most recent first.
func (e *Engine) History() []history.Entry {
	return e.history.Entries()
}

// ClearHistory empties the conversion history.
func (e *Engine) ClearHistory(ctx context.Context) error {
	if err := e.history.Clear(ctx); err != nil {
		e.logger.Warn("Failed to clear history", "error", err)
		return err
	}
	return nil
}

// ValidateAmount checks user-entered amount text.
func (e *Engine) ValidateAmount(text string) Validation { return ValidateAmount(text) }

// FormatRate renders rate for display.
func (e *Engine) FormatRate(rate float64) string { return FormatRate(rate) }

// Close stops pending work and waits for running conversions to return.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.debounce.Stop()
	e.cancel()
	e.wg.Wait()
	e.logger.Info("Engine closed")
}
