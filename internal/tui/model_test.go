package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/amirasaad/fxconvert/pkg/history"
	"github.com/amirasaad/fxconvert/pkg/preferences"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
)

// fakeEngine implements Engine for testing.
type fakeEngine struct {
	catalog   *currency.Catalog
	state     engine.State
	converted []float64
	swaps     int
	entries   []history.Entry
	prefs     preferences.Preferences
	refreshFn func(ctx context.Context) (*exchange.RateTable, error)
}

func newFakeEngine() *fakeEngine {
	catalog := currency.NewCatalog([]currency.Currency{
		{Code: "USD", Name: "US Dollar", Symbol: "$", Flag: "🇺🇸", Decimals: 2},
		{Code: "EUR", Name: "Euro", Symbol: "€", Flag: "🇪🇺", Decimals: 2},
		{Code: "PLN", Name: "Polish Zloty", Symbol: "zł", Flag: "🇵🇱", Decimals: 2},
		{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Flag: "🇯🇵", Decimals: 0},
	})
	usd, _ := catalog.Find("USD")
	eur, _ := catalog.Find("EUR")
	return &fakeEngine{
		catalog: catalog,
		state:   engine.State{From: usd, To: eur},
		prefs:   preferences.Defaults(),
	}
}

func (f *fakeEngine) Catalog() *currency.Catalog           { return f.catalog }
func (f *fakeEngine) State() engine.State                  { return f.state }
func (f *fakeEngine) Subscribe(func(engine.State)) func()  { return func() {} }
func (f *fakeEngine) History() []history.Entry             { return f.entries }
func (f *fakeEngine) Preferences() preferences.Preferences { return f.prefs }

func (f *fakeEngine) SetFromCurrency(code string) error {
	cur, ok := f.catalog.Find(code)
	if !ok {
		return engine.ErrInvalidCurrencyCode
	}
	f.state.From = cur
	return nil
}

func (f *fakeEngine) SetToCurrency(code string) error {
	cur, ok := f.catalog.Find(code)
	if !ok {
		return engine.ErrInvalidCurrencyCode
	}
	f.state.To = cur
	return nil
}

func (f *fakeEngine) SwapCurrencies() {
	f.swaps++
	f.state.From, f.state.To = f.state.To, f.state.From
}

func (f *fakeEngine) Convert(amount float64) error {
	f.converted = append(f.converted, amount)
	return nil
}

func (f *fakeEngine) RefreshRates(ctx context.Context) (*exchange.RateTable, error) {
	if f.refreshFn != nil {
		return f.refreshFn(ctx)
	}
	return exchange.NewRateTable("EUR", map[string]float64{"USD": 1.1, "PLN": 4.3}, time.Now()), nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(runes(string(r)))
	}
}

func TestNew(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	assert.Equal(t, fieldAmount, m.focus)
	assert.True(t, m.amount.Focused())
	assert.Equal(t, "USD", m.state.From.Code)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Enter an amount to convert")
}

func TestAmountInput(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	typeText(m, "125")
	assert.Equal(t, []float64{1, 12, 125}, eng.converted)
	assert.Empty(t, m.hint)

	m.Update(runes("x"))
	assert.Equal(t, engine.ReasonNotANum, m.hint)
	assert.Len(t, eng.converted, 3)
	assert.Contains(t, m.View(), engine.ReasonNotANum)
}

func TestAmountInput_NonPositive(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	typeText(m, "0")
	assert.Equal(t, engine.ReasonNotPos, m.hint)
	assert.Empty(t, eng.converted)

	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, m.hint)
}

func TestStateChanged(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	st := eng.state
	st.IsLoading = true
	m.Update(StateChanged{State: st})
	assert.Contains(t, m.View(), "Converting...")

	st.IsLoading = false
	st.LastResult = &engine.ConversionResult{
		From: st.From, To: st.To, FromAmount: 100, ToAmount: 92.17, Rate: 0.9217,
	}
	m.Update(StateChanged{State: st})
	view := m.View()
	assert.Contains(t, view, "100.00 USD = 92.17 EUR")
	assert.Contains(t, view, "1 USD = 0.921700 EUR")

	st.LastError = exchange.ErrNoDataAvailable
	m.Update(StateChanged{State: st})
	assert.Contains(t, m.View(), "No exchange rate data available")
}

func TestCurrencyPicker(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, fieldFrom, m.focus)
	assert.Len(t, m.matches, 4) // popular subset present in the catalog

	typeText(m, "zloty")
	require.Len(t, m.matches, 1)
	assert.Contains(t, m.View(), "Polish Zloty")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, fieldAmount, m.focus)
	assert.Equal(t, "PLN", eng.state.From.Code)
	assert.Equal(t, "PLN", m.state.From.Code)
	assert.Empty(t, m.picker.Value())
}

func TestCurrencyPicker_Navigation(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, fieldTo, m.focus)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, m.eng.Catalog().Popular()[1].Code, eng.state.To.Code)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(m, "nothing")
	assert.Empty(t, m.matches)
	assert.Contains(t, m.View(), "No matching currencies")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, fieldAmount, m.focus)
	assert.True(t, m.amount.Focused())
}

func TestSwap(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, 1, eng.swaps)
	assert.Equal(t, "EUR", m.state.From.Code)
	assert.Equal(t, "USD", m.state.To.Code)
}

func TestRefresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		eng := newFakeEngine()
		m := New(context.Background(), eng)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
		require.NotNil(t, cmd)
		assert.Equal(t, "Refreshing rates...", m.status)

		m.Update(cmd())
		assert.Equal(t, "Rates refreshed: 2 currencies against EUR", m.status)
	})

	t.Run("failure", func(t *testing.T) {
		eng := newFakeEngine()
		eng.refreshFn = func(context.Context) (*exchange.RateTable, error) {
			return nil, errors.Join(exchange.ErrNetwork, errors.New("dial tcp: timeout"))
		}
		m := New(context.Background(), eng)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
		require.NotNil(t, cmd)
		msg, ok := cmd().(RatesRefreshed)
		require.True(t, ok)
		require.Error(t, msg.Err)

		m.Update(msg)
		assert.Contains(t, m.status, "Network error")
	})
}

func TestHistoryToggle(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.True(t, m.showHistory)
	assert.Contains(t, m.View(), "No conversions yet")

	eng.entries = []history.Entry{
		history.NewEntry("USD", "EUR", 10, 9.2, 0.92, time.Now()),
	}
	assert.Contains(t, m.View(), "10.00 USD → 9.20 EUR")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.False(t, m.showHistory)
}

func TestHistoryUsesPreferredDecimals(t *testing.T) {
	eng := newFakeEngine()
	eng.prefs.DecimalPlaces = 3
	eng.entries = []history.Entry{
		history.NewEntry("EUR", "JPY", 5, 812.25, 162.45, time.Now()),
		history.NewEntry("USD", "EUR", 10, 9.2, 0.92, time.Now()),
	}
	m := New(context.Background(), eng)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	view := m.View()
	assert.Contains(t, view, "5.000 EUR → 812 JPY")
	assert.Contains(t, view, "10.000 USD → 9.20 EUR")
}

func TestQuit(t *testing.T) {
	eng := newFakeEngine()
	m := New(context.Background(), eng)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWindowSize(t *testing.T) {
	m := New(context.Background(), newFakeEngine())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
}
