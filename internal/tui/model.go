// Package tui provides the interactive terminal converter.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/amirasaad/fxconvert/pkg/history"
	"github.com/amirasaad/fxconvert/pkg/preferences"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
)

const (
	pickerRows  = 8
	historyRows = 10
)

// Engine is the conversion engine surface driven by the model.
type Engine interface {
	Catalog() *currency.Catalog
	State() engine.State
	Subscribe(fn func(engine.State)) func()
	SetFromCurrency(code string) error
	SetToCurrency(code string) error
	SwapCurrencies()
	Convert(amount float64) error
	History() []history.Entry
	Preferences() preferences.Preferences
	RefreshRates(ctx context.Context) (*exchange.RateTable, error)
}

// StateChanged delivers an engine snapshot to the model.
type StateChanged struct {
	State engine.State
}

// RatesRefreshed reports the outcome of a manual refresh.
type RatesRefreshed struct {
	Table *exchange.RateTable
	Err   error
}

type field int

const (
	fieldAmount field = iota
	fieldFrom
	fieldTo
	fieldCount
)

// Model is the bubbletea model for the converter screen.
type Model struct {
	ctx    context.Context
	eng    Engine
	styles *Styles
	keys   *KeyMap

	amount  textinput.Model
	picker  textinput.Model
	matches []currency.Currency
	cursor  int
	focus   field

	state       engine.State
	hint        string
	status      string
	showHistory bool
	width       int
}

// New creates a model bound to eng.
func New(ctx context.Context, eng Engine) *Model {
	amount := textinput.New()
	amount.Placeholder = "Amount"
	amount.CharLimit = 20
	amount.Width = 20
	amount.Focus()

	picker := textinput.New()
	picker.Placeholder = "Search code or name..."
	picker.CharLimit = 32
	picker.Width = 30

	return &Model{
		ctx:    ctx,
		eng:    eng,
		styles: DefaultStyles(),
		keys:   DefaultKeyMap(),
		amount: amount,
		picker: picker,
		state:  eng.State(),
		width:  80,
	}
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case StateChanged:
		m.state = msg.State
		return m, nil

	case RatesRefreshed:
		if msg.Err != nil {
			m.status = engine.Message(msg.Err)
		} else {
			m.status = fmt.Sprintf("Rates refreshed: %d currencies against %s", msg.Table.Len(), msg.Table.Base)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.focus == fieldAmount {
		m.amount, cmd = m.amount.Update(msg)
	} else {
		m.picker, cmd = m.picker.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		if m.focus == fieldAmount {
			return m, tea.Quit
		}
		return m, m.setFocus(fieldAmount)
	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case key.Matches(msg, m.keys.Swap):
		m.eng.SwapCurrencies()
		m.state = m.eng.State()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.status = "Refreshing rates..."
		return m, m.refresh()
	case key.Matches(msg, m.keys.History):
		m.showHistory = !m.showHistory
		return m, nil
	}

	if m.focus == fieldAmount {
		before := m.amount.Value()
		var cmd tea.Cmd
		m.amount, cmd = m.amount.Update(msg)
		if m.amount.Value() != before {
			m.amountChanged(m.amount.Value())
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		return m, m.choose()
	}

	before := m.picker.Value()
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if m.picker.Value() != before {
		m.filter()
	}
	return m, cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	m.focus = f
	if f == fieldAmount {
		m.picker.Blur()
		m.picker.Reset()
		return m.amount.Focus()
	}
	m.amount.Blur()
	m.picker.Reset()
	m.filter()
	return m.picker.Focus()
}

func (m *Model) filter() {
	catalog := m.eng.Catalog()
	if q := m.picker.Value(); q != "" {
		m.matches = catalog.Search(q)
	} else {
		m.matches = catalog.Popular()
	}
	m.cursor = 0
}

func (m *Model) choose() tea.Cmd {
	if len(m.matches) == 0 {
		return nil
	}
	code := m.matches[m.cursor].Code
	var err error
	if m.focus == fieldFrom {
		err = m.eng.SetFromCurrency(code)
	} else {
		err = m.eng.SetToCurrency(code)
	}
	if err != nil {
		m.status = engine.Message(err)
	} else {
		m.status = ""
	}
	m.state = m.eng.State()
	return m.setFocus(fieldAmount)
}

// amountChanged validates text and schedules a conversion when it is valid.
func (m *Model) amountChanged(text string) {
	v := engine.ValidateAmount(text)
	if !v.Valid {
		if strings.TrimSpace(text) == "" {
			m.hint = ""
		} else {
			m.hint = v.Reason
		}
		return
	}
	m.hint = ""
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		m.hint = engine.ReasonNotANum
		return
	}
	if err := m.eng.Convert(amount); err != nil {
		m.status = engine.Message(err)
	}
}

func (m *Model) refresh() tea.Cmd {
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		table, err := eng.RefreshRates(ctx)
		return RatesRefreshed{Table: table, Err: err}
	}
}

// View renders the screen.
func (m *Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("💱 fxconvert"))
	b.WriteString("\n")

	b.WriteString(m.currencyLine("From", m.state.From, fieldFrom))
	b.WriteString("\n")
	b.WriteString(m.currencyLine("To", m.state.To, fieldTo))
	b.WriteString("\n")

	box := s.Input
	if m.focus == fieldAmount {
		box = s.Focused
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, s.Label.Render("Amount"), box.Render(m.amount.View())))
	b.WriteString("\n")
	if m.hint != "" {
		b.WriteString(s.Warning.Render(m.hint))
		b.WriteString("\n")
	}

	b.WriteString(m.resultView())
	b.WriteString("\n")

	if m.focus != fieldAmount {
		b.WriteString(m.pickerView())
	}
	if m.showHistory {
		b.WriteString(m.historyView())
	}
	if m.status != "" {
		b.WriteString(s.Muted.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.helpView())
	return b.String()
}

func (m *Model) currencyLine(label string, cur currency.Currency, f field) string {
	s := m.styles
	text := s.Currency.Render(cur.String()) + " " + s.Muted.Render(cur.Name)
	if m.focus == f {
		text = s.Selected.Render(" "+cur.String()+" ") + " " + s.Muted.Render(cur.Name)
	}
	return s.Label.Render(label) + text
}

func (m *Model) resultView() string {
	s := m.styles
	st := m.state
	switch {
	case st.IsLoading:
		return s.Muted.Render("Converting...")
	case st.LastError != nil:
		return s.Error.Render("✗ " + st.ErrorMessage())
	case st.LastResult != nil:
		r := st.LastResult
		result := fmt.Sprintf("%s %s = %s %s",
			engine.FormatAmount(r.FromAmount, r.From.Decimals), r.From.Code,
			engine.FormatAmount(r.ToAmount, r.To.Decimals), r.To.Code)
		rate := fmt.Sprintf("1 %s = %s %s", r.From.Code, engine.FormatRate(r.Rate), r.To.Code)
		return s.Result.Render(result) + "\n" + s.Rate.Render(rate)
	}
	return s.Muted.Render("Enter an amount to convert")
}

func (m *Model) pickerView() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Focused.Render(m.picker.View()))
	b.WriteString("\n")
	if len(m.matches) == 0 {
		b.WriteString(s.Muted.Render("No matching currencies"))
		b.WriteString("\n")
		return b.String()
	}

	start := 0
	if m.cursor >= pickerRows {
		start = m.cursor - pickerRows + 1
	}
	end := min(start+pickerRows, len(m.matches))
	for i := start; i < end; i++ {
		cur := m.matches[i]
		line := fmt.Sprintf("%s  %s", cur.String(), cur.Name)
		if i == m.cursor {
			b.WriteString(s.Selected.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) historyView() string {
	s := m.styles
	entries := m.eng.History()
	var b strings.Builder
	b.WriteString(s.Label.Render("History"))
	b.WriteString("\n")
	if len(entries) == 0 {
		b.WriteString(s.Muted.Render("No conversions yet"))
		b.WriteString("\n")
		return b.String()
	}
	decimals := m.eng.Preferences().DecimalPlaces
	for i, e := range entries {
		if i == historyRows {
			break
		}
		from, to := engine.FormatEntryAmounts(e, m.eng.Catalog(), decimals)
		fmt.Fprintf(&b, "%s  %s %s → %s %s\n",
			s.Muted.Render(e.Timestamp.Local().Format("15:04:05")),
			from, e.FromCode, to, e.ToCode)
	}
	return b.String()
}

func (m *Model) helpView() string {
	parts := make([]string, 0, 6)
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.Help.Render(strings.Join(parts, " • "))
}

// Run starts the program on the terminal and feeds it engine snapshots
// until the user quits or ctx is cancelled.
func Run(ctx context.Context, eng Engine, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, eng), opts...)

	// Engine callbacks can fire from inside Update, so they must not block
	// on the program. Only the newest snapshot is kept.
	latest := make(chan engine.State, 1)
	unsubscribe := eng.Subscribe(func(s engine.State) {
		select {
		case <-latest:
		default:
		}
		select {
		case latest <- s:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case s := <-latest:
				p.Send(StateChanged{State: s})
			case <-done:
				return
			}
		}
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
