package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ameztoy/crosstune/internal/match"
	"github.com/ameztoy/crosstune/internal/migrate"
)

// TUIDecider implements [migrate.Decider] with a bubbletea prompt per item.
// Each call blocks until the user commits an action; ctrl+c degrades to a
// skip rather than tearing down the run.
type TUIDecider struct{}

var _ migrate.Decider = (*TUIDecider)(nil)

// NewTUIDecider creates the interactive decider.
func NewTUIDecider() *TUIDecider {
	return &TUIDecider{}
}

// Decide prompts for one low-confidence item.
func (d *TUIDecider) Decide(item migrate.PlannedItem) migrate.Decision {
	model := newDecisionModel(item)

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return migrate.Decision{Action: migrate.ActionSkip}
	}

	if m, ok := final.(*decisionModel); ok {
		return m.decision
	}
	return migrate.Decision{Action: migrate.ActionSkip}
}

// Pick presents ranked alternatives and returns the selected index.
func (d *TUIDecider) Pick(item migrate.PlannedItem, alternatives []match.Scored) (int, bool) {
	model := newPickModel(item, alternatives)

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return 0, false
	}

	if m, ok := final.(*pickModel); ok {
		return m.selected, m.picked
	}
	return 0, false
}

// promptState tracks whether the prompt is on its action menu or collecting
// a manual ID.
type promptState int

const (
	chooseAction promptState = iota
	enterManualID
)

// decisionModel renders one item's accept/manual/list/skip prompt.
type decisionModel struct {
	item     migrate.PlannedItem
	state    promptState
	input    textinput.Model
	decision migrate.Decision
	help     help.Model
	keys     keyMap
}

func newDecisionModel(item migrate.PlannedItem) *decisionModel {
	input := textinput.New()
	input.Placeholder = "track ID or URL"
	input.CharLimit = 200

	return &decisionModel{
		item:     item,
		state:    chooseAction,
		input:    input,
		decision: migrate.Decision{Action: migrate.ActionSkip},
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func (m *decisionModel) Init() tea.Cmd {
	return nil
}

func (m *decisionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == enterManualID {
		return m.updateManualInput(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.accept):
		if m.item.Resolution.Resolved() {
			m.decision = migrate.Decision{Action: migrate.ActionAccept}
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.manual):
		m.state = enterManualID
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(keyMsg, m.keys.list):
		m.decision = migrate.Decision{Action: migrate.ActionList}
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.skip), key.Matches(keyMsg, m.keys.quit):
		m.decision = migrate.Decision{Action: migrate.ActionSkip}
		return m, tea.Quit
	}

	return m, nil
}

func (m *decisionModel) updateManualInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		m.decision = migrate.Decision{Action: migrate.ActionManual, Payload: m.input.Value()}
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.state = chooseAction
		m.input.Blur()
		m.input.SetValue("")
		return m, nil

	case key.Matches(msg, m.keys.quit):
		m.decision = migrate.Decision{Action: migrate.ActionSkip}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *decisionModel) View() string {
	title := styles.title.Render(fmt.Sprintf("Low confidence: %s - %s",
		m.item.SourceArtist, m.item.SourceTrack))

	var suggestion string
	if m.item.Resolution.Resolved() {
		suggestion = fmt.Sprintf("Suggested: %s - %s %s",
			m.item.Resolution.Artists,
			m.item.Resolution.Title,
			styles.warn.Render(fmt.Sprintf("(score %d)", m.item.Resolution.Score)))
	} else {
		suggestion = styles.err.Render("No candidate found")
	}

	if m.state == enterManualID {
		prompt := "Paste a track ID or URL:"
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
		return fmt.Sprintf("%s\n%s\n\n%s\n%s\n\n%s", title, suggestion, prompt, m.input.View(), helpView)
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s", title, suggestion, helpView)
}

// candidateItem wraps [match.Scored] to implement [list.Item].
type candidateItem struct {
	scored match.Scored
}

var _ list.Item = candidateItem{}

func (i candidateItem) FilterValue() string { return i.scored.Candidate.Title }
func (i candidateItem) Title() string       { return i.scored.Candidate.Title }
func (i candidateItem) Description() string {
	return fmt.Sprintf("%s • score %d", i.scored.Candidate.JoinedArtists(), i.scored.Score)
}

// pickModel renders the ranked-alternatives selector.
type pickModel struct {
	list     list.Model
	selected int
	picked   bool
	keys     keyMap
}

func newPickModel(item migrate.PlannedItem, alternatives []match.Scored) *pickModel {
	items := make([]list.Item, len(alternatives))
	for i, alt := range alternatives {
		items[i] = candidateItem{scored: alt}
	}

	l := list.New(items, list.NewDefaultDelegate(), 60, 20)
	l.Title = fmt.Sprintf("Alternatives for %s - %s", item.SourceArtist, item.SourceTrack)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return &pickModel{list: l, keys: newKeyMap()}
}

func (m *pickModel) Init() tea.Cmd {
	return nil
}

func (m *pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.enter):
			m.selected = m.list.Index()
			m.picked = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.skip), key.Matches(msg, m.keys.quit):
			m.picked = false
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *pickModel) View() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n\n%s", m.list.View(), help.New().ShortHelpView(helpKeys))
}
