package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/ttc/log"
	"github.com/ardnew/ttc/tmpl"
)

// editDoneMsg is sent when an edited fragment parsed successfully.
type editDoneMsg struct{ text string }

// editCancelledMsg is sent when the user emptied the editor content.
type editCancelledMsg struct{}

// editErrorMsg is sent when the edit failed or was declined.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "» "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  set K=V    Bind parameter K (dotted keys nest)
  unset K    Remove parameter K
  params     Show bound parameters
  gen        Show the script generated for the last fragment
  edit       Edit the last fragment in $EDITOR and render it
  clear      Clear screen
  help       Print this help
  quit       Exit REPL

Usage:
  Type a template fragment to render it, e.g. Hello <#= name #>!
  Completions appear as you type; Tab / Shift-Tab cycle candidates
  Press Esc to toggle between render and command modes
  Up/Down browse history (mode switches automatically)
  Shift+Up/Shift+Down browse history of the current mode only
  Press Ctrl+C on an empty line or Ctrl+D to exit
`

// inputMode is the interpretation of an input line.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)

	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// formatCommand formats the echo of a rendered fragment.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the echo of a command.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// Config configures a REPL session.
type Config struct {
	// Params are the initial parameter bindings.
	Params tmpl.Params
	// Evaluator renders fragments.
	Evaluator tmpl.Evaluator
	// HistoryPath is the history file. Empty keeps history in memory.
	HistoryPath string
	Logger      log.Logger
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *session
	logger       log.Logger
	history      *History
	historyIdx   int
	comp         completion
	suggIdx      int    // selected candidate index
	tabActive    bool   // whether user is tab-cycling
	preTabText   string // input text before tab-cycling began
	preTabCursor int    // cursor position before tab-cycling began
	width        int    // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	evalText     string
	evalCursor   int
	ctrlText     string
	ctrlCursor   int
}

// Run starts an interactive session and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("history", cfg.HistoryPath),
		slog.Int("param_count", len(cfg.Params)),
	)

	history := NewHistory(cfg.HistoryPath)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history",
			slog.String("path", cfg.HistoryPath),
			slog.Any("error", err),
		)
	}

	m := newModel(ctx, newSession(cfg.Params, cfg.Evaluator, cfg.Logger), history, cfg.Logger)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    s,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		return m, m.renderCmd(msg.text)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hintLine())
	b.WriteString("\n")

	return b.String()
}

// hintLine is the line below the input: the history position, a usage hint,
// a signature or the completion bar.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type a template fragment or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (Esc to return)")
	}

	if m.mode == modeEval {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if sig, params := signatureOf(call.name); sig != "" {
				return renderSignatureHint(sig, params, call.argIndex)
			}
		}
	}

	return renderCandidateBar(m.comp, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refresh(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.comp.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current candidate without executing.
		m.tabActive = false
		m.refresh(true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyPrev(), nil

	case tea.KeyDown:
		return m.historyNext(), nil

	case tea.KeyShiftUp:
		return m.historySeek(-1), nil

	case tea.KeyShiftDown:
		return m.historySeek(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refresh(false)

			return m, nil
		}

		if m.mode == modeEval {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeEval), nil

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.refresh(true)

		return m, cmd
	}

	// Deletion and cursor movement recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh(false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping at either end. A single
// candidate is completed immediately.
func (m model) cycle(step int) model {
	n := len(m.comp.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceWord(m.comp.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.comp.matches = nil

		return m
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n
	case step > 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = n - 1
	}

	m.replaceWord(m.comp.matches[m.suggIdx].Str)

	return m
}

// replaceWord replaces the current word with s and moves the cursor after it.
func (m *model) replaceWord(s string) {
	input := m.input.Value()
	cursor := m.comp.wordStart + len(s)

	m.input.SetValue(input[:m.comp.wordStart] + s + input[m.comp.wordEnd:])
	m.input.SetCursor(cursor)

	m.comp.wordEnd = cursor
}

// refresh recomputes completions. With autoConfirm, a word that already
// equals the sole candidate is accepted so the bar clears.
func (m *model) refresh(autoConfirm bool) {
	m.comp = m.session.complete(m.mode, m.input.Value(), m.input.Position())

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.comp.matches) != 1 {
		return
	}

	if m.input.Value()[m.comp.wordStart:m.comp.wordEnd] == m.comp.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.comp.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.comp = completion{}

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "history write failed", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	return m, tea.Sequence(tea.Println(formatCommand(input)), m.renderCmd(input))
}

// renderCmd renders fragment and prints the result or the error.
func (m model) renderCmd(fragment string) tea.Cmd {
	out, err := m.session.render(m.ctxFunc(), fragment)
	if err != nil {
		return tea.Println(errorStyle.Render("error: " + err.Error()))
	}

	return tea.Println(resultStyle.Render(strings.TrimSuffix(out, "\n")))
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	echo := tea.Println(formatCtrlCommand(input))

	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", name),
		slog.String("arg", arg),
	)

	out, err := m.session.command(name, arg)

	switch {
	case errors.Is(err, ErrUnknownCmd):
		return m, tea.Sequence(echo,
			tea.Println(errorStyle.Render(err.Error()+": "+name+" (try 'help')")))

	case err != nil:
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())
	}

	if out == "" {
		return m, echo
	}

	return m, tea.Sequence(echo, tea.Println(out))
}

// edit suspends the program to edit the last fragment in $EDITOR.
func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		text:    m.session.text,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.edited == "":
			return editCancelledMsg{}
		default:
			return editDoneMsg{text: cmd.edited}
		}
	})
}

// historyPrev shows the previous entry, switching to its mode.
func (m model) historyPrev() model {
	if m.historyIdx == 0 {
		return m
	}

	m.historyIdx--

	return m.showEntry(m.historyIdx, true)
}

// historyNext shows the next entry, or clears the input past the newest.
func (m model) historyNext() model {
	if m.historyIdx >= m.history.Len()-1 {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refresh(false)

		return m
	}

	m.historyIdx++

	return m.showEntry(m.historyIdx, true)
}

// historySeek moves by step to the nearest entry in the current mode.
func (m model) historySeek(step int) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		if e, err := m.history.Entry(i); err == nil && e.Mode == m.mode {
			m.historyIdx = i

			return m.showEntry(i, false)
		}
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refresh(false)
	}

	return m
}

func (m model) showEntry(i int, switchMode bool) model {
	e, err := m.history.Entry(i)
	if err != nil {
		return m
	}

	if switchMode && e.Mode != m.mode {
		m = m.switchToMode(e.Mode)
	}

	m.input.SetValue(e.Line)
	m.input.SetCursor(len(e.Line))
	m.refresh(false)

	return m
}

// switchToMode switches modes, keeping each mode's pending input.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText, m.evalCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	m.refresh(false)

	return m
}
