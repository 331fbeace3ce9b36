package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgomes/bindcapture/capture"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

var replCommands = []string{"run", "all", "seq", "shared", "per-iteration"}

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

// storedCallback is a callback the user bound to a name, kept with the run
// that produced it so the panel can describe it.
type storedCallback struct {
	fn         capture.Callback
	discipline capture.Discipline
	iterations int
	captureAt  int
}

type replModel struct {
	textInput textinput.Model
	callbacks map[string]storedCallback
	history   []historyEntry
	width     int
	height    int
	showHelp  bool
	showVars  bool
	quitting  bool
}

type keyMap struct {
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlV key.Binding
	CtrlH key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlV: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "toggle callbacks"),
	),
	CtrlH: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

func newREPLModel() replModel {
	ti := textinput.New()
	ti.Placeholder = "run shared 3 2"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "capture> "

	return replModel{
		textInput: ti,
		callbacks: make(map[string]storedCallback),
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 12
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = nil
			return m, nil

		case key.Matches(msg, keys.CtrlV):
			m.showVars = !m.showVars
			return m, nil

		case key.Matches(msg, keys.CtrlH):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				return m, cmd
			}

			output, isErr := m.evaluate(input)
			m.history = append(m.history, historyEntry{
				input:  input,
				output: output,
				isErr:  isErr,
			})
			m.textInput.SetValue("")
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = nil
	case ":vars", ":v":
		m.showVars = !m.showVars
	case ":reset", ":r":
		m.callbacks = make(map[string]storedCallback)
		m.history = append(m.history, historyEntry{
			input:  input,
			output: "Callbacks reset",
		})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	if input == "" {
		return m
	}

	words := strings.Fields(input)
	if len(words) == 0 {
		return m
	}
	lastWord := words[len(words)-1]

	var completions []string
	for _, c := range replCommands {
		if strings.HasPrefix(c, lastWord) {
			completions = append(completions, c)
		}
	}
	for _, name := range m.callbackNames() {
		if strings.HasPrefix(name, lastWord) {
			completions = append(completions, name)
		}
	}

	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}

	return m
}

// evaluate handles one input line:
//
//	run <discipline> <n> <at>   invoke the callback stored at iteration <at>
//	all <discipline> <n>        invoke a callback stored on every iteration
//	seq <n>                     the sequence the loop body observes
//	name = run ...              keep the callback under name
//	name | name()               invoke a kept callback again
func (m replModel) evaluate(input string) (string, bool) {
	if name, rhs, ok := strings.Cut(input, "="); ok {
		name = strings.TrimSpace(name)
		if !isValidIdentifier(name) {
			return fmt.Sprintf("invalid name %q", name), true
		}
		stored, err := parseRun(strings.Fields(rhs))
		if err != nil {
			return err.Error(), true
		}
		m.callbacks[name] = stored
		return invokeStored(stored)
	}

	fields := strings.Fields(input)
	switch fields[0] {
	case "run":
		stored, err := parseRun(fields)
		if err != nil {
			return err.Error(), true
		}
		return invokeStored(stored)
	case "all":
		return evaluateAll(fields)
	case "seq":
		if len(fields) != 2 {
			return "usage: seq <n>", true
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Sprintf("invalid count %q", fields[1]), true
		}
		seq, err := capture.CollectSequence(n)
		if err != nil {
			return err.Error(), true
		}
		return fmt.Sprint(seq), false
	}

	name := strings.TrimSuffix(fields[0], "()")
	if len(fields) == 1 {
		if stored, ok := m.callbacks[name]; ok {
			return invokeStored(stored)
		}
	}
	return fmt.Sprintf("unknown input %q", input), true
}

func parseRun(fields []string) (storedCallback, error) {
	if len(fields) != 4 || fields[0] != "run" {
		return storedCallback{}, errors.New("usage: run <shared|per-iteration> <n> <at>")
	}
	d, err := capture.ParseDiscipline(fields[1])
	if err != nil {
		return storedCallback{}, err
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil {
		return storedCallback{}, fmt.Errorf("invalid count %q", fields[2])
	}
	at, err := strconv.Atoi(fields[3])
	if err != nil {
		return storedCallback{}, fmt.Errorf("invalid index %q", fields[3])
	}
	fn, err := capture.RunLoop(d, n, at)
	if err != nil {
		return storedCallback{}, err
	}
	return storedCallback{fn: fn, discipline: d, iterations: n, captureAt: at}, nil
}

func evaluateAll(fields []string) (string, bool) {
	if len(fields) != 3 {
		return "usage: all <shared|per-iteration> <n>", true
	}
	d, err := capture.ParseDiscipline(fields[1])
	if err != nil {
		return err.Error(), true
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil {
		return fmt.Sprintf("invalid count %q", fields[2]), true
	}
	loop := capture.Loop{Discipline: d, Iterations: n, Guard: capture.Every}
	out, err := loop.Exec()
	if err != nil {
		return err.Error(), true
	}
	values := make([]int, 0, len(out.Callbacks))
	for _, cb := range out.Callbacks {
		v, err := cb()
		if err != nil {
			return err.Error(), true
		}
		values = append(values, v)
	}
	return fmt.Sprint(values), false
}

func invokeStored(stored storedCallback) (string, bool) {
	v, err := stored.fn()
	if err != nil {
		return err.Error(), true
	}
	return strconv.Itoa(v), false
}

func (m replModel) callbackNames() []string {
	names := make([]string, 0, len(m.callbacks))
	for name := range m.callbacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_') {
				return false
			}
		} else {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
				return false
			}
		}
	}
	return true
}

func (m replModel) View() string {
	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("Binding Capture REPL")
	b.WriteString(header + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		reservedLines += 12
	}
	if m.showVars {
		reservedLines += len(m.callbacks) + 3
	}
	availableHeight := max(m.height-reservedLines, 0)

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = len(m.history) - availableHeight
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		if entry.isErr {
			b.WriteString("  " + errorStyle.Render("✗ "+entry.output) + "\n")
		} else {
			b.WriteString("  " + resultStyle.Render("→ "+entry.output) + "\n")
		}
		b.WriteString("\n")
	}

	if m.showVars {
		b.WriteString(m.renderCallbacksPanel())
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+v") + helpDescStyle.Render(" callbacks  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func (m replModel) renderCallbacksPanel() string {
	if len(m.callbacks) == 0 {
		return borderStyle.Render(mutedStyle.Render("No callbacks stored"))
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Callbacks"))
	nameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for _, name := range m.callbackNames() {
		stored := m.callbacks[name]
		line := fmt.Sprintf("  %s = run %s %d %d",
			nameStyle.Render(name), stored.discipline, stored.iterations, stored.captureAt)
		lines = append(lines, line)
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"Tab", "Autocomplete"},
		{"run", "run <discipline> <n> <at>"},
		{"all", "all <discipline> <n>"},
		{"seq", "seq <n>"},
		{"x = run", "Keep a callback as x; type x to call it"},
		{":help", "Toggle this help"},
		{":vars", "Toggle callbacks panel"},
		{":clear", "Clear history"},
		{":reset", "Drop stored callbacks"},
		{":quit", "Exit REPL"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-8s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL() error {
	p := tea.NewProgram(newREPLModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
