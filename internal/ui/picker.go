package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Key bindings
var keys = struct {
	Quit       key.Binding
	Down       key.Binding
	Up         key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Post       key.Binding
	Regenerate key.Binding
}{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
	Down:       key.NewBinding(key.WithKeys("j", "down")),
	Up:         key.NewBinding(key.WithKeys("k", "up")),
	Top:        key.NewBinding(key.WithKeys("g", "home")),
	Bottom:     key.NewBinding(key.WithKeys("G", "end")),
	Post:       key.NewBinding(key.WithKeys("enter")),
	Regenerate: key.NewBinding(key.WithKeys("r")),
}

// Picker lists candidate messages and lets the user post one.
// It does not hold the corpus or the client; work happens in the commands
// it is given.
type Picker struct {
	generate func() tea.Cmd
	post     func(text string) tea.Cmd // nil in dry-run: enter only selects

	messages []string
	cursor   int
	err      error
	width    int
	height   int
	loading  bool
	posting  bool
	chosen   string
	spinner  spinner.Model
}

// NewPicker creates a Picker. generate must return a command producing a
// MessagesGenerated; post, when not nil, a command producing a
// MessagePosted.
func NewPicker(generate func() tea.Cmd, post func(text string) tea.Cmd) Picker {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Picker{
		generate: generate,
		post:     post,
		loading:  generate != nil,
		spinner:  s,
	}
}

// Init starts the first generator run.
func (p Picker) Init() tea.Cmd {
	if p.generate == nil {
		return nil
	}
	return tea.Batch(p.generate(), p.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case MessagesGenerated:
		p.loading = false
		if msg.Err != nil {
			p.err = msg.Err
			return p, nil
		}
		p.messages = msg.Messages
		p.cursor = 0
		p.err = nil
		return p, nil

	case MessagePosted:
		p.posting = false
		if msg.Err != nil {
			p.err = msg.Err
			return p, nil
		}
		p.chosen = msg.Text
		return p, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	}

	return p, nil
}

// handleKeyMsg processes keyboard input.
func (p Picker) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	p.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		return p, tea.Quit

	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.messages)-1 {
			p.cursor++
		}

	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}

	case key.Matches(msg, keys.Top):
		p.cursor = 0

	case key.Matches(msg, keys.Bottom):
		if len(p.messages) > 0 {
			p.cursor = len(p.messages) - 1
		}

	case key.Matches(msg, keys.Post):
		if p.busy() || len(p.messages) == 0 {
			return p, nil
		}
		text := p.messages[p.cursor]
		if p.post == nil {
			p.chosen = text
			return p, tea.Quit
		}
		p.posting = true
		return p, p.post(text)

	case key.Matches(msg, keys.Regenerate):
		if p.busy() || p.generate == nil {
			return p, nil
		}
		p.loading = true
		return p, tea.Batch(p.generate(), p.spinner.Tick)
	}

	return p, nil
}

func (p Picker) busy() bool {
	return p.loading || p.posting
}

// View renders the UI.
func (p Picker) View() string {
	if p.chosen != "" {
		label := "Posted: "
		if p.post == nil {
			label = "Selected: "
		}
		return doneStyle.Render(label) + p.chosen + "\n"
	}

	var status string
	switch {
	case p.loading:
		status = p.spinner.View() + " Generating..."
	case p.posting:
		status = p.spinner.View() + " Posting..."
	}

	list := RenderMessages(p.messages, p.cursor, p.width)

	errorBar := ""
	if p.err != nil {
		errorBar = errorStyle.Render("Error: "+p.err.Error()) + "\n"
	}

	return list + errorBar + RenderStatusBar(p.cursor, len(p.messages), p.width, status, p.post == nil)
}

// Cursor returns the current cursor position (for testing).
func (p Picker) Cursor() int {
	return p.cursor
}

// Messages returns the current candidates (for testing).
func (p Picker) Messages() []string {
	return p.messages
}

// Chosen returns the message that was posted, or selected in dry-run. It is
// empty when the user quit without choosing.
func (p Picker) Chosen() string {
	return p.chosen
}

// Run shows the picker until the user posts a message or quits, and
// returns the chosen message.
func Run(ctx context.Context, p Picker) (string, error) {
	final, err := tea.NewProgram(p, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	return final.(Picker).Chosen(), nil
}
