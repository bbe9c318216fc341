package ui

import (
	"errors"
	"fmt"
	"strings"

	"voicecmd/engine"
	"voicecmd/model"
	"voicecmd/reconcile"
	"voicecmd/runner"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeEdit
	modeDelete
	modeSay
)

const (
	fieldPhrase = iota
	fieldType
	fieldAction
	fieldDescription
)

type App struct {
	engine   *engine.Engine
	commands []model.Command
	filtered []model.Command

	// UI state
	mode   mode
	cursor int
	width  int
	height int
	err    string
	status string

	// Search
	searchInput textinput.Model

	// Output
	output      viewport.Model
	outputLines []string
	running     bool
	outputChan  chan runner.OutputMsg

	// Form (add/edit)
	formInputs []textinput.Model
	formFocus  int
	editingCmd *model.Command

	// Say box
	sayInput textinput.Model
}

// ReconciledMsg tells the UI a folder pass finished and the list may have changed.
type ReconciledMsg reconcile.Result

func NewApp(e *engine.Engine) *App {
	search := textinput.New()
	search.Placeholder = "Filter commands..."
	search.Focus()

	say := textinput.New()
	say.Placeholder = "Type what you would say..."

	commands := e.Commands()
	return &App{
		engine:      e,
		commands:    commands,
		filtered:    commands,
		searchInput: search,
		sayInput:    say,
		output:      viewport.New(80, 10),
	}
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

type outputMsg runner.OutputMsg

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width - 4
		a.height = msg.Height - 2
		a.output.Width = a.width - 4
		a.output.Height = a.height / 3
		return a, nil

	case ReconciledMsg:
		a.refreshCommands()
		if msg.Added > 0 || msg.Updated > 0 {
			a.status = fmt.Sprintf("Apps folder: %d added, %d updated", msg.Added, msg.Updated)
		}
		return a, nil

	case outputMsg:
		if msg.Done {
			a.running = false
			a.outputChan = nil
			if msg.ErrMsg != "" {
				a.appendOutput(errorStyle.Render("Error: " + msg.ErrMsg))
			}
			return a, nil
		}
		line := msg.Line
		if msg.IsErr {
			line = errorStyle.Render(line)
		}
		a.appendOutput(line)
		return a, waitForOutput(a.outputChan)

	case tea.KeyMsg:
		a.err = ""
		a.status = ""

		switch a.mode {
		case modeNormal:
			return a.updateNormal(msg)
		case modeAdd, modeEdit:
			return a.updateForm(msg)
		case modeDelete:
			return a.updateDelete(msg)
		case modeSay:
			return a.updateSay(msg)
		}
	}

	return a, nil
}

func (a *App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "up", "ctrl+k":
		if a.cursor > 0 {
			a.cursor--
		}

	case "down", "ctrl+j":
		if a.cursor < len(a.filtered)-1 {
			a.cursor++
		}

	case "enter":
		if len(a.filtered) > 0 {
			return a.dispatch(a.filtered[a.cursor], "")
		}

	case "ctrl+a":
		a.mode = modeAdd
		a.editingCmd = nil
		a.initForm(nil)
		return a, nil

	case "ctrl+e":
		if len(a.filtered) > 0 {
			a.mode = modeEdit
			cmd := a.filtered[a.cursor]
			a.editingCmd = &cmd
			a.initForm(&cmd)
		}
		return a, nil

	case "ctrl+d":
		if len(a.filtered) > 0 {
			a.mode = modeDelete
		}
		return a, nil

	case "ctrl+s":
		a.mode = modeSay
		a.searchInput.Blur()
		a.sayInput.SetValue("")
		return a, a.sayInput.Focus()

	case "ctrl+r":
		res, err := a.engine.Reconcile()
		if err != nil {
			a.err = err.Error()
			return a, nil
		}
		a.refreshCommands()
		a.status = fmt.Sprintf("Rescanned: %d added, %d updated, %d skipped", res.Added, res.Updated, res.Skipped)

	case "esc":
		a.searchInput.SetValue("")
		a.filterCommands()

	default:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		a.filterCommands()
		return a, cmd
	}

	return a, nil
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.mode = modeNormal
		a.searchInput.Focus()
		return a, nil

	case "tab", "down":
		a.formFocus = (a.formFocus + 1) % len(a.formInputs)
		return a, a.focusFormInput()

	case "shift+tab", "up":
		a.formFocus--
		if a.formFocus < 0 {
			a.formFocus = len(a.formInputs) - 1
		}
		return a, a.focusFormInput()

	case "enter":
		return a.submitForm()

	default:
		var cmd tea.Cmd
		a.formInputs[a.formFocus], cmd = a.formInputs[a.formFocus].Update(msg)
		return a, cmd
	}
}

func (a *App) updateDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if len(a.filtered) > 0 {
			cmd := a.filtered[a.cursor]
			if err := a.engine.Store.Remove(cmd.ID); err != nil {
				a.err = err.Error()
			} else {
				a.status = "Deleted!"
				a.refreshCommands()
				if a.cursor >= len(a.filtered) && a.cursor > 0 {
					a.cursor--
				}
			}
		}
		a.mode = modeNormal
		return a, nil

	case "n", "N", "esc":
		a.mode = modeNormal
		return a, nil
	}

	return a, nil
}

func (a *App) updateSay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.mode = modeNormal
		a.sayInput.Blur()
		return a, a.searchInput.Focus()

	case "enter":
		text := a.sayInput.Value()
		a.sayInput.SetValue("")
		r, ok := a.engine.Matcher.Match(text)
		if !ok {
			a.outputLines = []string{cmdPreviewStyle.Render("\"" + text + "\""), warningStyle.Render("No matching command")}
			a.output.SetContent(strings.Join(a.outputLines, "\n"))
			return a, nil
		}
		note := fmt.Sprintf("%s match (%.2f)", r.Strategy, r.Score)
		return a.dispatch(r.Command, note)

	default:
		var cmd tea.Cmd
		a.sayInput, cmd = a.sayInput.Update(msg)
		return a, cmd
	}
}

// dispatch runs c. App commands stream their output into the output pane;
// everything else goes through the engine's dispatcher.
func (a *App) dispatch(c model.Command, note string) (tea.Model, tea.Cmd) {
	header := cmdPreviewStyle.Render(fmt.Sprintf("▸ %s [%s] %s", c.Phrase, c.Type, c.Action))
	a.outputLines = []string{header}
	if note != "" {
		a.outputLines = append(a.outputLines, matchStyle.Render(note))
	}
	a.outputLines = append(a.outputLines, "")
	a.output.SetContent(strings.Join(a.outputLines, "\n"))

	if c.Type != model.TypeApp {
		if err := a.engine.Dispatcher.Dispatch(c); err != nil {
			if errors.Is(err, runner.ErrNoHandler) {
				a.appendOutput(warningStyle.Render("No handler registered for this action"))
			} else {
				a.appendOutput(errorStyle.Render("Error: " + err.Error()))
			}
		} else {
			a.appendOutput(successStyle.Render("Done"))
		}
		return a, nil
	}

	if a.running {
		a.err = "A program is already running"
		return a, nil
	}
	a.running = true
	a.outputChan = make(chan runner.OutputMsg)
	go runner.Stream(c.Action, a.outputChan)

	return a, waitForOutput(a.outputChan)
}

func (a *App) appendOutput(line string) {
	a.outputLines = append(a.outputLines, line)
	a.output.SetContent(strings.Join(a.outputLines, "\n"))
	a.output.GotoBottom()
}

func waitForOutput(ch chan runner.OutputMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return outputMsg{Done: true}
		}
		return outputMsg(msg)
	}
}

func (a *App) initForm(cmd *model.Command) {
	a.formInputs = make([]textinput.Model, 4)

	phraseInput := textinput.New()
	phraseInput.Placeholder = "Phrase (e.g., open browser)"
	phraseInput.Focus()

	typeInput := textinput.New()
	typeInput.Placeholder = "Type: app, keyboard or system"

	actionInput := textinput.New()
	actionInput.Placeholder = "Action (program path, key name or system action)"

	descInput := textinput.New()
	descInput.Placeholder = "Description (optional)"

	if cmd != nil {
		phraseInput.SetValue(cmd.Phrase)
		typeInput.SetValue(string(cmd.Type))
		actionInput.SetValue(cmd.Action)
		descInput.SetValue(cmd.Description)
	}

	a.formInputs[fieldPhrase] = phraseInput
	a.formInputs[fieldType] = typeInput
	a.formInputs[fieldAction] = actionInput
	a.formInputs[fieldDescription] = descInput
	a.formFocus = 0
}

func (a *App) focusFormInput() tea.Cmd {
	for i := range a.formInputs {
		a.formInputs[i].Blur()
	}
	return a.formInputs[a.formFocus].Focus()
}

func (a *App) formValues() (model.CommandInput, error) {
	typ, err := model.ParseType(a.formInputs[fieldType].Value())
	if err != nil {
		return model.CommandInput{}, err
	}
	in := model.CommandInput{
		Phrase:      strings.TrimSpace(a.formInputs[fieldPhrase].Value()),
		Type:        typ,
		Action:      strings.TrimSpace(a.formInputs[fieldAction].Value()),
		Description: strings.TrimSpace(a.formInputs[fieldDescription].Value()),
	}
	if in.Action == "" {
		return model.CommandInput{}, errors.New("phrase, type and action are required")
	}
	return in, in.Validate()
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	in, err := a.formValues()
	if err != nil {
		a.err = err.Error()
		return a, nil
	}

	if a.mode == modeAdd {
		if _, err := a.engine.Store.Add(in); err != nil {
			a.err = err.Error()
			return a, nil
		}
		a.status = "Added!"
	} else {
		if _, err := a.engine.Store.Update(a.editingCmd.ID, in); err != nil {
			a.err = err.Error()
			return a, nil
		}
		a.status = "Updated!"
	}

	a.refreshCommands()
	a.mode = modeNormal
	a.searchInput.Focus()
	return a, nil
}

func (a *App) refreshCommands() {
	a.commands = a.engine.Commands()
	a.filterCommands()
}

func (a *App) filterCommands() {
	query := a.searchInput.Value()
	if query == "" {
		a.filtered = a.commands
	} else {
		// Build searchable strings
		var targets []string
		for _, c := range a.commands {
			targets = append(targets, c.Phrase+" "+c.Action)
		}

		matches := fuzzy.Find(query, targets)
		a.filtered = make([]model.Command, len(matches))
		for i, m := range matches {
			a.filtered[i] = a.commands[m.Index]
		}
	}

	if a.cursor >= len(a.filtered) {
		a.cursor = max(0, len(a.filtered)-1)
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("voicecmd"))
	b.WriteString("\n\n")

	if a.mode == modeSay {
		b.WriteString(labelStyle.Render("Say: "))
		b.WriteString(a.sayInput.View())
	} else {
		b.WriteString(a.searchInput.View())
	}
	b.WriteString("\n\n")

	listHeight := (a.height - a.output.Height - 10) / 2
	if listHeight < 3 {
		listHeight = 3
	}

	if a.mode == modeAdd || a.mode == modeEdit {
		b.WriteString(a.renderForm())
	} else {
		b.WriteString(a.renderList(listHeight))
	}

	if a.mode == modeDelete && len(a.filtered) > 0 {
		cmd := a.filtered[a.cursor]
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("Delete '%s'? (y/n)", cmd.Phrase)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(outputTitleStyle.Render("OUTPUT"))
	b.WriteString("\n")
	b.WriteString(borderStyle.Width(a.width - 4).Render(a.output.View()))
	b.WriteString("\n")

	if a.err != "" {
		b.WriteString(errorStyle.Render("Error: " + a.err))
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString(successStyle.Render(a.status))
		b.WriteString("\n")
	}

	b.WriteString(a.renderHelp())

	return appStyle.Render(b.String())
}

func (a *App) renderList(height int) string {
	if len(a.filtered) == 0 {
		return mutedStyle.Render("No commands found. Press ctrl+a to add one.\n")
	}

	var lines []string
	start := 0
	if a.cursor >= height {
		start = a.cursor - height + 1
	}
	end := min(start+height, len(a.filtered))

	for i := start; i < end; i++ {
		cmd := a.filtered[i]
		prefix := "  "
		style := normalStyle
		if i == a.cursor {
			prefix = "▸ "
			style = selectedStyle
		}

		name := style.Render(prefix+cmd.Phrase) + " " + typeStyle.Render(string(cmd.Type))
		preview := cmdPreviewStyle.Render("  " + truncate(cmd.Action, a.width-10))
		lines = append(lines, name, preview)
	}

	return strings.Join(lines, "\n") + "\n"
}

func (a *App) renderForm() string {
	var b strings.Builder

	title := "Add Command"
	if a.mode == modeEdit {
		title = "Edit Command"
	}
	b.WriteString(labelStyle.Render(title))
	b.WriteString("\n\n")

	labels := []string{"Phrase", "Type", "Action", "Description"}
	for i, input := range a.formInputs {
		b.WriteString(labelStyle.Render(labels[i] + ": "))
		style := inputStyle
		if i == a.formFocus {
			style = focusedInputStyle
		}
		b.WriteString(style.Width(a.width - 20).Render(input.View()))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("tab: next field • enter: save • esc: cancel"))
	b.WriteString("\n")

	return b.String()
}

func (a *App) renderHelp() string {
	var keys []struct{ key, desc string }
	switch a.mode {
	case modeNormal:
		keys = []struct{ key, desc string }{
			{"enter", "run"},
			{"ctrl+s", "say"},
			{"ctrl+a", "add"},
			{"ctrl+e", "edit"},
			{"ctrl+d", "delete"},
			{"ctrl+r", "rescan"},
			{"ctrl+c", "quit"},
		}
	case modeSay:
		keys = []struct{ key, desc string }{
			{"enter", "match & run"},
			{"esc", "back"},
		}
	default:
		return ""
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k.key)+" "+helpStyle.Render(k.desc))
	}

	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	if n < 4 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
