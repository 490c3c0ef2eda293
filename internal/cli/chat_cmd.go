package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/amarchal/majordome/internal/cli/formatter"
)

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Conversation interactive avec l'assistant",
		Long: `Ouvre une boucle de conversation. Chaque message passe par le
même pipeline que Telegram: clarifications, création de tâches,
briefings. Quitter avec "exit" ou Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("chat requires an interactive terminal")
			}
			p := tea.NewProgram(newChatModel(app))
			_, err := p.Run()
			return err
		},
	}
}

// replyMsg carries the router's rendered answer back into the model.
type replyMsg struct {
	text string
}

// chatModel is the bubbletea model for the chat REPL.
type chatModel struct {
	app     *App
	input   textinput.Model
	spin    spinner.Model
	waiting bool
	exiting bool
}

func newChatModel(app *App) chatModel {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = formatter.StyleBlue.Render("vous> ")
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StyleDim

	return chatModel{app: app, input: ti, spin: sp}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.Println(formatter.Dim("Majordome. Écris-moi, ou \"exit\" pour quitter.")),
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.exiting = true
			return m, tea.Quit
		}
		if m.waiting {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			if text == "exit" || text == "quit" {
				m.exiting = true
				return m, tea.Quit
			}
			m.input.Reset()
			m.waiting = true
			return m, tea.Batch(
				tea.Println(formatter.StyleBlue.Render("vous> ")+text),
				m.spin.Tick,
				m.ask(text),
			)
		}

	case replyMsg:
		m.waiting = false
		return m, tea.Println(msg.text)

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) View() string {
	if m.exiting {
		return ""
	}
	if m.waiting {
		return m.spin.View() + formatter.Dim(" réflexion...")
	}
	return m.input.View()
}

// ask runs the message through the router off the update loop.
func (m chatModel) ask(text string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.app.Router.HandleMessage(context.Background(), localChatID, text)
		if err != nil {
			return replyMsg{text: formatter.Error(err)}
		}
		return replyMsg{text: strings.TrimRight(formatter.FormatOutcome(out), "\n")}
	}
}
