package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/lexana/foundation/expr/ast"
	"github.com/msto63/lexana/internal/analyzer/render"
	"github.com/msto63/lexana/internal/analyzer/service"
)

// View represents different views in the TUI
type View int

const (
	ViewTree View = iota
	ViewTokens
	ViewSymbols
	ViewSession
)

var viewNames = []string{"Tree", "Tokens", "Symbols", "Session"}

// Analyzer runs one analysis; *service.Service and
// *server.RemoteAnalyzer implement it
type Analyzer interface {
	Analyze(ctx context.Context, input string) (*service.Result, error)
}

// Model is the main TUI model
type Model struct {
	// State
	view    View
	width   int
	height  int
	ready   bool
	loading bool
	err     error

	// Components
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	analyzer Analyzer
	timeout  time.Duration
	source   string

	// Analysis state
	current *service.Result
	session []*service.Result
}

// NewModel creates a new TUI model. source names where analyses run and
// is shown in the footer.
func NewModel(analyzer Analyzer, source string) Model {
	ti := textinput.New()
	ti.Placeholder = "Expression, e.g. (a + b) * c"
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = service.DefaultMaxInputLength
	ti.Width = 76

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		view:     ViewTree,
		input:    ti,
		spinner:  sp,
		analyzer: analyzer,
		timeout:  10 * time.Second,
		source:   source,
	}
}

// Run starts the program in the alternate screen
func Run(analyzer Analyzer, source string) error {
	p := tea.NewProgram(NewModel(analyzer, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			m.view = (m.view + 1) % View(len(viewNames))
			m.updateContent()
			return m, nil

		case "shift+tab":
			m.view = (m.view + View(len(viewNames)) - 1) % View(len(viewNames))
			m.updateContent()
			return m, nil

		case "enter":
			if m.loading {
				return m, nil
			}
			input := m.input.Value()
			if strings.TrimSpace(input) == "" {
				return m, nil
			}
			m.loading = true
			m.err = nil
			return m, tea.Batch(m.analyze(input), m.spinner.Tick)

		case "ctrl+l":
			m.current = nil
			m.session = nil
			m.err = nil
			m.input.Reset()
			m.updateContent()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(1, msg.Height-11))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(1, msg.Height-11)
		}
		m.input.Width = max(10, msg.Width-8)
		m.updateContent()

	case analysisMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.current = msg.result
			m.session = append(m.session, msg.result)
		}
		m.updateContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Update components
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(FocusedInputStyle.Render(m.input.View()))
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.viewport.View())
	s.WriteString("\n")
	s.WriteString(m.renderFooter())

	return s.String()
}

func (m *Model) renderHeader() string {
	var renderedTabs []string
	for i, tab := range viewNames {
		if View(i) == m.view {
			renderedTabs = append(renderedTabs, ActiveTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, TabStyle.Render(tab))
		}
	}

	title := TitleStyle.Render("lexana")
	tabLine := lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabLine)
}

// renderStatus shows the outcome of the last analysis
func (m *Model) renderStatus() string {
	switch {
	case m.loading:
		return m.spinner.View() + " Analyzing..."
	case m.err != nil:
		return RenderError(m.err.Error())
	case m.current == nil:
		return SubtitleStyle.Render("Enter an expression and press Enter.")
	case m.current.Accepted:
		return RenderAccepted()
	default:
		return RenderError(render.ErrorMessage(m.current.Err))
	}
}

func (m *Model) renderFooter() string {
	help := "Enter: Analyze • Tab: Switch • Ctrl+L: Clear • Esc: Quit"
	source := fmt.Sprintf("Analyzer: %s", m.source)

	return StatusBarStyle.Width(m.width).Render(
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			help,
			strings.Repeat(" ", max(0, m.width-lipgloss.Width(help)-lipgloss.Width(source)-4)),
			source,
		),
	)
}

func (m *Model) updateContent() {
	var content string

	switch m.view {
	case ViewTree:
		content = m.treeContent()
	case ViewTokens:
		content = m.tokensContent()
	case ViewSymbols:
		content = m.symbolsContent()
	case ViewSession:
		content = m.sessionContent()
	}

	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func (m *Model) treeContent() string {
	if m.current == nil || m.current.Tree == nil {
		return SubtitleStyle.Render("No parse tree.")
	}
	var sb strings.Builder
	writeStyledTree(&sb, m.current.Tree, 0)
	return sb.String()
}

func (m *Model) tokensContent() string {
	if m.current == nil || len(m.current.Tokens) == 0 {
		return SubtitleStyle.Render("No tokens.")
	}
	var sb strings.Builder
	for _, tok := range m.current.Tokens {
		fmt.Fprintf(&sb, "%-7s %4d  %4d  %s\n",
			tok.Type, tok.ID, tok.Pos, LexemeStyle.Render(tok.Lexeme))
	}
	return SubtitleStyle.Render("TYPE      ID   POS  LEXEME") + "\n" + sb.String()
}

func (m *Model) symbolsContent() string {
	if m.current == nil || m.current.Symbols == nil || m.current.Symbols.Len() == 0 {
		return SubtitleStyle.Render("Symbol table is empty.")
	}
	var sb strings.Builder
	for _, e := range m.current.Symbols.Entries() {
		fmt.Fprintf(&sb, "%s: %s (ID: %d)\n", LexemeStyle.Render(e.Lexeme), e.Type, e.ID)
	}
	return sb.String()
}

func (m *Model) sessionContent() string {
	if len(m.session) == 0 {
		return SubtitleStyle.Render("No analyses in this session.")
	}
	var sb strings.Builder
	for i := len(m.session) - 1; i >= 0; i-- {
		res := m.session[i]
		mark := AcceptedStyle.Render("[+]")
		if !res.Accepted {
			mark = RejectedStyle.Render("[-]")
		}
		fmt.Fprintf(&sb, "%s %s  %s\n", mark, res.Input,
			SubtitleStyle.Render(res.Duration.Round(time.Microsecond).String()))
	}
	return sb.String()
}

func writeStyledTree(sb *strings.Builder, n *ast.Node, indent int) {
	pad := strings.Repeat(" ", indent)
	sb.WriteString(pad + NodeStyle.Render(string(n.Name())) + "\n")

	for _, child := range n.Children() {
		tok, ok := child.Leaf()
		if !ok {
			writeStyledTree(sb, child.Node(), indent+2)
			continue
		}
		style := LeafStyle
		if tok.IsEpsilon() {
			style = EpsilonStyle
		}
		sb.WriteString(pad + "  " + style.Render(tok.String()) + "\n")
	}
}

// Message types for async operations
type analysisMsg struct {
	result *service.Result
	err    error
}

// analyze runs the analysis outside the update loop
func (m *Model) analyze(input string) tea.Cmd {
	analyzer := m.analyzer
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := analyzer.Analyze(ctx, input)
		return analysisMsg{result: res, err: err}
	}
}
