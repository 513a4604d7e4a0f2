package viz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/esail/internal/config"
	"github.com/san-kum/esail/internal/experiment"
)

var presetInfo = map[string]string{
	"lab":     "bench test, one element held back",
	"spin-up": "spin-up with no field",
	"nominal": "20 kV sail at 2 rpm",
	"stress":  "long fine chain, heavy tip",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// menuParams are editable before launch, in display order.
var menuParams = []string{"rpm", "potential", "iterations", "end_mass", "speed"}

type menu struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	paramCursor   int
	editing       bool
	editBuf       string
	err           string
	opts          []Option
	live          Model
}

func newMenu(opts ...Option) menu {
	return menu{state: stateMenu, presets: config.ListPresets(), opts: opts}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.state == stateMenu {
			return m.menuKey(msg)
		}
		return m.configKey(msg)
	}
	return m, nil
}

func (m menu) menuKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.presets[m.cursor]
		m.cfg = config.GetPreset(m.selected)
		m.state, m.paramCursor, m.err = stateConfig, 0, ""
	}
	return m, nil
}

func (m menu) configKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	name := menuParams[m.paramCursor]
	if m.editing {
		switch msg.String() {
		case "enter":
			val, err := strconv.ParseFloat(m.editBuf, 64)
			if err == nil {
				err = experiment.ApplyParam(m.cfg, name, val)
			}
			if err != nil {
				m.err = err.Error()
			} else {
				m.err = ""
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(menuParams)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, strconv.FormatFloat(paramValue(m.cfg, name), 'g', -1, 64)
	case "s":
		live, err := NewModel(m.cfg, m.opts...)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.live, m.state = live, stateSim
		return m, m.live.Init()
	}
	return m, nil
}

func paramValue(cfg *config.Config, name string) float64 {
	switch name {
	case "rpm":
		return cfg.Spacecraft.RPM
	case "potential":
		return cfg.Tether.Potential
	case "iterations":
		return float64(cfg.Simulation.Iterations)
	case "end_mass":
		return cfg.Spacecraft.EndMass
	case "speed":
		return cfg.SolarWind.Speed
	}
	return 0
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	pickStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	descStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func (m menu) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("ESAIL") + "\n    " + subStyle.Render("electric sail tether dynamics") + "\n    " + subStyle.Render("─────────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			fmt.Fprintf(&b, "    %s %s  %s\n", cursorStyle.Render("▸"), pickStyle.Render(fmt.Sprintf("%-10s", name)), descStyle.Render(desc))
		} else {
			fmt.Fprintf(&b, "    %s  %s\n", idleStyle.Render(fmt.Sprintf("  %-10s", name)), idleStyle.Render(desc))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m menu) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(m.selected)) + "\n    " + subStyle.Render(presetInfo[m.selected]) + "\n    " + subStyle.Render("─────────────────────────────") + "\n\n")
	for i, name := range menuParams {
		valStr := fmt.Sprintf("%10.4g", paramValue(m.cfg, name))
		if m.editing && i == m.paramCursor {
			valStr = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			fmt.Fprintf(&b, "    %s %s %s\n", cursorStyle.Render("▸"), pickStyle.Render(fmt.Sprintf("%-10s", name)), descStyle.Render(valStr))
		} else {
			fmt.Fprintf(&b, "    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-10s", name)), idleStyle.Render(valStr))
		}
	}
	if m.err != "" {
		b.WriteString("\n    " + errStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive opens the preset picker and then the live view.
func RunInteractive(ctx context.Context, opts ...Option) error {
	_, err := tea.NewProgram(newMenu(opts...), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
