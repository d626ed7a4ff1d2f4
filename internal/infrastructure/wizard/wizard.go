package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covpipe/covpipe/internal/application"
)

type (
	wizardState int

	initWizardModel struct {
		state      wizardState
		cfg        application.Config
		generators []string
		genIndex   int
		cursor     int
		confirmed  bool
		aborted    bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

const (
	rowGenerator = iota
	rowOpen
	rowCount
)

func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	generators := []string{"Unix Makefiles", "MinGW Makefiles", "Ninja", "MSYS Makefiles"}
	genIndex := 0
	found := false
	for i, g := range generators {
		if g == cfg.Build.Generator {
			genIndex = i
			found = true
			break
		}
	}
	if !found && cfg.Build.Generator != "" {
		generators = append([]string{cfg.Build.Generator}, generators...)
	}
	return &initWizardModel{
		state:      stateIntro,
		cfg:        cfg,
		generators: generators,
		genIndex:   genIndex,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit && m.cursor > 0 {
				m.cursor--
			}
		case "down":
			if m.state == stateEdit && m.cursor < rowCount-1 {
				m.cursor++
			}
		case "left":
			if m.state == stateEdit {
				m.adjustSelection(-1)
			}
		case "right", " ":
			if m.state == stateEdit {
				m.adjustSelection(1)
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) adjustSelection(delta int) {
	switch m.cursor {
	case rowGenerator:
		m.genIndex = (m.genIndex + delta + len(m.generators)) % len(m.generators)
	case rowOpen:
		m.cfg.Report.Open = !m.cfg.Report.Open
	}
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ncovpipe init wizard\n\n")
	fmt.Fprintf(&b, "covpipe detected a CMake project. The wizard helps you review the coverage pipeline settings.\n\n")
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel. Detected generator: %s.\n", m.generators[m.genIndex])
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview and adjust settings\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ to change values.\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Generator", m.generators[m.genIndex]},
		{"Open report after run", onOff(m.cfg.Report.Open)},
	}
	for idx, row := range rows {
		prefix := "  "
		if m.cursor == idx {
			prefix = "> "
		}
		fmt.Fprintf(&b, "%s%s: %s\n", prefix, row.label, row.value)
	}

	fmt.Fprintf(&b, "\nBuild directory: %s\n", m.cfg.Build.Dir)
	fmt.Fprintf(&b, "Coverage flag: -D%s=ON\n", m.cfg.Build.CoverageFlag)
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Generator: %s\n", m.generators[m.genIndex])
	fmt.Fprintf(&b, "Build directory: %s\n", m.cfg.Build.Dir)
	fmt.Fprintf(&b, "Coverage flag: %s\n", m.cfg.Build.CoverageFlag)
	fmt.Fprintf(&b, "Open report after run: %s\n", onOff(m.cfg.Report.Open))
	if len(m.cfg.Report.Exclude) > 0 {
		fmt.Fprintf(&b, "\nExtra report exclusions:\n")
		for _, pattern := range m.cfg.Report.Exclude {
			fmt.Fprintf(&b, "  - %s\n", pattern)
		}
	} else {
		fmt.Fprintf(&b, "\nNo extra report exclusions (the standard external/tests/build/_deps patterns always apply).\n")
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) toConfig() application.Config {
	cfg := m.cfg
	cfg.Build.Generator = m.generators[m.genIndex]
	return cfg
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
