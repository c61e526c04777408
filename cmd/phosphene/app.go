package main

import (
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/config"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
)

type ViewState int

type NavigateMsg struct {
	view ViewState
}

const (
	ViewSimulator ViewState = iota
	ViewSettings
)

type Model struct {
	currentView  ViewState
	cfg          config.Config
	simulator    SimulatorModel
	settings     SettingsModel
	saveSettings func(config.Config) error
	initialFile  string
	quitting     bool
}

func newModel(cfg config.Config, initialFile string) Model {
	client := cfg.NewClient()
	return Model{
		currentView:  ViewSimulator,
		cfg:          cfg,
		simulator:    NewSimulatorModel(client.Simulator, utils.DirSaver{Dir: cfg.DownloadDir}, client.GetBaseURL()),
		saveSettings: config.Save,
		initialFile:  initialFile,
	}
}

func (m Model) Init() tea.Cmd {
	if m.initialFile != "" {
		return loadFile(m.initialFile)
	}
	return m.simulator.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if navMsg, ok := msg.(NavigateMsg); ok {
		m.currentView = navMsg.view
		if navMsg.view == ViewSettings {
			m.settings = NewSettingsModel(m.cfg, m.saveSettings)
			return m, m.settings.Init()
		}
		return m, nil
	}

	// Saved settings take effect for the next generate; selection and results stay
	if saved, ok := msg.(settingsSavedMsg); ok {
		m.cfg = saved.cfg
		client := m.cfg.NewClient()
		m.simulator = m.simulator.withBackend(client.Simulator, utils.DirSaver{Dir: m.cfg.DownloadDir}, client.GetBaseURL())
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		switch m.currentView {
		case ViewSimulator:
			m.simulator, cmd = m.simulator.Update(msg)
		case ViewSettings:
			m.settings, cmd = m.settings.Update(msg)
		}
		return m, cmd
	}

	// Results and timers keep flowing to the simulator while settings are open
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.simulator, cmd = m.simulator.Update(msg)
	cmds = append(cmds, cmd)
	if m.currentView == ViewSettings {
		m.settings, cmd = m.settings.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quitting {
		return "bye!\n"
	}

	switch m.currentView {
	case ViewSimulator:
		return m.simulator.View()
	case ViewSettings:
		return m.settings.View()
	default:
		return "Unknown view\n"
	}
}
