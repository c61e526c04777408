// Package main provides the settings view for the phosphene CLI.
//
// This file implements the SettingsModel, a form for the backend URL and the
// download directory. Submitted values are written to the settings file and
// applied to the running session.
package main

import (
	"fmt"
	"strings"

	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/config"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/ui/components"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

type SettingsModel struct {
	cfg   config.Config
	form  *huh.Form
	save  func(config.Config) error
	saved bool
	err   error
}

// settingsSavedMsg carries the configuration the session should switch to
type settingsSavedMsg struct {
	cfg config.Config
}

func NewSettingsModel(cfg config.Config, save func(config.Config) error) SettingsModel {
	if save == nil {
		save = config.Save
	}

	apiURL := cfg.APIURL
	downloadDir := cfg.DownloadDir

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("api_url").
				Title("Backend URL").
				Description("Where simulation requests are sent").
				Value(&apiURL).
				Validate(config.ValidateAPIURL),

			huh.NewInput().
				Key("download_dir").
				Title("Download Directory").
				Description("Where downloaded results are written").
				Value(&downloadDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("must not be empty")
					}
					return nil
				}),
		),
	).
		WithWidth(60).
		WithShowHelp(true).
		WithShowErrors(true).
		WithTheme(huh.ThemeCharm())

	return SettingsModel{
		cfg:  cfg,
		form: form,
		save: save,
	}
}

func (m SettingsModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, func() tea.Msg {
			return NavigateMsg{view: ViewSimulator}
		}
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
		cmds = append(cmds, cmd)
	}

	if m.form.State == huh.StateCompleted && !m.saved {
		m.saved = true

		cfg := m.cfg
		cfg.APIURL = strings.TrimSpace(m.form.GetString("api_url"))
		cfg.DownloadDir = strings.TrimSpace(m.form.GetString("download_dir"))

		if err := m.save(cfg); err != nil {
			utils.Logger().Error("Failed to save settings", zap.Error(err))
			m.err = err
			return m, tea.Batch(cmds...)
		}

		utils.Logger().Info("Settings saved",
			zap.String("api_url", cfg.APIURL),
			zap.String("download_dir", cfg.DownloadDir))
		m.cfg = cfg
		cmds = append(cmds,
			func() tea.Msg { return settingsSavedMsg{cfg: cfg} },
			func() tea.Msg { return NavigateMsg{view: ViewSimulator} },
		)
	}

	return m, tea.Batch(cmds...)
}

func (m SettingsModel) View() string {
	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF0000")).
		MarginLeft(2)

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		MarginLeft(2).
		MarginTop(1)

	var content strings.Builder
	content.WriteString(components.RenderHeader(m.cfg.APIURL))
	content.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(m.form.View()))
	content.WriteString("\n")

	if m.err != nil {
		content.WriteString(errorStyle.Render(fmt.Sprintf("⚠ Could not save settings: %v", m.err)))
		content.WriteString("\n")
	}

	content.WriteString(helpStyle.Render("Press 'esc' to go back"))
	return content.String()
}
