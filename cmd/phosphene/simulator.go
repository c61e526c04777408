// Package main provides the simulator view for the phosphene CLI.
//
// This file implements the SimulatorModel which owns the selected image and the
// result set. It drives the generate round trip against the backend, renders the
// upload controls and the three result cards, and saves results on request.
package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	phosphene "github.com/aixiera/phosphene-web"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/ui/components"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"
	"github.com/aixiera/phosphene-web/models"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// imageTypes is the picker's accept filter; nothing else checks the file type
var imageTypes = []string{".jpg", ".jpeg", ".png", ".JPG", ".JPEG", ".PNG"}

// simulator is the part of the client the view needs
type simulator interface {
	Simulate(ctx context.Context, upload *models.Upload) (map[models.Implant]*models.Percept, error)
}

type SimulatorModel struct {
	sim     simulator
	saver   utils.Saver
	baseURL string

	picker  filepicker.Model
	picking bool

	file        *models.Upload
	preview     image.Image
	previewView string

	results  models.ResultSet
	focus    int
	attempt  int
	inFlight int

	notices []Notification
	status  string
	err     error

	spinner   spinner.Model
	stopwatch stopwatch.Model
	help      help.Model
	keys      simulatorKeyMap
	width     int
}

type fileLoadedMsg struct {
	path    string
	upload  *models.Upload
	preview image.Image
	err     error
}

type simulationDoneMsg struct {
	attempt  int
	percepts map[models.Implant]*models.Percept
	err      error
}

type savedMsg struct {
	paths []string
	err   error
}

var (
	simSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				MarginLeft(2)
	simLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
	simValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))
	simMutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
	simButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2)
	simButtonDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Background(lipgloss.Color("#333333")).
				Padding(0, 2)
	simStatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			MarginLeft(2)
	simErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			MarginLeft(2)
	simHelpStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)
)

func NewSimulatorModel(sim simulator, saver utils.Saver, baseURL string) SimulatorModel {
	fp := filepicker.New()
	fp.AllowedTypes = imageTypes
	fp.AutoHeight = false
	fp.Height = 12
	if cwd, err := filepath.Abs("."); err == nil {
		fp.CurrentDirectory = cwd
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return SimulatorModel{
		sim:       sim,
		saver:     saver,
		baseURL:   baseURL,
		picker:    fp,
		results:   models.NewResultSet(),
		spinner:   s,
		stopwatch: stopwatch.NewWithInterval(100 * time.Millisecond),
		help:      help.New(),
		keys:      newSimulatorKeyMap(),
		width:     100,
	}
}

// withBackend swaps the backend and download target, keeping selection and results
func (m SimulatorModel) withBackend(sim simulator, saver utils.Saver, baseURL string) SimulatorModel {
	m.sim = sim
	m.saver = saver
	m.baseURL = baseURL
	return m
}

func (m SimulatorModel) Init() tea.Cmd {
	return nil
}

// Generating reports whether at least one simulation request is in flight
func (m SimulatorModel) Generating() bool {
	return m.inFlight > 0
}

// Results returns the current result set
func (m SimulatorModel) Results() models.ResultSet {
	return m.results
}

// SelectedFile returns the selected upload, or nil
func (m SimulatorModel) SelectedFile() *models.Upload {
	return m.file
}

// Notice returns the notification currently blocking the view
func (m SimulatorModel) Notice() *Notification {
	if len(m.notices) == 0 {
		return nil
	}
	return &m.notices[0]
}

func loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		upload, err := models.LoadUpload(path)
		if err != nil {
			return fileLoadedMsg{path: path, err: err}
		}

		// preview failures are not fatal: the backend decides what it accepts
		preview, _, err := image.Decode(bytes.NewReader(upload.Data))
		if err != nil {
			utils.LogDebug("Preview unavailable for %s: %v", path, err)
			preview = nil
		}

		return fileLoadedMsg{path: path, upload: upload, preview: preview}
	}
}

func runSimulation(sim simulator, upload *models.Upload, attempt int) tea.Cmd {
	return func() tea.Msg {
		percepts, err := sim.Simulate(context.Background(), upload)
		return simulationDoneMsg{attempt: attempt, percepts: percepts, err: err}
	}
}

// selectFile replaces the selection and its preview. Results are left alone
func (m SimulatorModel) selectFile(upload *models.Upload, preview image.Image) SimulatorModel {
	m.file = upload
	m.preview = preview
	m.previewView = ""
	if preview != nil {
		m.previewView = components.RenderThumbnail(preview, 32, 8)
	}
	return m
}

// generate clears the results and posts the selected file. Without a file it does nothing
func (m SimulatorModel) generate() (SimulatorModel, tea.Cmd) {
	if m.file == nil {
		return m, nil
	}

	m.results.Clear()
	m.attempt++
	m.inFlight++
	m.status = ""
	m.err = nil

	utils.Logger().Info("Generating simulations",
		zap.Int("attempt", m.attempt),
		zap.String("file", m.file.Filename),
		zap.Int("bytes", len(m.file.Data)),
		zap.String("api_url", m.baseURL))

	cmds := []tea.Cmd{runSimulation(m.sim, m.file, m.attempt)}
	if m.inFlight == 1 {
		cmds = append(cmds, m.spinner.Tick, m.stopwatch.Reset(), m.stopwatch.Start())
	}
	return m, tea.Batch(cmds...)
}

// download saves one populated result as <key>.png. Other entries are a no-op
func (m SimulatorModel) download(implant models.Implant) (SimulatorModel, tea.Cmd) {
	p := m.results.Get(implant)
	if !downloadEnabled(p) {
		return m, nil
	}

	saver := m.saver
	return m, func() tea.Msg {
		path, err := saver.Save(implant, p)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{paths: []string{path}}
	}
}

func (m SimulatorModel) downloadAll() (SimulatorModel, tea.Cmd) {
	if len(m.results.PopulatedKeys()) == 0 {
		return m, nil
	}

	saver := m.saver
	results := m.results
	return m, func() tea.Msg {
		paths, err := utils.SaveAll(context.Background(), saver, results)
		return savedMsg{paths: paths, err: err}
	}
}

func (m SimulatorModel) focusedKey() models.Implant {
	return models.Implants[m.focus]
}

func (m SimulatorModel) Update(msg tea.Msg) (SimulatorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("could not open %s: %w", filepath.Base(msg.path), msg.err)
			return m, nil
		}
		m.err = nil
		m.status = ""
		utils.Logger().Debug("File selected", zap.String("path", msg.path), zap.String("content_type", msg.upload.ContentType))
		return m.selectFile(msg.upload, msg.preview), nil

	case simulationDoneMsg:
		m.inFlight--
		var cmd tea.Cmd
		if m.inFlight == 0 {
			cmd = m.stopwatch.Stop()
		}

		if msg.err != nil {
			utils.Logger().Warn("Simulation failed", zap.Int("attempt", msg.attempt), zap.Error(msg.err))
			m.notices = append(m.notices, Notification{
				Title:   "Simulation failed",
				Message: phosphene.UserMessage(msg.err),
			})
			return m, cmd
		}

		if err := m.results.Populate(msg.percepts); err != nil {
			utils.Logger().Warn("Simulation returned incomplete results", zap.Int("attempt", msg.attempt), zap.Error(err))
			m.notices = append(m.notices, Notification{
				Title:   "Simulation failed",
				Message: phosphene.GenericFailureMessage,
			})
			return m, cmd
		}

		utils.Logger().Info("Simulations ready", zap.Int("attempt", msg.attempt))
		m.status = "Simulations ready"
		return m, cmd

	case savedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("download failed: %w", msg.err)
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.status = "Saved " + strings.Join(msg.paths, ", ")
		return m, nil

	case spinner.TickMsg:
		if m.inFlight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		var cmd tea.Cmd
		m.stopwatch, cmd = m.stopwatch.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if len(m.notices) > 0 {
			switch msg.String() {
			case "enter", "esc":
				m.notices = m.notices[1:]
			}
			return m, nil
		}

		if m.picking {
			if msg.String() == "q" {
				m.picking = false
				return m, nil
			}
			return m.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Open):
			m.picking = true
			return m, m.picker.Init()
		case key.Matches(msg, m.keys.Clear):
			m.status = ""
			return m.selectFile(nil, nil), nil
		case key.Matches(msg, m.keys.Generate):
			return m.generate()
		case key.Matches(msg, m.keys.Next):
			m.focus = (m.focus + 1) % len(models.Implants)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.focus = (m.focus + len(models.Implants) - 1) % len(models.Implants)
			return m, nil
		case key.Matches(msg, m.keys.Download):
			return m.download(m.focusedKey())
		case key.Matches(msg, m.keys.DownloadAll):
			return m.downloadAll()
		case key.Matches(msg, m.keys.Settings):
			return m, func() tea.Msg {
				return NavigateMsg{view: ViewSettings}
			}
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	if m.picking {
		return m.updatePicker(msg)
	}
	return m, nil
}

func (m SimulatorModel) updatePicker(msg tea.Msg) (SimulatorModel, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.picking = false
		return m, tea.Batch(cmd, loadFile(path))
	}

	if didSelect, path := m.picker.DidSelectDisabledFile(msg); didSelect {
		m.err = fmt.Errorf("%s is not a jpg or png image", filepath.Base(path))
		return m, cmd
	}

	return m, cmd
}

func (m SimulatorModel) View() string {
	var content strings.Builder
	content.WriteString(components.RenderHeader(m.baseURL))

	if notice := m.Notice(); notice != nil {
		content.WriteString(notice.View(m.width))
		return content.String()
	}

	if m.picking {
		content.WriteString(simSubtitleStyle.Render("Pick a jpg or png image:"))
		content.WriteString("\n\n")
		content.WriteString(m.picker.View())
		content.WriteString("\n")
		content.WriteString(simHelpStyle.Render(simMutedStyle.Render("Enter: Select • ←/→: Navigate • q: Cancel")))
		return content.String()
	}

	content.WriteString(simSubtitleStyle.Render(
		"Upload a photo in jpg or png format and generate AlphaAMS, ArgusII, and PRIMA simulations."))
	content.WriteString("\n\n")
	content.WriteString(m.uploadRow())
	content.WriteString("\n")

	if m.previewView != "" {
		content.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(m.previewView))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	cardWidth := (m.width - 4) / len(models.Implants)
	if cardWidth < 20 {
		cardWidth = 20
	}
	cards := make([]string, 0, len(models.Implants))
	for i, implant := range m.results.Keys() {
		cards = append(cards, RenderResultCard(string(implant), m.results.Get(implant), i == m.focus, cardWidth))
	}
	content.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(lipgloss.JoinHorizontal(lipgloss.Top, cards...)))
	content.WriteString("\n")

	if m.err != nil {
		content.WriteString(simErrorStyle.Render("⚠ " + m.err.Error()))
		content.WriteString("\n")
	} else if m.status != "" {
		content.WriteString(simStatusStyle.Render("✓ " + m.status))
		content.WriteString("\n")
	}

	content.WriteString(simHelpStyle.Render(m.help.View(m.keys)))
	return content.String()
}

func (m SimulatorModel) uploadRow() string {
	var row strings.Builder
	row.WriteString(simButtonStyle.Render("Choose file"))
	row.WriteString("  ")

	if m.file == nil {
		row.WriteString(simMutedStyle.Render("No file chosen"))
	} else {
		row.WriteString(simLabelStyle.Render(m.file.Filename))
		row.WriteString(" ")
		row.WriteString(simValueStyle.Render(fmt.Sprintf("(%s, %s)", m.file.ContentType, humanize.Bytes(uint64(len(m.file.Data))))))
	}
	row.WriteString("  ")

	if m.file == nil {
		row.WriteString(simButtonDisabledStyle.Render("Generate"))
	} else {
		row.WriteString(simButtonStyle.Render("Generate"))
	}

	if m.inFlight > 0 {
		row.WriteString(fmt.Sprintf("  %s Generating… %s", m.spinner.View(), m.stopwatch.View()))
	}

	return lipgloss.NewStyle().MarginLeft(2).Render(row.String())
}

type simulatorKeyMap struct {
	Open        key.Binding
	Clear       key.Binding
	Generate    key.Binding
	Next        key.Binding
	Prev        key.Binding
	Download    key.Binding
	DownloadAll key.Binding
	Settings    key.Binding
	Quit        key.Binding
}

func newSimulatorKeyMap() simulatorKeyMap {
	return simulatorKeyMap{
		Open:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		Clear:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
		Generate:    key.NewBinding(key.WithKeys("g", "enter"), key.WithHelp("g", "generate")),
		Next:        key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "next card")),
		Prev:        key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev card")),
		Download:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		DownloadAll: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "download all")),
		Settings:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (k simulatorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Generate, k.Prev, k.Next, k.Download, k.DownloadAll, k.Settings, k.Quit}
}

func (k simulatorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Clear, k.Generate},
		{k.Prev, k.Next, k.Download, k.DownloadAll},
		{k.Settings, k.Quit},
	}
}
