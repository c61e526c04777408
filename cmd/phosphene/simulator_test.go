package main

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	phosphene "github.com/aixiera/phosphene-web"
	"github.com/aixiera/phosphene-web/cmd/phosphene/internal/utils"
	"github.com/aixiera/phosphene-web/models"

	tea "github.com/charmbracelet/bubbletea"
)

func testPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, testPNG(t, 90), 0644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// runCmd executes a command and every command it batches, returning the messages produced
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func findMsg[T any](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		if m, ok := msg.(T); ok {
			return m
		}
	}
	var zero T
	t.Fatalf("no %T produced", zero)
	return zero
}

// simulateServer answers /simulate with one distinct payload per implant
func simulateServer(t *testing.T, payloads map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/simulate" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		var body strings.Builder
		body.WriteString("{")
		first := true
		for k, v := range payloads {
			if !first {
				body.WriteString(",")
			}
			first = false
			body.WriteString(`"` + k + `":"` + v + `"`)
		}
		body.WriteString("}")
		w.Write([]byte(body.String()))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func errorServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSimulator(t *testing.T, baseURL, downloadDir string) SimulatorModel {
	t.Helper()
	client := phosphene.NewClient(phosphene.WithBaseURL(baseURL))
	return NewSimulatorModel(client.Simulator, utils.DirSaver{Dir: downloadDir}, baseURL)
}

func selectTestFile(t *testing.T, m SimulatorModel, name string) SimulatorModel {
	t.Helper()
	path := writeImage(t, t.TempDir(), name)
	msg := findMsg[fileLoadedMsg](t, loadFile(path))
	if msg.err != nil {
		t.Fatalf("load file: %v", msg.err)
	}
	m, _ = m.Update(msg)
	if m.SelectedFile() == nil {
		t.Fatal("expected file to be selected")
	}
	return m
}

func validPayloads(t *testing.T) map[string]string {
	return map[string]string{
		"AlphaAMS": base64.StdEncoding.EncodeToString(testPNG(t, 10)),
		"ArgusII":  base64.StdEncoding.EncodeToString(testPNG(t, 20)),
		"PRIMA":    base64.StdEncoding.EncodeToString(testPNG(t, 30)),
	}
}

// generateAndComplete presses g and feeds the simulation result back into the model
func generateAndComplete(t *testing.T, m SimulatorModel) SimulatorModel {
	t.Helper()
	m, cmd := m.Update(keyMsg("g"))
	if !m.Generating() {
		t.Fatal("expected a request in flight")
	}
	for _, key := range models.Implants {
		if got := m.Results().State(key); got != models.Empty {
			t.Errorf("%s should be cleared while generating, got %s", key, got)
		}
	}
	done := findMsg[simulationDoneMsg](t, cmd)
	m, _ = m.Update(done)
	return m
}

func TestGenerate_NoFileIsNoop(t *testing.T) {
	srv, calls := simulateServer(t, validPayloads(t))
	m := newTestSimulator(t, srv.URL, t.TempDir())

	before := m.Results()
	m, cmd := m.Update(keyMsg("g"))

	if cmd != nil {
		t.Error("expected no command without a selected file")
	}
	if m.Generating() {
		t.Error("expected nothing in flight")
	}
	if m.Results() != before {
		t.Error("results changed without a selected file")
	}
	if m.SelectedFile() != nil {
		t.Error("selection changed")
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Errorf("expected no requests, got %d", *calls)
	}
}

func TestGenerate_Success(t *testing.T) {
	payloads := validPayloads(t)
	srv, calls := simulateServer(t, payloads)
	m := newTestSimulator(t, srv.URL, t.TempDir())
	m = selectTestFile(t, m, "photo.png")

	m = generateAndComplete(t, m)

	if m.Generating() {
		t.Error("expected no request in flight")
	}
	if m.Notice() != nil {
		t.Errorf("unexpected notification: %+v", m.Notice())
	}
	for _, key := range models.Implants {
		p := m.Results().Get(key)
		if p == nil {
			t.Fatalf("%s not populated", key)
		}
		if want := "data:image/png;base64," + payloads[string(key)]; p.DataURI != want {
			t.Errorf("%s DataURI = %q, want %q", key, p.DataURI, want)
		}
		if !downloadEnabled(p) {
			t.Errorf("%s download should be enabled", key)
		}
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestGenerate_ServerDetail(t *testing.T) {
	srv := errorServer(t, http.StatusInternalServerError, `{"detail":"bad input"}`)
	m := newTestSimulator(t, srv.URL, t.TempDir())
	m = selectTestFile(t, m, "photo.png")

	m = generateAndComplete(t, m)

	notice := m.Notice()
	if notice == nil {
		t.Fatal("expected a notification")
	}
	if notice.Message != "bad input" {
		t.Errorf("notification = %q, want %q", notice.Message, "bad input")
	}
	for _, key := range models.Implants {
		if m.Results().Get(key) != nil {
			t.Errorf("%s should stay empty", key)
		}
	}
	if !strings.Contains(m.View(), "bad input") {
		t.Error("notification text not rendered")
	}
}

func TestGenerate_GenericFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no detail", http.StatusInternalServerError, `{}`},
		{"list detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"Field required"}]}`},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`},
		{"missing key", http.StatusOK, `{"AlphaAMS":"","ArgusII":""}`},
		{"bad base64", http.StatusOK, `{"AlphaAMS":"!!","ArgusII":"!!","PRIMA":"!!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := errorServer(t, tt.status, tt.body)
			m := newTestSimulator(t, srv.URL, t.TempDir())
			m = selectTestFile(t, m, "photo.png")

			m = generateAndComplete(t, m)

			notice := m.Notice()
			if notice == nil {
				t.Fatal("expected a notification")
			}
			if notice.Message != phosphene.GenericFailureMessage {
				t.Errorf("notification = %q, want generic message", notice.Message)
			}
			if len(m.Results().PopulatedKeys()) != 0 {
				t.Error("results should stay cleared")
			}
		})
	}
}

func TestGenerate_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := newTestSimulator(t, url, t.TempDir())
	m = selectTestFile(t, m, "photo.png")
	m = generateAndComplete(t, m)

	if m.Notice() == nil || m.Notice().Message != phosphene.GenericFailureMessage {
		t.Errorf("expected generic notification, got %+v", m.Notice())
	}
}

func TestGenerate_FailureKeepsPreviousResultsCleared(t *testing.T) {
	srv, _ := simulateServer(t, validPayloads(t))
	m := newTestSimulator(t, srv.URL, t.TempDir())
	m = selectTestFile(t, m, "photo.png")
	m = generateAndComplete(t, m)

	failing := errorServer(t, http.StatusInternalServerError, `{"detail":"boom"}`)
	client := phosphene.NewClient(phosphene.WithBaseURL(failing.URL))
	m = m.withBackend(client.Simulator, m.saver, failing.URL)
	m = generateAndComplete(t, m)

	if len(m.Results().PopulatedKeys()) != 0 {
		t.Error("a failed generate should leave every entry empty")
	}
}

func TestGenerate_LastResponseWins(t *testing.T) {
	srv, _ := simulateServer(t, validPayloads(t))
	m := newTestSimulator(t, srv.URL, t.TempDir())
	m = selectTestFile(t, m, "photo.png")

	m, first := m.Update(keyMsg("g"))
	m, second := m.Update(keyMsg("g"))
	if m.inFlight != 2 {
		t.Fatalf("expected 2 requests in flight, got %d", m.inFlight)
	}

	secondDone := findMsg[simulationDoneMsg](t, second)
	firstDone := findMsg[simulationDoneMsg](t, first)
	firstDone.err = &phosphene.APIError{StatusCode: 500, Message: "late failure"}

	m, _ = m.Update(secondDone)
	if len(m.Results().PopulatedKeys()) != 3 {
		t.Fatal("expected results after the first completion")
	}
	if !m.Generating() {
		t.Error("one request should still be in flight")
	}

	m, _ = m.Update(firstDone)
	if m.Generating() {
		t.Error("expected nothing in flight")
	}
	if m.Notice() == nil || m.Notice().Message != "late failure" {
		t.Errorf("expected late failure to be reported, got %+v", m.Notice())
	}
}

func TestNotification_OnePerAttemptAndDismiss(t *testing.T) {
	srv := errorServer(t, http.StatusInternalServerError, `{"detail":"bad input"}`)
	m := newTestSimulator(t, srv.URL, t.TempDir())
	m = selectTestFile(t, m, "photo.png")

	m, first := m.Update(keyMsg("g"))
	m, second := m.Update(keyMsg("g"))
	m, _ = m.Update(findMsg[simulationDoneMsg](t, first))
	m, _ = m.Update(findMsg[simulationDoneMsg](t, second))

	if len(m.notices) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(m.notices))
	}

	// keys other than enter/esc are swallowed while a notice is shown
	m, cmd := m.Update(keyMsg("g"))
	if cmd != nil || m.Generating() {
		t.Error("generate should be blocked by the notification")
	}

	m, _ = m.Update(keyMsg("enter"))
	m, _ = m.Update(keyMsg("esc"))
	if m.Notice() != nil {
		t.Error("expected every notification dismissed")
	}
}

func TestDownload_Disabled(t *testing.T) {
	dir := t.TempDir()
	srv, _ := simulateServer(t, validPayloads(t))
	m := newTestSimulator(t, srv.URL, dir)

	if downloadEnabled(m.Results().Get(models.AlphaAMS)) {
		t.Error("download should be disabled before generating")
	}

	m, cmd := m.Update(keyMsg("d"))
	if cmd != nil {
		t.Error("expected no save for an unset entry")
	}
	m, cmd = m.Update(keyMsg("D"))
	if cmd != nil {
		t.Error("expected no save without results")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files, got %d", len(entries))
	}
}

func TestDownload_EmptyPayloadsSaveNothing(t *testing.T) {
	dir := t.TempDir()
	srv := errorServer(t, http.StatusOK, `{"AlphaAMS":"","ArgusII":"","PRIMA":""}`)
	m := newTestSimulator(t, srv.URL, dir)
	m = selectTestFile(t, m, "photo.png")
	m = generateAndComplete(t, m)

	if m.Notice() == nil || m.Notice().Message != phosphene.GenericFailureMessage {
		t.Errorf("expected generic notification, got %+v", m.Notice())
	}
	m, _ = m.Update(keyMsg("enter"))

	for _, key := range models.Implants {
		if m.Results().State(key) == models.Populated {
			t.Errorf("%s should not be populated from an empty payload", key)
		}
		if downloadEnabled(m.Results().Get(key)) {
			t.Errorf("%s download should be disabled", key)
		}
	}

	_, cmd := m.Update(keyMsg("d"))
	if cmd != nil {
		t.Error("disabled download should not save")
	}

	// the action agrees with the card even for a populated entry without bytes
	if err := m.results.Set(models.AlphaAMS, &models.Percept{DataURI: models.DataURIPrefix}); err != nil {
		t.Fatal(err)
	}
	if downloadEnabled(m.Results().Get(models.AlphaAMS)) {
		t.Error("download should be disabled for an empty image")
	}
	if _, cmd := m.download(models.AlphaAMS); cmd != nil {
		t.Error("download must follow the card's enabled state")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files, got %d", len(entries))
	}
}

func TestDownload_AlphaAMS(t *testing.T) {
	dir := t.TempDir()
	payloads := validPayloads(t)
	srv, _ := simulateServer(t, payloads)
	m := newTestSimulator(t, srv.URL, dir)
	m = selectTestFile(t, m, "photo.png")
	m = generateAndComplete(t, m)

	m, cmd := m.Update(keyMsg("d"))
	saved := findMsg[savedMsg](t, cmd)
	if saved.err != nil {
		t.Fatalf("save failed: %v", saved.err)
	}
	m, _ = m.Update(saved)

	want := filepath.Join(dir, "AlphaAMS.png")
	if len(saved.paths) != 1 || saved.paths[0] != want {
		t.Errorf("saved paths = %v, want [%s]", saved.paths, want)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	expected, _ := base64.StdEncoding.DecodeString(payloads["AlphaAMS"])
	if !bytes.Equal(data, expected) {
		t.Error("saved bytes differ from the decoded payload")
	}
	if !strings.Contains(m.View(), "AlphaAMS.png") {
		t.Error("saved path not shown")
	}
}

func TestDownload_FocusedAndAll(t *testing.T) {
	dir := t.TempDir()
	srv, _ := simulateServer(t, validPayloads(t))
	m := newTestSimulator(t, srv.URL, dir)
	m = selectTestFile(t, m, "photo.png")
	m = generateAndComplete(t, m)

	m, _ = m.Update(keyMsg("right"))
	m, _ = m.Update(keyMsg("right"))
	_, cmd := m.Update(keyMsg("d"))
	saved := findMsg[savedMsg](t, cmd)
	if len(saved.paths) != 1 || filepath.Base(saved.paths[0]) != "PRIMA.png" {
		t.Errorf("expected PRIMA.png, got %v", saved.paths)
	}

	m, _ = m.Update(keyMsg("right"))
	if m.focusedKey() != models.AlphaAMS {
		t.Errorf("focus should wrap to AlphaAMS, got %s", m.focusedKey())
	}

	_, cmd = m.Update(keyMsg("D"))
	saved = findMsg[savedMsg](t, cmd)
	if saved.err != nil {
		t.Fatal(saved.err)
	}
	for i, key := range models.Implants {
		if filepath.Base(saved.paths[i]) != key.Filename() {
			t.Errorf("path %d = %s, want %s", i, saved.paths[i], key.Filename())
		}
	}
}

func TestSelectFile_KeepsResults(t *testing.T) {
	srv, _ := simulateServer(t, validPayloads(t))
	m := newTestSimulator(t, srv.URL, t.TempDir())
	m = selectTestFile(t, m, "photo.png")
	m = generateAndComplete(t, m)
	before := m.Results().Get(models.ArgusII)

	m = selectTestFile(t, m, "other.png")

	if m.SelectedFile().Filename != "other.png" {
		t.Errorf("selection = %s, want other.png", m.SelectedFile().Filename)
	}
	if len(m.Results().PopulatedKeys()) != 3 {
		t.Error("selecting a file must not clear results")
	}
	if m.Results().Get(models.ArgusII) != before {
		t.Error("results were replaced by selecting a file")
	}
	if m.previewView == "" {
		t.Error("expected a preview for the new file")
	}

	// clearing the selection drops the preview but keeps results
	m, _ = m.Update(keyMsg("x"))
	if m.SelectedFile() != nil || m.previewView != "" {
		t.Error("expected selection and preview cleared")
	}
	if len(m.Results().PopulatedKeys()) != 3 {
		t.Error("clearing the selection must not clear results")
	}
}

func TestSelectFile_LoadError(t *testing.T) {
	m := newTestSimulator(t, "http://127.0.0.1:1", t.TempDir())

	msg := findMsg[fileLoadedMsg](t, loadFile(filepath.Join(t.TempDir(), "missing.png")))
	m, _ = m.Update(msg)

	if m.SelectedFile() != nil {
		t.Error("a failed load must not select a file")
	}
	if !strings.Contains(m.View(), "missing.png") {
		t.Error("expected the load error in the view")
	}
}

func TestView_Placeholders(t *testing.T) {
	m := newTestSimulator(t, "http://127.0.0.1:8000", t.TempDir())
	view := m.View()

	if strings.Count(view, resultPlaceholder) != 3 {
		t.Errorf("expected three placeholders in:\n%s", view)
	}
	if !strings.Contains(view, "No file chosen") {
		t.Error("expected empty selection label")
	}
	for _, key := range models.Implants {
		if !strings.Contains(view, string(key)) {
			t.Errorf("missing card title %s", key)
		}
	}
}

func TestSpinnerTicksOnlyWhileGenerating(t *testing.T) {
	m := newTestSimulator(t, "http://127.0.0.1:8000", t.TempDir())
	_, cmd := m.Update(m.spinner.Tick())
	if cmd != nil {
		t.Error("idle spinner should not keep ticking")
	}
}

func TestPickerCancel(t *testing.T) {
	m := newTestSimulator(t, "http://127.0.0.1:8000", t.TempDir())

	m, _ = m.Update(keyMsg("o"))
	if !m.picking {
		t.Fatal("expected the picker to open")
	}
	if !strings.Contains(m.View(), "Pick a jpg or png image") {
		t.Error("expected picker view")
	}

	m, _ = m.Update(keyMsg("q"))
	if m.picking {
		t.Error("expected q to close the picker")
	}
}

func TestSettingsKeyNavigates(t *testing.T) {
	m := newTestSimulator(t, "http://127.0.0.1:8000", t.TempDir())
	_, cmd := m.Update(keyMsg("s"))
	nav := findMsg[NavigateMsg](t, cmd)
	if nav.view != ViewSettings {
		t.Errorf("view = %v, want settings", nav.view)
	}
}

func TestImageTypes(t *testing.T) {
	for _, ext := range []string{".jpg", ".jpeg", ".png"} {
		found := false
		for _, allowed := range imageTypes {
			if allowed == ext {
				found = true
			}
		}
		if !found {
			t.Errorf("%s should be accepted", ext)
		}
	}
}
