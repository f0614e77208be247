package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shubham/ntfsundelete/internal/device"
	"github.com/shubham/ntfsundelete/internal/disk"
	"github.com/shubham/ntfsundelete/internal/ntfs"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
)

// State represents the current screen.
type State int

const (
	StateWelcome State = iota
	StateSelectSource
	StateSelectDevice
	StateEnterPath
	StateSelectMode
	StateSelectOutput
	StateLoadingCatalog
	StateSelectFiles
	StateConfirm
	StateRunning
	StateResults
)

// SourceType is whether the user picked a physical device or an image.
type SourceType int

const (
	SourceDevice SourceType = iota
	SourceImage
)

// RecoveryMode mirrors spec.md's --dry-run flag as a two-item menu.
type RecoveryMode int

const (
	ModeDryRun RecoveryMode = iota
	ModeRecover
)

type model struct {
	state  State
	width  int
	height int
	err    error

	sourceType SourceType
	sourceList list.Model

	devices        []device.Device
	deviceList     list.Model
	selectedDevice *device.Device

	pathInput textinput.Model
	imagePath string

	mode     RecoveryMode
	modeList list.Model

	outputInput textinput.Model
	outputPath  string

	spinner   spinner.Model
	statusMsg string

	bootSector *ntfs.BootSector
	entries    []ntfs.UndeleteEntry
	selected   []bool
	fileCursor int

	recoveredCount int
	failedCount    int
}

type sourceItem struct{ name, desc string }

func (i sourceItem) Title() string       { return i.name }
func (i sourceItem) Description() string { return i.desc }
func (i sourceItem) FilterValue() string { return i.name }

type deviceItem struct{ device device.Device }

func (i deviceItem) Title() string { return fmt.Sprintf("%s - %s", i.device.Path, i.device.Name) }
func (i deviceItem) Description() string {
	return fmt.Sprintf("%s | %s", i.device.SizeHuman, i.device.Filesystem)
}
func (i deviceItem) FilterValue() string { return i.device.Path }

type modeItem struct {
	name, desc string
	mode       RecoveryMode
}

func (i modeItem) Title() string       { return i.name }
func (i modeItem) Description() string { return i.desc }
func (i modeItem) FilterValue() string { return i.name }

type devicesLoadedMsg struct {
	devices []device.Device
	err     error
}

type catalogLoadedMsg struct {
	bootSector *ntfs.BootSector
	entries    []ntfs.UndeleteEntry
	err        error
}

type recoveryCompleteMsg struct {
	recovered int
	failed    int
	err       error
}

func initialModel() model {
	sourceItems := []list.Item{
		sourceItem{name: "Physical Device", desc: "Recover from a connected drive or its mount point"},
		sourceItem{name: "Disk Image", desc: "Recover from an .img/.dd/.raw file"},
	}
	sourceList := list.New(sourceItems, list.NewDefaultDelegate(), 0, 0)
	sourceList.Title = "Select Recovery Source"
	sourceList.SetShowStatusBar(false)
	sourceList.SetFilteringEnabled(false)

	modeItems := []list.Item{
		modeItem{name: "Dry Run", desc: "List deleted files without writing anything", mode: ModeDryRun},
		modeItem{name: "Recover Files", desc: "Reconstruct selected files to an output directory", mode: ModeRecover},
	}
	modeList := list.New(modeItems, list.NewDefaultDelegate(), 0, 0)
	modeList.Title = "Select Mode"
	modeList.SetShowStatusBar(false)
	modeList.SetFilteringEnabled(false)

	pathInput := textinput.New()
	pathInput.Placeholder = "/path/to/disk.img"
	pathInput.Focus()
	pathInput.Width = 50

	outputInput := textinput.New()
	outputInput.Placeholder = "./recovered"
	outputInput.SetValue("./recovered")
	outputInput.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return model{
		state:       StateWelcome,
		sourceList:  sourceList,
		modeList:    modeList,
		pathInput:   pathInput,
		outputInput: outputInput,
		spinner:     s,
		outputPath:  "./recovered",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != StateRunning && m.state != StateLoadingCatalog {
				return m, tea.Quit
			}
		case "esc":
			if m.state > StateWelcome && m.state != StateRunning && m.state != StateLoadingCatalog {
				m.state--
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sourceList.SetSize(msg.Width-4, msg.Height-10)
		m.modeList.SetSize(msg.Width-4, msg.Height-10)
		if m.deviceList.Items() != nil {
			m.deviceList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case devicesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.devices = msg.devices
		items := make([]list.Item, len(msg.devices))
		for i, d := range msg.devices {
			items[i] = deviceItem{device: d}
		}
		m.deviceList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-10)
		m.deviceList.Title = "Select Device"
		m.deviceList.SetShowStatusBar(false)
		m.deviceList.SetFilteringEnabled(true)
		m.state = StateSelectDevice
		return m, nil

	case catalogLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateResults
			return m, nil
		}
		m.bootSector = msg.bootSector
		m.entries = msg.entries
		m.selected = make([]bool, len(msg.entries))
		for i := range m.selected {
			m.selected[i] = true
		}
		m.state = StateSelectFiles
		return m, nil

	case recoveryCompleteMsg:
		m.state = StateResults
		m.recoveredCount = msg.recovered
		m.failedCount = msg.failed
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcome(msg)
	case StateSelectSource:
		return m.updateSelectSource(msg)
	case StateSelectDevice:
		return m.updateSelectDevice(msg)
	case StateEnterPath:
		return m.updateEnterPath(msg)
	case StateSelectMode:
		return m.updateSelectMode(msg)
	case StateSelectOutput:
		return m.updateSelectOutput(msg)
	case StateSelectFiles:
		return m.updateSelectFiles(msg)
	case StateConfirm:
		return m.updateConfirm(msg)
	case StateResults:
		return m.updateResults(msg)
	}

	return m, nil
}

func (m model) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		m.state = StateSelectSource
	}
	return m, nil
}

func (m model) updateSelectSource(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		selected := m.sourceList.SelectedItem()
		if selected != nil {
			if strings.Contains(selected.(sourceItem).name, "Device") {
				m.sourceType = SourceDevice
				return m, m.loadDevices()
			}
			m.sourceType = SourceImage
			m.state = StateEnterPath
			m.pathInput.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.sourceList, cmd = m.sourceList.Update(msg)
	return m, cmd
}

func (m model) updateSelectDevice(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		selected := m.deviceList.SelectedItem()
		if selected != nil {
			dev := selected.(deviceItem).device
			m.selectedDevice = &dev
			m.imagePath = dev.Path
			if dev.Mountpoint != "" {
				m.imagePath = dev.Mountpoint
			}
			m.state = StateSelectMode
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func (m model) updateEnterPath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		path := m.pathInput.Value()
		if path != "" {
			if strings.HasPrefix(path, "~") {
				home, _ := os.UserHomeDir()
				path = filepath.Join(home, path[1:])
			}
			m.imagePath = path
			m.state = StateSelectMode
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m model) updateSelectMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		selected := m.modeList.SelectedItem()
		if selected != nil {
			m.mode = selected.(modeItem).mode
			if m.mode == ModeRecover {
				m.state = StateSelectOutput
			} else {
				m.state = StateLoadingCatalog
				return m, tea.Batch(m.spinner.Tick, m.loadCatalog())
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.modeList, cmd = m.modeList.Update(msg)
	return m, cmd
}

func (m model) updateSelectOutput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		path := m.outputInput.Value()
		if path != "" {
			if strings.HasPrefix(path, "~") {
				home, _ := os.UserHomeDir()
				path = filepath.Join(home, path[1:])
			}
			m.outputPath = path
			m.state = StateLoadingCatalog
			return m, tea.Batch(m.spinner.Tick, m.loadCatalog())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.outputInput, cmd = m.outputInput.Update(msg)
	return m, cmd
}

func (m model) updateSelectFiles(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "k":
			if m.fileCursor > 0 {
				m.fileCursor--
			}
		case "down", "j":
			if m.fileCursor < len(m.entries)-1 {
				m.fileCursor++
			}
		case " ":
			if len(m.selected) > 0 {
				m.selected[m.fileCursor] = !m.selected[m.fileCursor]
			}
		case "a":
			for i := range m.selected {
				m.selected[i] = true
			}
		case "n":
			for i := range m.selected {
				m.selected[i] = false
			}
		case "enter":
			m.state = StateConfirm
		}
	}
	return m, nil
}

func (m model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			m.state = StateRunning
			m.statusMsg = "Recovering selected files..."
			return m, tea.Batch(m.spinner.Tick, m.runRecovery())
		case "n", "N":
			m.state = StateSelectFiles
		}
	}
	return m, nil
}

func (m model) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "q":
			return m, tea.Quit
		case "r":
			return initialModel(), nil
		}
	}
	return m, nil
}

func (m model) loadDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := device.List()
		return devicesLoadedMsg{devices: devices, err: err}
	}
}

// loadCatalog opens the source just long enough to classify it, locate
// and read the MFT, and build the undelete candidate list, then closes
// it (spec.md §5: no long-lived handle beyond one operation's duration).
func (m model) loadCatalog() tea.Cmd {
	imagePath := m.imagePath
	return func() tea.Msg {
		source, err := disk.Open(imagePath)
		if err != nil {
			return catalogLoadedMsg{err: err}
		}
		defer source.Close()

		var block [512]byte
		if _, err := source.ReadAt(block[:], 0); err != nil {
			return catalogLoadedMsg{err: err}
		}

		isoProbe := func() ([5]byte, error) {
			var sig [5]byte
			_, err := source.ReadAt(sig[:], 32769)
			return sig, err
		}

		kind, bs, err := ntfs.Classify(block, isoProbe)
		if err != nil {
			return catalogLoadedMsg{err: err}
		}
		if kind != ntfs.FileSystemNTFS {
			return catalogLoadedMsg{err: ntfs.UnsupportedFileSystemError(kind)}
		}

		mftOffset, err := ntfs.LocateMFT(source, bs)
		if err != nil {
			return catalogLoadedMsg{err: err}
		}

		mountRoot := ""
		if source.Kind() == disk.MountedDirectory {
			mountRoot = source.Path()
		}

		mftBytes, err := ntfs.ReadMFT(source, bs, mftOffset, mountRoot)
		if err != nil {
			return catalogLoadedMsg{err: err}
		}

		entries := ntfs.BuildCatalog(mftBytes, bs.RecordSize())
		return catalogLoadedMsg{bootSector: bs, entries: entries}
	}
}

func (m model) runRecovery() tea.Cmd {
	imagePath := m.imagePath
	outputPath := m.outputPath
	bs := m.bootSector
	dryRun := m.mode == ModeDryRun

	var chosen []ntfs.UndeleteEntry
	for i, entry := range m.entries {
		if m.selected[i] {
			chosen = append(chosen, entry)
		}
	}

	return func() tea.Msg {
		if len(chosen) == 0 {
			return recoveryCompleteMsg{err: ntfs.NewInputValidationError("No files selected")}
		}

		if dryRun {
			return recoveryCompleteMsg{recovered: len(chosen)}
		}

		source, err := disk.Open(imagePath)
		if err != nil {
			return recoveryCompleteMsg{err: err}
		}
		defer source.Close()

		var recovered, failed int
		for _, entry := range chosen {
			outPath := filepath.Join(outputPath, sanitizedOutputPath(entry.FullPath))
			data := entry.Record.UnnamedData()

			content, err := ntfs.Reconstruct(source, data, bs.ClusterSize())
			if err != nil {
				failed++
				continue
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				failed++
				continue
			}
			if err := os.WriteFile(outPath, content, 0644); err != nil {
				failed++
				continue
			}
			recovered++
		}

		return recoveryCompleteMsg{recovered: recovered, failed: failed}
	}
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" NTFS Undelete "))
	s.WriteString("\n\n")

	switch m.state {
	case StateWelcome:
		s.WriteString(m.viewWelcome())
	case StateSelectSource:
		s.WriteString(m.sourceList.View())
	case StateSelectDevice:
		s.WriteString(m.deviceList.View())
	case StateEnterPath:
		s.WriteString(m.viewEnterPath())
	case StateSelectMode:
		s.WriteString(m.modeList.View())
	case StateSelectOutput:
		s.WriteString(m.viewSelectOutput())
	case StateLoadingCatalog:
		s.WriteString(m.viewLoading())
	case StateSelectFiles:
		s.WriteString(m.viewSelectFiles())
	case StateConfirm:
		s.WriteString(m.viewConfirm())
	case StateRunning:
		s.WriteString(m.viewRunning())
	case StateResults:
		s.WriteString(m.viewResults())
	}

	if m.err != nil {
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press q to quit - esc to go back"))

	return s.String()
}

func (m model) viewWelcome() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Welcome to NTFS Undelete"))
	s.WriteString("\n\n")
	s.WriteString("This tool recovers deleted files from NTFS volumes by reading\n")
	s.WriteString("the Master File Table directly.\n\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("Important:"))
	s.WriteString(" the source is opened READ-ONLY and is never modified.\n\n")
	s.WriteString(selectedStyle.Render("Press Enter to continue..."))
	return s.String()
}

func (m model) viewEnterPath() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Enter Disk Image Path"))
	s.WriteString("\n\n")
	s.WriteString(m.pathInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press Enter to continue"))
	return s.String()
}

func (m model) viewSelectOutput() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Select Output Directory"))
	s.WriteString("\n\n")
	s.WriteString(m.outputInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press Enter to continue"))
	return s.String()
}

func (m model) viewLoading() string {
	var s strings.Builder
	s.WriteString(m.spinner.View())
	s.WriteString(" Reading the MFT and building the candidate list...\n")
	return s.String()
}

func (m model) viewSelectFiles() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render(fmt.Sprintf("Select Files to Recover (%d candidates)", len(m.entries))))
	s.WriteString("\n\n")

	for i, entry := range m.entries {
		cursor := "  "
		if i == m.fileCursor {
			cursor = "> "
		}
		checkbox := "[ ]"
		if m.selected[i] {
			checkbox = "[x]"
		}
		line := fmt.Sprintf("%s%s %s (%s bytes)", cursor, checkbox, entry.FullPath, entry.SizeHuman())
		if i == m.fileCursor {
			s.WriteString(selectedStyle.Render(line))
		} else {
			s.WriteString(line)
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("up/down to move - space to toggle - a/n select all/none - enter to continue"))
	return s.String()
}

func (m model) viewConfirm() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Confirm"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("  Source: %s\n", m.imagePath))

	selectedCount := 0
	for _, v := range m.selected {
		if v {
			selectedCount++
		}
	}
	s.WriteString(fmt.Sprintf("  Selected: %d of %d\n", selectedCount, len(m.entries)))

	if m.mode == ModeRecover {
		s.WriteString(fmt.Sprintf("  Output: %s\n", m.outputPath))
	} else {
		s.WriteString("  Mode: Dry run (no files will be written)\n")
	}

	s.WriteString("\n")
	s.WriteString(selectedStyle.Render("Press Y to start, N to go back"))
	return s.String()
}

func (m model) viewRunning() string {
	var s strings.Builder
	s.WriteString(m.spinner.View())
	s.WriteString(" ")
	s.WriteString(m.statusMsg)
	return s.String()
}

func (m model) viewResults() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(errorStyle.Render("Recovery Failed"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Error: %v\n", m.err))
	} else {
		s.WriteString(successStyle.Render("Done"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Recovered %d files.\n", m.recoveredCount))
		if m.failedCount > 0 {
			s.WriteString(fmt.Sprintf("%d errors occurred.\n", m.failedCount))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Press R to run again - Q to quit"))
	return s.String()
}

// sanitizedOutputPath turns a catalog FullPath — which preserves the
// original on-disk name verbatim — into a path safe to create on the
// host filesystem: each "/"-separated component has brackets, NUL, and
// embedded backslashes stripped or substituted before the components
// are rejoined with the host's separator (spec.md §6 / §4.7 step 5).
func sanitizedOutputPath(fullPath string) string {
	parts := strings.Split(fullPath, "/")
	for i, part := range parts {
		parts[i] = sanitizePathComponent(part)
	}
	return filepath.Join(parts...)
}

func sanitizePathComponent(name string) string {
	replacer := strings.NewReplacer(
		"[", "",
		"]", "",
		"\x00", "",
		"\\", "_",
	)
	return replacer.Replace(name)
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
