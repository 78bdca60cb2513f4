package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"liveplot/internal/audio"
	"liveplot/internal/config"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Faint(true)
)

// Values offered on the settings screen besides the device default rate.
var (
	standardRates = []float64{22050, 44100, 48000, 88200, 96000}
	blockSizes    = []int{256, 512, 1024, 2048, 4096, 8192}
)

// ScreenType defines which screen is currently active.
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

type pickerKeys struct {
	Up, Down, Left, Right, Confirm, Back, Quit key.Binding
}

var keys = pickerKeys{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "previous setting")),
	Right:   key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "next setting")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return infoStyle.Render(strings.Join(parts, " • "))
}

// setting is one adjustable row of the settings screen.
type setting int

const (
	settingRate setting = iota
	settingBlock
	settingCount
)

// DeviceListModel lists the capture devices and lets the user pick one
// together with the sample rate and block size to open it with.
type DeviceListModel struct {
	devices       []audio.Device // Input-capable devices only.
	skipped       int            // Output-only devices hidden from the list.
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	rates     []float64
	rateIndex int
	block     int // Index into blockSizes.
	focus     setting

	fetch    func() ([]audio.Device, error)
	selected *Selection
}

// Selection is the device and stream settings confirmed on the settings
// screen.
type Selection struct {
	DeviceID   int
	DeviceName string
	SampleRate float64
	BlockSize  int
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// NewDeviceListModel creates a picker that loads devices with fetch,
// normally audio.GetDevices.
func NewDeviceListModel(fetch func() ([]audio.Device, error)) DeviceListModel {
	return DeviceListModel{
		activeScreen: ListScreen,
		block:        slices.Index(blockSizes, config.DefaultBlockSize),
		fetch:        fetch,
	}
}

func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = m.devices[:0]
		for _, d := range msg.devices {
			if d.MaxInputChannels > 0 {
				m.devices = append(m.devices, d)
			}
		}
		m.skipped = len(msg.devices) - len(m.devices)

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		var done bool
		if m.activeScreen == ListScreen {
			m = m.updateList(msg)
		} else {
			m, done = m.updateSettings(msg)
		}
		if done {
			return m, tea.Quit
		}
	}

	m.refresh()
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DeviceListModel) updateList(msg tea.KeyMsg) DeviceListModel {
	switch {
	case key.Matches(msg, keys.Up):
		m.selectedIndex = max(0, m.selectedIndex-1)
	case key.Matches(msg, keys.Down):
		m.selectedIndex = max(0, min(len(m.devices)-1, m.selectedIndex+1))
	case key.Matches(msg, keys.Confirm):
		if len(m.devices) == 0 {
			break
		}
		m.activeScreen = ConfigScreen
		m.focus = settingRate
		m.rates = rateChoices(m.devices[m.selectedIndex].DefaultSampleRate)
		m.rateIndex = max(0, slices.Index(m.rates, m.devices[m.selectedIndex].DefaultSampleRate))
	}
	return m
}

func (m DeviceListModel) updateSettings(msg tea.KeyMsg) (DeviceListModel, bool) {
	switch {
	case key.Matches(msg, keys.Confirm):
		device := m.devices[m.selectedIndex]
		m.selected = &Selection{
			DeviceID:   device.ID,
			DeviceName: device.Name,
			SampleRate: m.rates[m.rateIndex],
			BlockSize:  blockSizes[m.block],
		}
		return m, true
	case key.Matches(msg, keys.Back):
		m.activeScreen = ListScreen
	case key.Matches(msg, keys.Left):
		m.focus = (m.focus + settingCount - 1) % settingCount
	case key.Matches(msg, keys.Right):
		m.focus = (m.focus + 1) % settingCount
	case key.Matches(msg, keys.Up):
		m.step(-1)
	case key.Matches(msg, keys.Down):
		m.step(1)
	}
	return m, false
}

func (m *DeviceListModel) step(delta int) {
	switch m.focus {
	case settingRate:
		m.rateIndex = max(0, min(len(m.rates)-1, m.rateIndex+delta))
	case settingBlock:
		m.block = max(0, min(len(blockSizes)-1, m.block+delta))
	}
}

// rateChoices merges the device default into the standard rates, ascending.
func rateChoices(deviceDefault float64) []float64 {
	rates := slices.Clone(standardRates)
	if deviceDefault > 0 && !slices.Contains(rates, deviceDefault) {
		rates = append(rates, deviceDefault)
	}
	slices.SortFunc(rates, cmp.Compare[float64])
	return rates
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ListScreen {
		m.viewport.SetContent(m.renderDevices())
	} else {
		m.viewport.SetContent(m.renderSettings())
	}
}

func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = helpLine(keys.Up, keys.Down, keys.Confirm, keys.Quit)
	} else {
		title = titleStyle.Render("Stream Settings")
		help = helpLine(keys.Left, keys.Up, keys.Confirm, keys.Back, keys.Quit)
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		marker := "  "
		if i == m.selectedIndex {
			marker = "▶ "
		}
		line := fmt.Sprintf("%s[%d] %s  %d ch @ %.0f Hz  %s\n",
			marker, device.ID, device.Name, device.MaxInputChannels,
			device.DefaultSampleRate, device.HostAPI)
		if i == m.selectedIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	if m.skipped > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n%d output-only devices hidden\n", m.skipped)))
	}
	return sb.String()
}

func (m DeviceListModel) renderSettings() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", m.devices[m.selectedIndex].Name)

	column := func(name string, focused bool, values []string, current int) {
		header := name
		if focused {
			header = highlightStyle.Render(name)
		}
		sb.WriteString(header + "\n")
		for i, v := range values {
			line := "    " + v
			if i == current {
				line = "  ▶ " + v
				if focused {
					line = highlightStyle.Render(line)
				}
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	rates := make([]string, len(m.rates))
	for i, r := range m.rates {
		rates[i] = fmt.Sprintf("%.0f Hz", r)
	}
	sizes := make([]string, len(blockSizes))
	for i, b := range blockSizes {
		sizes[i] = fmt.Sprintf("%d samples (%.1f ms)", b, 1000*float64(b)/m.rates[m.rateIndex])
	}
	column("Sample rate", m.focus == settingRate, rates, m.rateIndex)
	column("Block size", m.focus == settingBlock, sizes, m.block)
	return sb.String()
}

// Selected returns the confirmed selection, if the user made one.
func (m DeviceListModel) Selected() (Selection, bool) {
	if m.selected == nil {
		return Selection{}, false
	}
	return *m.selected, true
}

// StartDeviceListUI runs the picker in the alternate screen. ok is false
// when the user quit without confirming a device.
func StartDeviceListUI() (sel Selection, ok bool, err error) {
	p := tea.NewProgram(NewDeviceListModel(audio.GetDevices), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}
	sel, ok = final.(DeviceListModel).Selected()
	return sel, ok, nil
}
