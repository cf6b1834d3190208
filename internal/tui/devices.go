// SPDX-License-Identifier: MIT
package tui

import (
	"audiostate/internal/audio"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScreenType is the active device browser screen.
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Sample rates offered on the configuration screen.
var sampleRates = []float64{8000, 16000, 22050, 44100, 48000, 88200, 96000}

var (
	keyQuit  = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp    = key.NewBinding(key.WithKeys("up", "k"))
	keyDown  = key.NewBinding(key.WithKeys("down", "j"))
	keyEnter = key.NewBinding(key.WithKeys("enter"))
	keyBack  = key.NewBinding(key.WithKeys("esc"))
	keyPause = key.NewBinding(key.WithKeys("p", " "))
)

// Selection is the device and sample rate confirmed in the browser.
type Selection struct {
	Device     audio.Device
	SampleRate float64
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// DeviceListModel browses input devices and picks a capture sample rate.
type DeviceListModel struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType
	rateIndex     int
	selection     *Selection
}

// NewDeviceListModel creates a browser listing the devices fetch returns.
func NewDeviceListModel(fetch func() ([]audio.Device, error)) DeviceListModel {
	return DeviceListModel{fetch: fetch, activeScreen: ListScreen}
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

// Selection returns the confirmed choice, if any.
func (m DeviceListModel) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
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
		m.devices = msg.devices

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}
		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				m.selectedIndex = max(0, m.selectedIndex-1)
			case key.Matches(msg, keyDown):
				m.selectedIndex = max(0, min(len(m.devices)-1, m.selectedIndex+1))
			case key.Matches(msg, keyEnter):
				if len(m.devices) > 0 && m.devices[m.selectedIndex].MaxInputChannels > 0 {
					m.activeScreen = ConfigScreen
					m.rateIndex = nearestRate(m.devices[m.selectedIndex].DefaultSampleRate)
				}
			}
		case ConfigScreen:
			switch {
			case key.Matches(msg, keyBack):
				m.activeScreen = ListScreen
			case key.Matches(msg, keyUp):
				m.rateIndex = max(0, m.rateIndex-1)
			case key.Matches(msg, keyDown):
				m.rateIndex = min(len(sampleRates)-1, m.rateIndex+1)
			case key.Matches(msg, keyEnter):
				m.selection = &Selection{Device: m.devices[m.selectedIndex], SampleRate: sampleRates[m.rateIndex]}
				return m, tea.Quit
			}
		}
	}

	if m.ready {
		if m.activeScreen == ListScreen {
			m.viewport.SetContent(m.renderDevices())
		} else {
			m.viewport.SetContent(m.renderDeviceConfig())
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
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
		title = titleStyle.Render("Audio Device List")
		help = helpStyle.Render("↑/↓ navigate  enter configure  q quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = helpStyle.Render("↑/↓ sample rate  enter select  esc back  q quit")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, "", m.viewport.View(), "", help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n    Input channels: %d, Output channels: %d\n    Default sample rate: %.0f Hz\n",
			d.ID, d.Name, d.Type(), d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Configure Device: %s\n\nSample Rate:\n", m.devices[m.selectedIndex].Name)
	for i, rate := range sampleRates {
		line := fmt.Sprintf("    %.0f Hz\n", rate)
		if i == m.rateIndex {
			line = highlightStyle.Render(fmt.Sprintf("  ▶ %.0f Hz\n", rate))
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// nearestRate returns the index of the offered rate closest to rate.
func nearestRate(rate float64) int {
	best := 0
	for i, r := range sampleRates {
		if math.Abs(r-rate) < math.Abs(sampleRates[best]-rate) {
			best = i
		}
	}
	return best
}
