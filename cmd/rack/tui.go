package main

import (
	"fmt"
	"math"
	"path"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/effectrack/dsp/effectchain"
	"github.com/cwbudde/effectrack/dsp/graph"
	"github.com/cwbudde/effectrack/dsp/window"
)

const (
	frameRate   = 30
	knobSteps   = 20
	knobWidth   = 10
	meterWidth  = 40
	meterFloor  = -60.0
	scopeWidth  = 64
	scopeHeight = 9
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	headStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	onStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	clipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	scopeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Border(lipgloss.RoundedBorder())
	spectrumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// model is the bubbletea front end of a rack.
type model struct {
	gctx *graph.Context
	rack *effectchain.Rack
	pads []pad

	slots   []effectchain.SlotState
	knobs   []effectchain.Knob
	slot    int
	knob    int
	editing bool

	scope    []float64
	spectrum []byte
	peak     float64
	status   string
}

func newModel(gctx *graph.Context, rack *effectchain.Rack, pads []pad) model {
	m := model{
		gctx:     gctx,
		rack:     rack,
		pads:     pads,
		scope:    make([]float64, rack.Analyser().FFTSize()),
		spectrum: make([]byte, rack.Analyser().FrequencyBinCount()),
	}
	m.refresh()

	return m
}

func (m *model) refresh() {
	m.slots = m.rack.Slots()
	m.knobs = nil

	if m.slot < len(m.slots) {
		m.knobs, _ = m.rack.Knobs(m.slots[m.slot].Name)
	}

	m.knob = max(0, min(m.knob, len(m.knobs)-1))
	if len(m.knobs) == 0 {
		m.editing = false
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.capture()
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// capture copies the analyser state under the render lock.
func (m *model) capture() {
	m.gctx.Update(func() {
		a := m.rack.Analyser()
		a.GetFloatTimeDomainData(m.scope)
		a.GetByteFrequencyData(m.spectrum)
		m.peak = a.Peak()
	})
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.editing {
			m.knob = max(0, m.knob-1)
		} else if m.slot > 0 {
			m.slot--
			m.knob = 0
		}

	case "down", "j":
		if m.editing {
			m.knob = min(len(m.knobs)-1, m.knob+1)
		} else if m.slot < len(m.slots)-1 {
			m.slot++
			m.knob = 0
		}

	case "enter", " ":
		if m.slot < len(m.slots) {
			name := m.slots[m.slot].Name
			on, err := m.rack.Toggle(name)
			m.report(err, "%s %s", name, onOff(on))
		}

	case "tab", "right", "l":
		m.editing = len(m.knobs) > 0

	case "esc", "left", "h":
		m.editing = false

	case "+", "=", "]":
		m.adjust(1)

	case "-", "_", "[":
		m.adjust(-1)

	case "w":
		m.cycleWindow()

	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			m.play(int(key[0] - '1'))
		}
	}

	m.refresh()

	return m, nil
}

// adjust moves the selected knob one step, or to the next choice.
func (m *model) adjust(dir int) {
	if !m.editing || m.knob >= len(m.knobs) || m.slot >= len(m.slots) {
		return
	}

	s, k := m.slots[m.slot], m.knobs[m.knob]

	if len(k.Choices) > 0 {
		cur := slices.Index(k.Choices, s.Params.GetStr(k.Name, k.Choices[0]))
		next := k.Choices[(cur+dir+len(k.Choices))%len(k.Choices)]
		m.report(m.rack.SetString(s.Name, k.Name, next), "%s.%s = %s", s.Name, k.Name, next)

		return
	}

	step := (k.Max - k.Min) / knobSteps
	v := max(k.Min, min(k.Max, s.Params.GetNum(k.Name, k.Min)+float64(dir)*step))
	m.report(m.rack.Set(s.Name, k.Name, v), "%s.%s = %.3g", s.Name, k.Name, v)
}

// cycleWindow switches the analyser to the next window function.
func (m *model) cycleWindow() {
	var (
		next window.Type
		err  error
	)

	m.gctx.Update(func() {
		a := m.rack.Analyser()
		next = a.Window() + 1
		if !next.Valid() {
			next = window.TypeRectangular
		}
		err = a.SetWindow(next)
	})

	m.report(err, "window %s", next)
}

func (m *model) play(i int) {
	if i >= len(m.pads) {
		m.status = fmt.Sprintf("no sample on pad %d", i+1)
		return
	}

	p := m.pads[i]
	if p.buf == nil {
		m.status = fmt.Sprintf("pad %d failed to load", i+1)
		return
	}

	_, err := m.rack.PlaySample(p.buf)
	m.report(err, "pad %d: %s", i+1, path.Base(p.name))
}

func (m *model) report(err error, format string, args ...any) {
	if err != nil {
		m.status = "error: " + err.Error()
		return
	}

	m.status = fmt.Sprintf(format, args...)
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.slotsView(), "    ", m.knobsView()))
	b.WriteString("\n\n")
	b.WriteString(m.meterView())
	b.WriteString("\n")
	b.WriteString(scopeStyle.Render(strings.Join(scopeRows(m.scope, scopeWidth, scopeHeight), "\n")))
	b.WriteString("\n")
	b.WriteString(" " + spectrumStyle.Render(spectrumLine(m.spectrum, scopeWidth)))
	b.WriteString("\n")
	b.WriteString(m.padsView())
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ select  enter toggle  →/tab knobs  ←/esc back  +/- adjust  1-9 pads  w window  q quit"))

	return b.String()
}

func (m model) headerView() string {
	var chain []string
	for _, s := range m.slots {
		if s.Enabled {
			chain = append(chain, s.Name)
		}
	}

	route := "dry"
	if len(chain) > 0 {
		route = strings.Join(chain, " → ")
	}

	return titleStyle.Render("EFFECTRACK") +
		fmt.Sprintf(" │ %.0f Hz │ %s", m.gctx.SampleRate(), route)
}

func (m model) slotsView() string {
	lines := []string{headStyle.Render("SLOTS")}

	for i, s := range m.slots {
		mark := offStyle.Render("[ ]")
		if s.Enabled {
			mark = onStyle.Render("[x]")
		}

		name := "  " + s.Name
		if i == m.slot && !m.editing {
			name = cursorStyle.Render("> " + s.Name)
		}

		lines = append(lines, mark+" "+name)
	}

	return strings.Join(lines, "\n")
}

func (m model) knobsView() string {
	if m.slot >= len(m.slots) {
		return ""
	}

	s := m.slots[m.slot]
	lines := []string{headStyle.Render("KNOBS " + s.Name)}

	for i, k := range m.knobs {
		var value string

		if len(k.Choices) > 0 {
			value = s.Params.GetStr(k.Name, "")
		} else {
			v := s.Params.GetNum(k.Name, k.Min)
			frac := 0.0
			if k.Max > k.Min {
				frac = (v - k.Min) / (k.Max - k.Min)
			}
			value = fmt.Sprintf("%s %.3g", bar(frac, knobWidth), v)
		}

		line := fmt.Sprintf("%-14s %s", k.Name, value)
		if m.editing && i == m.knob {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (m model) meterView() string {
	db := meterFloor
	if m.peak > 0 {
		db = max(meterFloor, 20*math.Log10(m.peak))
	}

	style := onStyle
	if m.peak >= 1 {
		style = clipStyle
	}

	return fmt.Sprintf("PEAK %s %6.1f dBFS", style.Render(bar(1-db/meterFloor, meterWidth)), db)
}

func (m model) padsView() string {
	parts := []string{"PADS"}

	for i := range maxPads {
		label := fmt.Sprintf("[%d -]", i+1)
		style := offStyle

		if i < len(m.pads) && m.pads[i].buf != nil {
			label = fmt.Sprintf("[%d %s]", i+1, path.Base(m.pads[i].name))
			style = onStyle
		}

		parts = append(parts, style.Render(label))
	}

	return strings.Join(parts, " ")
}

// scopeRows plots samples in [-1, 1] on a width x height character grid,
// top row first.
func scopeRows(samples []float64, width, height int) []string {
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", width))
	}

	if len(samples) > 0 && height > 0 {
		for x := range width {
			v := samples[x*len(samples)/width]
			if math.IsNaN(v) {
				v = 0
			}
			v = max(-1, min(1, v))
			y := int(math.Round((1 - v) / 2 * float64(height-1)))
			grid[y][x] = '•'
		}
	}

	rows := make([]string, height)
	for y, r := range grid {
		rows[y] = string(r)
	}

	return rows
}

var levels = []rune(" ▁▂▃▄▅▆▇█")

// spectrumLine draws bins as one row of block characters, using the
// loudest bin of each column. Bins are spread logarithmically.
func spectrumLine(bins []byte, width int) string {
	if len(bins) < 2 {
		return strings.Repeat(" ", width)
	}

	out := make([]rune, width)
	top := float64(len(bins) - 1)

	for x := range width {
		lo := int(math.Pow(top, float64(x)/float64(width)))
		hi := max(lo+1, int(math.Pow(top, float64(x+1)/float64(width))))

		var peak byte
		for _, v := range bins[lo:min(hi, len(bins))] {
			peak = max(peak, v)
		}

		out[x] = levels[int(peak)*(len(levels)-1)/255]
	}

	return string(out)
}

func bar(frac float64, width int) string {
	n := int(math.Round(max(0, min(1, frac)) * float64(width)))
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

func onOff(on bool) string {
	if on {
		return "on"
	}

	return "off"
}
