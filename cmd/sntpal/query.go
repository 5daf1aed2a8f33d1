package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	beevik "github.com/beevik/ntp"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sntpal/sntpal/internal/sugar"
	"github.com/sntpal/sntpal/internal/ui"
	"github.com/sntpal/sntpal/pkg/sntpal"
)

const (
	padding  = 10
	maxWidth = 80
)

// messages is how many exchanges a query performs; the lowest-delay sample
// wins.
const messages = 5

func handleQueryCommand(system *sntpal.System, address string, compare bool) {
	m := queryCommandModel{system: system, address: address, compare: compare}
	m.resetProgress()

	if _, err := sugar.RunProgramWithErrors(m); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

var percentage float64 = 0
var result string

type queryCommandModel struct {
	progress progress.Model
	system   *sntpal.System
	address  string
	compare  bool
	err      error
}

type queryMessage string
type queryError error
type progressUpdateMessage struct{}

func queryCommand(system *sntpal.System, address string, compare bool) tea.Cmd {
	return func() tea.Msg {
		result, err := system.Query(address, messages)
		if err != nil {
			return queryError(err)
		}

		line := fmt.Sprint(signedSeconds(result.Offset), " +/- ",
			strconv.FormatFloat(result.Delay.Seconds(), 'G', 5, 64), " ",
			address, " (", result.Samples, "/", messages, " samples)")

		if compare {
			line += "\n" + compareLine(address)
		}
		return queryMessage(line)
	}
}

// compareLine measures the same server with an independent NTP client so the
// two offsets can be eyeballed against each other.
func compareLine(address string) string {
	response, err := beevik.Query(address)
	if err != nil {
		return fmt.Sprint("compare: error: ", err)
	}
	if err := response.Validate(); err != nil {
		return fmt.Sprint("compare: invalid response: ", err)
	}
	return fmt.Sprint("compare: ", signedSeconds(response.ClockOffset), " +/- ",
		strconv.FormatFloat(response.RTT.Seconds(), 'G', 5, 64), " ", address)
}

func signedSeconds(d time.Duration) string {
	s := strconv.FormatFloat(d.Seconds(), 'G', 5, 64)
	if d > 0 {
		s = "+" + s
	}
	return s
}

func progressListenCommand(m queryCommandModel) tea.Cmd {
	return func() tea.Msg {
		<-m.system.ProgressMeasured
		return progressUpdateMessage{}
	}
}

func (m *queryCommandModel) resetProgress() {
	m.progress = progress.New(progress.WithScaledGradient("#68b1b1", "#6ea4ff"))
}

func (m queryCommandModel) Init() tea.Cmd {
	return tea.Batch(queryCommand(m.system, m.address, m.compare), progressListenCommand(m))
}

func (m queryCommandModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil
	case progressUpdateMessage:
		percentage += 1 / float64(messages)
		return m, progressListenCommand(m)
	case queryMessage:
		result = string(msg)
		return m, tea.Quit
	case queryError:
		m.err = msg
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m queryCommandModel) View() (s string) {
	if m.err != nil {
		return
	}

	if result == "" {
		s += ui.TitleStyle("sntpal - Query") + "\n\n"
		s += m.progress.ViewAs(percentage) + "\n\n"
		s += ui.HelpStyle("q: exit\n")
	} else {
		s += result + "\n"
	}
	return
}

func (m queryCommandModel) GetError() error {
	return m.err
}
