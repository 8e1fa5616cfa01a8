package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/AndrewLester/loclntp/internal/sugar"
	"github.com/AndrewLester/loclntp/internal/ui"
	"github.com/AndrewLester/loclntp/pkg/loclntp"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

func handleQueryCommand(address string) {
	m := queryCommandModel{address: address, samples: make(chan struct{}, messages)}
	m.resetProgress()

	result, err := sugar.RunProgramWithErrors(m)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if m, ok := result.(queryCommandModel); ok && m.result != "" {
		fmt.Println(m.result)
	}
}

const (
	padding  = 10
	maxWidth = 80
)

const messages = 5

type queryCommandModel struct {
	progress progress.Model
	address  string
	samples  chan struct{}
	received int
	result   string
	err      error
}

type ntpQueryMessage string
type ntpQueryError error
type progressUpdateMessage struct{}

func ntpQueryCommand(m queryCommandModel) tea.Cmd {
	return func() tea.Msg {
		result, err := loclntp.Query(m.address, messages, m.samples)
		if err != nil {
			return ntpQueryError(err)
		}
		return ntpQueryMessage(formatQueryResult(m.address, result))
	}
}

func formatQueryResult(address string, result *loclntp.QueryResult) string {
	offsetString := strconv.FormatFloat(result.Offset, 'G', 5, 64)
	if result.Offset > 0 {
		offsetString = "+" + offsetString
	}
	delayString := strconv.FormatFloat(result.Err, 'G', 5, 64)

	host := address
	if h, _, err := net.SplitHostPort(address); err == nil {
		host = h
	}
	resolved := host
	if addr, err := net.ResolveIPAddr("ip", host); err == nil {
		resolved = addr.String()
	}

	return fmt.Sprint(offsetString, " +/- ", delayString, " ", address, " ", resolved,
		" stratum ", result.Stratum, " refid ", refIDString(result.ReferenceID))
}

func refIDString(refID uint32) string {
	encoded := make([]byte, 4)
	binary.BigEndian.PutUint32(encoded, refID)
	for _, c := range encoded {
		if c != 0 && (c < ' ' || c > '~') {
			return net.IP(encoded).String()
		}
	}
	return string(bytes.TrimRight(encoded, "\x00"))
}

func sampleListenCommand(m queryCommandModel) tea.Cmd {
	return func() tea.Msg {
		<-m.samples
		return progressUpdateMessage{}
	}
}

func (m *queryCommandModel) resetProgress() {
	m.progress = progress.New(progress.WithScaledGradient("#68b1b1", "#6ea4ff"))
}

func (m queryCommandModel) Init() tea.Cmd {
	return tea.Batch(ntpQueryCommand(m), sampleListenCommand(m))
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
		m.received++
		if m.received < messages {
			return m, sampleListenCommand(m)
		}
		return m, nil
	case ntpQueryMessage:
		m.result = string(msg)
		return m, tea.Quit
	case ntpQueryError:
		m.err = msg
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m queryCommandModel) View() (s string) {
	if m.err != nil || m.result != "" {
		return
	}

	s += ui.Title("loclntp - Query") + "\n\n"
	s += m.progress.ViewAs(float64(m.received)/messages) + "\n\n"
	s += ui.Help("q: exit") + "\n"
	return
}

func (m queryCommandModel) GetError() error {
	return m.err
}
