package main

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/AndrewLester/loclntp/internal/rpc"
	"github.com/AndrewLester/loclntp/internal/ui"
	"github.com/AndrewLester/loclntp/pkg/loclntp"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func handleStatusUI(socket string) {
	m := statusUIModel{socket: socket, table: setupTable()}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

const fetchInfoPeriod = time.Second * 5

type statusUIModel struct {
	socket string
	client *rpc.Client

	table            table.Model
	stats            loclntp.StatsSnapshot
	err              error
	daemonKillStatus string
}

type dialSocketMessage *rpc.Client
type fetchInfoMessage struct {
	stats   loclntp.StatsSnapshot
	clients []*loclntp.ClientStats
}
type rpcErrorMessage struct{ err error }
type tickMsg time.Time

func dialSocketCommand(m statusUIModel) tea.Cmd {
	return func() tea.Msg {
		client, err := rpc.Dial(m.socket)
		if err != nil {
			return rpcErrorMessage{fmt.Errorf("error connecting to loclntp: %w", err)}
		}
		return dialSocketMessage(client)
	}
}

func fetchInfoCommand(m statusUIModel) tea.Cmd {
	return func() tea.Msg {
		stats, clients, err := m.client.Fetch()
		if err != nil {
			return rpcErrorMessage{fmt.Errorf("error getting info from loclntp: %w", err)}
		}
		return fetchInfoMessage{stats: stats, clients: clients}
	}
}

func stopDaemonCommand() tea.Cmd {
	return func() tea.Msg {
		if err := killDaemon(); err != nil {
			return rpcErrorMessage{err}
		}
		return nil
	}
}

func tickCommand(duration time.Duration) tea.Cmd {
	return tea.Tick(duration, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m statusUIModel) Init() tea.Cmd {
	return dialSocketCommand(m)
}

func (m statusUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.table.Focused() {
				m.table.Blur()
			} else {
				m.table.Focus()
			}
		case "s":
			m.daemonKillStatus = "Stopping " + daemonName
			return m, tea.Sequence(stopDaemonCommand(), tea.Quit)
		case "ctrl+c", "q":
			if m.client != nil {
				m.client.Close()
			}
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	case dialSocketMessage:
		m.client = msg
		return m, tickCommand(0)
	case fetchInfoMessage:
		m.stats = msg.stats
		rows := []table.Row{}
		for _, client := range msg.clients {
			rows = append(rows, table.Row{
				client.Address,
				strconv.FormatUint(client.Requests, 10),
				fmt.Sprintf("%s ago", time.Since(client.LastSeen).Round(time.Second)),
			})
		}
		m.table.SetRows(rows)
		return m, nil
	case rpcErrorMessage:
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		return m, tea.Batch(tickCommand(fetchInfoPeriod), fetchInfoCommand(m))
	default:
		return m, nil
	}
}

func (m statusUIModel) View() (s string) {
	if m.err != nil {
		return ui.Error(m.err.Error()) + "\n"
	}

	s += ui.Title("loclntp") + " " + m.stats.Address + "\n"
	s += fmt.Sprintf("up %s  requests %d  replies %d  malformed %d  send failures %d  clock failures %d\n",
		time.Since(m.stats.Started).Round(time.Second), m.stats.Requests, m.stats.Replies,
		m.stats.Malformed, m.stats.SendFailures, m.stats.ClockFailures)
	s += ui.TableBase(m.table.View()) + "\n\n"
	if m.daemonKillStatus != "" {
		s += m.daemonKillStatus + "\n"
	} else {
		s += ui.Help("q: exit, s: stop daemon") + "\n"
	}
	return
}

func setupTable() table.Model {
	columns := []table.Column{
		{Title: "Address", Width: 30},
		{Title: "Requests", Width: 12},
		{Title: "Last Seen", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.TableGray).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("218")).
		Background(lipgloss.Color("70")).
		Bold(false)
	t.SetStyles(s)

	return t
}
