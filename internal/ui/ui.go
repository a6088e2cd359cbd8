// Package ui provides a terminal UI for watching a station's listeners
// drift in and out of sync, built on bubbletea.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tandem/internal/repositories"
	"github.com/desertthunder/tandem/internal/station"
)

// refreshInterval is how often the watch view re-reads the snapshots.
const refreshInterval = 2 * time.Second

// StationReader loads a station by id.
type StationReader interface {
	GetOrDefault(ctx context.Context, id string) (*station.Station, error)
}

// PlayerLister loads the persisted listener snapshots of a station.
type PlayerLister interface {
	List(ctx context.Context, stationID string) ([]repositories.PlayerRow, error)
}

// Model represents the watch TUI state.
type Model struct {
	ctx       context.Context
	stations  StationReader
	players   PlayerLister
	stationID string

	station   *station.Station
	width     int
	height    int
	listeners list.Model
	listReady bool
	err       error
	help      help.Model
	keys      keyMap
}

type stationFetchedMsg struct {
	station *station.Station
	rows    []repositories.PlayerRow
	err     error
}

type tickMsg time.Time

// NewModel creates a watch model for the given station.
func NewModel(ctx context.Context, stations StationReader, players PlayerLister, stationID string) *Model {
	return &Model{
		ctx:       ctx,
		stations:  stations,
		players:   players,
		stationID: stationID,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the first fetch and the refresh ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.listeners.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case stationFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.station = msg.station
		m.setListeners(msg.rows)
		return m, nil
	}

	if m.listReady {
		var cmd tea.Cmd
		m.listeners, cmd = m.listeners.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the station header and listener list.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if m.station == nil {
		if !m.listReady {
			return styles.help.Render("Loading station...")
		}
		return styles.err.Render(fmt.Sprintf("Station (%s) does not exist\n\nPress q to quit", m.stationID))
	}

	title := styles.title.Render(fmt.Sprintf("Station: %s", m.station.Name))

	var status string
	if m.station.HasOwner() {
		status = styles.ok.Render(fmt.Sprintf("owned by %s", m.station.OwnerUserID))
	} else {
		status = styles.warn.Render("not started")
	}

	body := ""
	if m.listReady {
		body = m.listeners.View()
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, status, body, helpView)
}

func (m *Model) setListeners(rows []repositories.PlayerRow) {
	items := make([]list.Item, len(rows))
	for i, row := range rows {
		items[i] = listenerItem{
			row:     row,
			isOwner: m.station != nil && row.UserID == m.station.OwnerUserID,
		}
	}

	if !m.listReady {
		m.listeners = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.listeners.Title = "Listeners"
		m.listeners.SetShowHelp(false)
		m.listeners.SetSize(m.width-4, m.height-8)
		m.listReady = true
		return
	}
	m.listeners.SetItems(items)
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		st, err := m.stations.GetOrDefault(m.ctx, m.stationID)
		if err != nil {
			return stationFetchedMsg{err: err}
		}
		if st == nil {
			return stationFetchedMsg{}
		}

		rows, err := m.players.List(m.ctx, st.ID)
		if err != nil {
			return stationFetchedMsg{err: err}
		}
		return stationFetchedMsg{station: st, rows: rows}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
