// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pager is the interactive path browser for "pathfinder paths".
//
// # Description
//
// Paths are pulled one at a time from a lazy source, so the first path
// is shown as soon as it is found and later paths are only computed when
// the user asks for them. Paths already seen can be revisited without
// pulling again.
//
// # Thread Safety
//
// The model is used only inside the bubbletea event loop. The Puller is
// called from bubbletea command goroutines, one call at a time.
package pager

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/pathfinder/services/paths"
)

// NoMorePaths is shown when the user asks past the last path.
const NoMorePaths = "No more paths!"

// Puller returns the next path. ok is false once the source is exhausted.
type Puller func(ctx context.Context) (path *paths.PathResult, ok bool, err error)

// =============================================================================
// Messages
// =============================================================================

type pulledMsg struct {
	path *paths.PathResult
	ok   bool
	err  error
}

// =============================================================================
// Keys
// =============================================================================

type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l", " ", "enter"),
			key.WithHelp("n/→", "next path"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left", "h"),
			key.WithHelp("p/←", "previous path"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first path"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.First}, {k.Help, k.Quit}}
}

// =============================================================================
// Config
// =============================================================================

// Config configures the pager.
type Config struct {
	// From and To label the header.
	From string
	To   string

	// MaxHops is shown in the header when positive.
	MaxHops int

	// AltScreen runs the program in the terminal's alternate screen.
	AltScreen bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{AltScreen: true}
}

// =============================================================================
// Model
// =============================================================================

// Model is the bubbletea model for browsing paths.
type Model struct {
	config Config
	ctx    context.Context
	pull   Puller

	paths     []paths.PathResult
	current   int
	loading   bool
	exhausted bool
	notice    string
	err       error

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int
	quitting bool
}

// New creates a pager model. The first path is pulled by Init.
func New(ctx context.Context, pull Puller, config Config) Model {
	return Model{
		config:  config,
		ctx:     ctx,
		pull:    pull,
		current: -1,
		loading: true,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.pullCmd()
}

func (m Model) pullCmd() tea.Cmd {
	ctx, pull := m.ctx, m.pull
	return func() tea.Msg {
		p, ok, err := pull(ctx)
		return pulledMsg{path: p, ok: ok, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := m.height - 4
		if bodyHeight < 1 {
			bodyHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = bodyHeight
		}
		m.help.Width = m.width
		m.refresh()
		return m, nil

	case pulledMsg:
		m.loading = false
		switch {
		case msg.err != nil:
			m.err = msg.err
		case !msg.ok || msg.path == nil:
			m.exhausted = true
			if len(m.paths) > 0 {
				m.notice = NoMorePaths
			}
		default:
			m.paths = append(m.paths, *msg.path)
			m.current = len(m.paths) - 1
			m.notice = ""
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Next):
			return m.next()
		case key.Matches(msg, m.keys.Prev):
			if m.current > 0 {
				m.current--
				m.notice = ""
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, m.keys.First):
			if len(m.paths) > 0 {
				m.current = 0
				m.notice = ""
				m.refresh()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// next moves forward, pulling a new path when the user is at the end.
func (m Model) next() (tea.Model, tea.Cmd) {
	if m.current < len(m.paths)-1 {
		m.current++
		m.notice = ""
		m.refresh()
		return m, nil
	}
	if m.exhausted || m.err != nil {
		m.notice = NoMorePaths
		return m, nil
	}
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, m.pullCmd()
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.body())
		m.viewport.GotoTop()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.body())
	}
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) header() string {
	title := fmt.Sprintf("%s → %s", m.config.From, m.config.To)
	if m.config.MaxHops > 0 {
		title += fmt.Sprintf(" (max %d hops)", m.config.MaxHops)
	}

	var position string
	switch {
	case len(m.paths) == 0:
		position = ""
	case m.exhausted:
		position = fmt.Sprintf("Path %d/%d", m.current+1, len(m.paths))
	default:
		position = fmt.Sprintf("Path %d/%d+", m.current+1, len(m.paths))
	}
	if m.loading {
		position = strings.TrimSpace(position + " searching...")
	}
	return titleStyle.Render(title) + "  " + statsStyle.Render(position)
}

func (m Model) body() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.paths) == 0 {
		if m.exhausted {
			return "No path found."
		}
		return statsStyle.Render("Searching for the first path...")
	}

	p := m.paths[m.current]
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", statsStyle.Render(fmt.Sprintf("%d hops, weight %g", p.Hops, p.Weight)))
	for i, v := range p.Vertices {
		marker := "  "
		if i == 0 || i == len(p.Vertices)-1 {
			marker = endpointStyle.Render("● ")
		}
		b.WriteString(marker)
		b.WriteString(vertexStyle.Render(v))
		b.WriteString("\n")
		if i < len(p.Vertices)-1 {
			b.WriteString(statsStyle.Render("  │"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Paths returns the paths seen so far.
func (m Model) Paths() []paths.PathResult {
	return m.paths
}

// Err returns the error that stopped pulling, if any.
func (m Model) Err() error {
	return m.err
}

// Run starts the pager and blocks until the user quits.
func Run(ctx context.Context, pull Puller, config Config) (Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if config.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	final, err := tea.NewProgram(New(ctx, pull, config), opts...).Run()
	if err != nil {
		return Model{}, err
	}
	return final.(Model), nil
}

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	vertexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	endpointStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)
