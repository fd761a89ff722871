package tui

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/vovakirdan/tui-scratch/internal/betting"
	"github.com/vovakirdan/tui-scratch/internal/config"
	"github.com/vovakirdan/tui-scratch/internal/core"
	"github.com/vovakirdan/tui-scratch/internal/games/scratch"
	"github.com/vovakirdan/tui-scratch/internal/relay"
	"github.com/vovakirdan/tui-scratch/internal/schedule"
	"github.com/vovakirdan/tui-scratch/internal/storage"
)

// betStep is how much one key press changes the bet.
const betStep = 0.1

// Options configures a game screen.
type Options struct {
	Game      config.GameConfig
	Runtime   core.RuntimeConfig
	Store     *storage.Store // optional round history
	ServerURL string         // empty plays live rounds against an in-process house
	Logger    *log.Logger
}

// Model is the Bubble Tea model of one scratch card game. It owns the
// game's serial queue and is the coordinator's sink, audio and observer.
type Model struct {
	opts   Options
	logger *log.Logger

	queue *schedule.Queue
	wake  <-chan struct{}
	hub   *relay.Hub
	coord *betting.Coordinator
	board *Board

	client    *relay.Client
	cancel    context.CancelFunc
	closeOnce sync.Once

	screen   *core.Screen
	keys     KeyMap
	help     help.Model
	history  *HistoryModel
	controls betting.Controls
	cursor   core.Position
	cue      scratch.Cue
	width    int
	height   int
	quitting bool
}

var (
	_ scratch.Audio    = (*Model)(nil)
	_ betting.Observer = (*Model)(nil)
)

// NewModel creates a game screen with an idle board. Call Start before
// running it to connect the relay.
func NewModel(opts Options) *Model {
	opts.Game.Normalize()
	if opts.Runtime.Seed == 0 {
		opts.Runtime.Seed = time.Now().UnixNano()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	queue, wake := schedule.NewWakeQueue()
	m := &Model{
		opts:   opts,
		logger: opts.Logger.WithPrefix("tui"),
		queue:  queue,
		wake:   wake,
		hub:    relay.NewHub(opts.Game.Relay.DemoMode, opts.Logger),
		board:  NewBoard(opts.Game.GridSize, opts.Game.Timing.FlipDuration(), opts.Game.Timing.Animations),
		screen: core.NewScreen(0, 0),
		keys:   DefaultKeyMap(),
		help:   help.New(),
		width:  opts.Runtime.ScreenW,
		height: opts.Runtime.ScreenH,
	}
	m.help.Width = m.width

	cfg := betting.Config{
		GridSize:        opts.Game.GridSize,
		Catalog:         opts.Game.CatalogKeys(),
		LoseProbability: opts.Game.Demo.LoseProbability,
		AutoResetDelay:  opts.Game.Timing.AutoResetDelay(),
		RevealInterval:  opts.Game.Timing.RevealInterval(),
		Animations:      opts.Game.Timing.Animations,
		BetValue:        opts.Game.Betting.DefaultBet,
		Mines:           opts.Game.Betting.Mines,
		NumberOfBets:    opts.Game.Betting.NumberOfBets,
		Demo:            opts.Game.Relay.DemoMode,
		Scheduler:       schedule.New(quartz.NewReal(), queue),
		Sink:            m.board,
		Audio:           m,
		Outbound:        m.hub,
		Observer:        m,
		Rand:            rand.New(rand.NewSource(opts.Runtime.Seed)),
		Logger:          opts.Logger,
	}
	if opts.Store != nil {
		cfg.Recorder = opts.Store
	}
	m.coord = betting.New(cfg)
	m.controls = m.coord.Controls()
	return m
}

// Start connects the game to its backend: the relay server at ServerURL,
// or an in-process house. It returns once traffic is flowing.
func (m *Model) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	if m.opts.ServerURL != "" {
		client, err := relay.Dial(ctx, m.opts.ServerURL, m.hub, m.opts.Logger)
		if err != nil {
			m.cancel()
			return err
		}
		m.client = client
	} else {
		house := relay.NewHouse(relay.HouseConfig{
			GridSize:        m.opts.Game.GridSize,
			Catalog:         m.opts.Game.CatalogKeys(),
			Paytable:        m.opts.Game.PaytableKeys(),
			LoseProbability: m.opts.Game.Demo.LoseProbability,
			Rand:            rand.New(rand.NewSource(m.opts.Runtime.Seed + 1)),
			Logger:          m.opts.Logger,
		})
		go func() {
			if err := relay.Serve(ctx, m.hub, house); err != nil && ctx.Err() == nil {
				m.logger.Error("house stopped", "error", err)
			}
		}()
	}

	if err := betting.Attach(ctx, m.hub, m.queue, m.coord); err != nil {
		m.Close()
		return fmt.Errorf("cannot attach relay: %w", err)
	}
	return nil
}

// Close disconnects the relay. It is safe to call more than once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		if m.client != nil {
			//nolint:errcheck // Best-effort close on exit
			m.client.Close()
		}
		m.hub.Close()
	})
}

// Coordinator returns the game coordinator.
func (m *Model) Coordinator() *betting.Coordinator {
	return m.coord
}

// Play shows the last notable sound cue in the panel.
func (m *Model) Play(cue scratch.Cue, _ float64) {
	if cue == scratch.CueFlip {
		return
	}
	m.cue = cue
}

// ControlsChanged keeps the latest panel snapshot.
func (m *Model) ControlsChanged(c betting.Controls) {
	m.controls = c
	m.board.SetAnimations(c.Animations)
}

// Init starts waiting for queued work.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("Scratch Cards"), waitForWake(m.wake))
}

// Update handles messages, then runs the work they queued.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.history != nil {
			cmds = append(cmds, m.updateHistory(msg))
		} else {
			cmds = append(cmds, m.handleKey(msg))
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if m.history != nil {
			cmds = append(cmds, m.updateHistory(msg))
		}

	case wakeMsg:
		cmds = append(cmds, waitForWake(m.wake))

	case flipDoneMsg:
		m.board.FinishFlip(msg.seq)
	}

	m.queue.Drain()
	m.board.SetSelected(m.coord.Board().SelectedTile)
	cmds = append(cmds, m.board.TakeCmds()...)
	return m, tea.Batch(cmds...)
}

func (m *Model) updateHistory(msg tea.Msg) tea.Cmd {
	next, cmd := m.history.Update(msg)
	if hm, ok := next.(HistoryModel); ok {
		m.history = &hm
	}
	if m.history.IsQuitting() {
		m.quitting = true
		m.Close()
		return tea.Quit
	}
	if m.history.IsGoingBack() {
		m.history = nil
		return nil
	}
	return cmd
}

// handleKey turns a key press into a coordinator intent.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	grid := m.opts.Game.GridSize
	c := m.coord

	switch m.keys.Action(msg) {
	case core.ActionQuit:
		m.quitting = true
		m.Close()
		return tea.Quit
	case core.ActionUp:
		m.cursor.Row = core.Clamp(m.cursor.Row-1, 0, grid-1)
	case core.ActionDown:
		m.cursor.Row = core.Clamp(m.cursor.Row+1, 0, grid-1)
	case core.ActionLeft:
		m.cursor.Col = core.Clamp(m.cursor.Col-1, 0, grid-1)
	case core.ActionRight:
		m.cursor.Col = core.Clamp(m.cursor.Col+1, 0, grid-1)
	case core.ActionReveal:
		c.TapTile(m.cursor)
	case core.ActionBet:
		c.PressBet()
	case core.ActionCashout:
		c.Cashout()
	case core.ActionRandom:
		c.RandomPick()
	case core.ActionToggleMode:
		if m.controls.Mode == core.ModeAuto {
			c.SetMode(core.ModeManual)
		} else {
			c.SetMode(core.ModeAuto)
		}
	case core.ActionAutoBet:
		c.ToggleAutoBet()
	case core.ActionBetUp:
		c.SetBetValue(m.controls.BetValue + betStep)
	case core.ActionBetDown:
		c.SetBetValue(m.controls.BetValue - betStep)
	case core.ActionBetsUp:
		c.SetNumberOfBets(m.controls.NumberOfBets + 1)
	case core.ActionBetsDown:
		c.SetNumberOfBets(m.controls.NumberOfBets - 1)
	case core.ActionToggleAnimations:
		c.SetAnimationsEnabled(!m.controls.Animations)
	case core.ActionToggleDemo:
		c.SetDemoMode(!m.controls.Demo)
	case core.ActionHistory:
		if m.opts.Store != nil {
			hm := NewHistoryModel(m.opts.Store, m.width, m.height)
			hm.embedded = true
			m.history = &hm
		}
	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// View renders the board next to the control panel.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.history != nil {
		return m.history.View()
	}

	w, h := m.board.Size()
	m.screen.Resize(w, h)
	m.screen.Clear()
	m.board.Draw(m.screen, 0, 0, m.cursor, m.controls.BoardInteractive)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		RenderScreen(m.screen),
		"  ",
		RenderPanel(m.controls, string(m.cue)),
	)
	return body + "\n" + helpStyle.Render(m.help.View(m.keys))
}

// Run plays one game in the terminal until the user quits.
func Run(opts Options) error {
	m := NewModel(opts)
	if err := m.Start(context.Background()); err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
