package main

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/blacktop/go-termgfx"
	"github.com/blacktop/go-termgfx/internal/config"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const frameInterval = 33 * time.Millisecond

var (
	verbose     bool
	backendName string
	configPath  string
)

var (
	accentColor = lipgloss.Color("#46C8E6")
	textColor   = lipgloss.Color("#FAFAFA")
	mutedColor  = lipgloss.Color("#626262")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			Background(lipgloss.Color("#1F3A4D")).
			PaddingLeft(2).
			PaddingRight(2)

	infoStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)

type keyMap struct {
	Play         key.Binding
	Placeholders key.Binding
	Clear        key.Binding
	Quit         key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Placeholders, k.Clear, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Play: key.NewBinding(
		key.WithKeys(" ", "a"),
		key.WithHelp("space", "play/pause"),
	),
	Placeholders: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "toggle placeholders"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear images"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// model owns the terminal output; bubbletea only delivers input and timing.
type model struct {
	r            *termgfx.Renderer
	help         help.Model
	pixels       []byte
	elapsed      float64
	playing      bool
	placeholders bool
	frames       int
	err          error
}

func newModel(r *termgfx.Renderer) *model {
	return &model{
		r:            r,
		help:         help.New(),
		playing:      true,
		placeholders: r.Images().UnicodePlaceholders(),
	}
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Placeholders):
			m.placeholders = !m.placeholders
			m.r.SetUnicodePlaceholders(m.placeholders)
			m.clearImages()
		case key.Matches(msg, keys.Play):
			m.playing = !m.playing
		case key.Matches(msg, keys.Clear):
			m.clearImages()
		}
	case tea.WindowSizeMsg:
		m.r.SetGeometry(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.r.RefreshPaneInfo()
		m.clearImages()
	case tea.FocusMsg:
		// the pane may have moved while another pane had focus
		m.r.RefreshPaneInfo()
		m.clearImages()
	case tickMsg:
		if m.playing {
			m.elapsed += frameInterval.Seconds()
		}
		if err := m.draw(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

// View is unused: the program runs without the bubbletea renderer.
func (m *model) View() string { return "" }

func (m *model) clearImages() {
	if err := m.r.ClearImages(); err != nil {
		log.WithError(err).Debug("failed to clear images")
	}
}

// waveformCells sizes the waveform to the terminal, leaving room for the
// header and status bar.
func waveformCells(cols, rows int) (width, height int) {
	return max(min(cols-4, 80), 10), max(min(rows-6, 15), 3)
}

func (m *model) draw() error {
	r := m.r
	geo := r.Context().Geometry

	if err := r.BeginFrameWithOptions(false); err != nil {
		return err
	}
	if err := r.Clear(); err != nil {
		return err
	}

	if err := r.MoveCursor(2, 1); err != nil {
		return err
	}
	if err := r.WriteText(titleStyle.Render("termgfx waveform")); err != nil {
		return err
	}
	if err := r.MoveCursor(2, 3); err != nil {
		return err
	}
	info := infoStyle.Render("backend ") + valueStyle.Render(r.GraphicsBackend().Name())
	if r.InMultiplexer() {
		mode := "passthrough"
		if m.placeholders {
			mode = "placeholders"
		}
		info += infoStyle.Render("  tmux ") + valueStyle.Render(mode)
	}
	info += infoStyle.Render(fmt.Sprintf("  frame %d", m.frames))
	if err := r.WriteText(info); err != nil {
		return err
	}

	wc, hc := waveformCells(geo.Cols, geo.Rows)
	pw, ph := wc*geo.CharWidth, hc*geo.CharHeight
	m.pixels = renderWaveform(m.pixels, pw, ph, m.elapsed)
	p := termgfx.Placement{Col: 2, Row: 5, WidthCells: wc, HeightCells: hc}
	if err := r.RenderImage(m.pixels, pw, ph, p); err != nil {
		return err
	}

	if err := r.MoveCursor(2, min(5+hc+1, max(geo.Rows-1, 0))); err != nil {
		return err
	}
	if err := r.WriteText(m.help.View(keys)); err != nil {
		return err
	}

	m.frames++
	return r.EndFrame()
}

var rootCmd = &cobra.Command{
	Use:           "gfxdemo",
	Short:         "Animate a waveform with the detected terminal graphics backend",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendName != "" {
			cfg.SetBackend(backendName)
		}
		opts, err := cfg.RendererOptions()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		r, err := termgfx.NewStdoutRenderer(opts)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		if err := r.EnterAltScreen(); err != nil {
			return err
		}

		m := newModel(r)
		_, runErr := tea.NewProgram(m, tea.WithoutRenderer(), tea.WithReportFocus()).Run()

		m.clearImages()
		if err := r.Close(); err != nil {
			log.WithError(err).Warn("failed to restore terminal")
		}
		if runErr != nil {
			return runErr
		}
		return m.err
	},
}

func init() {
	log.SetHandler(clihander.Default)
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose logging")
	rootCmd.Flags().StringVarP(&backendName, "backend", "b", "", "Graphics backend (auto, kitty, sixel, blocks, framebuffer)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file (TOML)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("gfxdemo failed")
		os.Exit(1)
	}
}
