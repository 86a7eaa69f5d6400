// Package dashboard renders a live terminal UI for a benchmark run.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/benchforge/internal/progress"
)

// RunConfig holds run parameters for display.
type RunConfig struct {
	Name       string        // Run name
	Workers    int           // Max concurrent suites (0 = serial)
	Iterations int           // Default iterations per task
	Timeout    time.Duration // Per-task timeout (0 = none)
	Rate       float64       // Iterations per second (0 = unlimited)
	ConfigFile string        // Path to config file if used
}

// Source feeds the dashboard with live run state. *scheduler.Scheduler
// satisfies it.
type Source interface {
	Aggregator() *progress.Aggregator
	Counts() (running, completed, total int)
}

// Dashboard renders a live terminal UI for suite progress.
type Dashboard struct {
	source       Source
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid         *ui.Grid
	overallGauge *widgets.Gauge
	suiteList    *widgets.List
	summaryPara  *widgets.Paragraph
	statusPara   *widgets.Paragraph
	startTime    time.Time
	runConfig    RunConfig
}

// New creates a new Dashboard.
func New(source Source, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		source:       source,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		startTime:    time.Now(),
		runConfig:    cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	d.overallGauge = widgets.NewGauge()
	d.overallGauge.Title = "Overall Progress"
	d.overallGauge.Percent = 0
	d.overallGauge.BarColor = ui.ColorBlue
	d.overallGauge.BorderStyle.Fg = ui.ColorCyan
	d.overallGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.suiteList = widgets.NewList()
	d.suiteList.Title = "Suites"
	d.suiteList.Rows = []string{"Awaiting data"}
	d.suiteList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.suiteList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.statusPara = widgets.NewParagraph()
	d.statusPara.Title = "Status"
	d.statusPara.Text = "Waiting for data..."
	d.statusPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.2,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.2,
			ui.NewCol(0.6, d.overallGauge),
			ui.NewCol(0.4, d.statusPara),
		),
		ui.NewRow(0.6,
			ui.NewCol(1.0, d.suiteList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			// Check if context is done to avoid blocking
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the source.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	agg := d.source.Aggregator().Aggregate()
	running, completed, total := d.source.Counts()

	pct := int(agg.Percentage)
	if pct > 100 {
		pct = 100
	}
	d.overallGauge.Percent = pct
	d.overallGauge.Label = fmt.Sprintf("%d / %d iterations", agg.Current, agg.Total)

	d.summaryPara.Text = fmt.Sprintf(
		"Run: %s\n%s\nElapsed: %s",
		d.runConfig.Name,
		d.formatRunParams(),
		elapsed.Round(time.Second),
	)

	d.statusPara.Text = fmt.Sprintf(
		"Running:    %d\nCompleted:  %d / %d\nLast suite: %s\nLast task:  %s\nPhase:      %s",
		running,
		completed,
		total,
		orDash(agg.Suite),
		orDash(agg.Task),
		orDash(string(agg.Phase)),
	)

	d.suiteList.Rows = formatSuiteRows(d.source.Aggregator().Snapshots())
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func formatSuiteRows(snaps []progress.Snapshot) []string {
	if len(snaps) == 0 {
		return []string{"[No suites running](fg:green)"}
	}
	formatted := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		formatted = append(formatted, fmt.Sprintf("[%s](fg:%s) | %s | %5.1f%% | %d/%d | %s",
			snap.Suite,
			phaseColor(snap.Phase),
			snap.Phase,
			snap.Percentage,
			snap.Current,
			snap.Total,
			orDash(snap.Task),
		))
	}
	return formatted
}

func phaseColor(phase progress.Phase) string {
	switch phase {
	case progress.PhaseWarmup:
		return "yellow"
	case progress.PhaseComplete:
		return "green"
	default:
		return "cyan"
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// formatRunParams formats the run configuration parameters for display.
func (d *Dashboard) formatRunParams() string {
	var parts []string

	if d.runConfig.Workers > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", d.runConfig.Workers))
	} else {
		parts = append(parts, "Serial")
	}

	if d.runConfig.Iterations > 0 {
		parts = append(parts, fmt.Sprintf("Iterations: %d", d.runConfig.Iterations))
	}

	if d.runConfig.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %.0f/s", d.runConfig.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}

	if d.runConfig.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", d.runConfig.Timeout))
	}

	if d.runConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.runConfig.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
