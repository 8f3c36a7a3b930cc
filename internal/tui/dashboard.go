// Package tui is the terminal dashboard: race clock, sail data and VMG,
// driven from the keyboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"sailtimer/pkg/logging"
	"sailtimer/pkg/timer"
	"sailtimer/pkg/vmg"
)

const refreshInterval = 200 * time.Millisecond

// Options holds the windward mark placed by the W key.
type Options struct {
	WindwardDistanceNm float64
	WindwardHeading    float64
}

// Dashboard renders the engine and calculator and maps keys onto their operations.
type Dashboard struct {
	app    *tview.Application
	engine *timer.Engine
	calc   *vmg.Calculator
	opts   Options

	root       *tview.Flex
	timerPanel *tview.TextView
	sailPanel  *tview.TextView
	vmgPanel   *tview.TextView
	logView    *tview.TextView
	status     atomic.Value // string

	dirty atomic.Bool
	quit  func()
}

// New builds the widgets. Nothing is drawn until Run.
func New(e *timer.Engine, c *vmg.Calculator, opts Options) *Dashboard {
	d := &Dashboard{
		app:    tview.NewApplication(),
		engine: e,
		calc:   c,
		opts:   opts,
	}
	d.quit = d.app.Stop
	d.status.Store("")

	d.timerPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	d.timerPanel.SetBorder(true).SetTitle(" Race Timer ")

	d.sailPanel = tview.NewTextView().SetDynamicColors(true)
	d.sailPanel.SetBorder(true).SetTitle(" Sail Data ")

	d.vmgPanel = tview.NewTextView().SetDynamicColors(true)
	d.vmgPanel.SetBorder(true).SetTitle(" VMG ")

	// No SetChangedFunc with app.Draw: the refresh loop redraws.
	d.logView = tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(false)
	d.logView.SetBorder(true).SetTitle(" Events ")

	help := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(helpText)

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(d.sailPanel, 0, 1, false).
		AddItem(d.vmgPanel, 0, 1, false)

	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(d.timerPanel, 0, 1, true).
		AddItem(right, 0, 1, false)

	d.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, true).
		AddItem(d.logView, 7, 0, false).
		AddItem(help, 1, 0, false)

	d.app.SetInputCapture(d.handleKey)
	d.refresh()
	return d
}

// Run shows the dashboard and blocks until the user quits or ctx is done.
func (d *Dashboard) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopTimer := d.engine.Listen(func(timer.Snapshot) { d.dirty.Store(true) })
	defer stopTimer()
	stopVMG := d.calc.ListenUpdates(func(vmg.Update) { d.dirty.Store(true) })
	defer stopVMG()

	go d.refreshLoop(ctx)
	go func() {
		<-ctx.Done()
		d.app.Stop()
	}()

	d.app.SetRoot(d.root, true)
	return d.app.Run()
}

func (d *Dashboard) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Event lines and GPS errors arrive without a feed update,
			// so redraw at least once a second.
			if d.dirty.Swap(false) || n%5 == 0 {
				d.app.QueueUpdateDraw(d.refresh)
			}
		}
	}
}

// refresh copies the current state into the widgets. Runs on the UI goroutine.
func (d *Dashboard) refresh() {
	d.timerPanel.SetText(renderTimer(d.engine.Snapshot()))
	d.sailPanel.SetText(renderSail(d.calc.SailData()))

	res, ok := d.calc.Result()
	text := renderVMG(res, ok, d.calc.Marks())
	if s, _ := d.status.Load().(string); s != "" {
		text += "\n\n[yellow]" + s + "[-]"
	}
	d.vmgPanel.SetText(text)

	d.logView.Clear()
	for _, line := range logging.GlobalEventCapture.Lines() {
		fmt.Fprint(d.logView, line)
	}
}

func (d *Dashboard) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		d.quit()
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	switch event.Rune() {
	case ' ':
		d.engine.Toggle()
	case 'r', 'R':
		d.engine.Reset()
	case '+', '=':
		d.engine.AddMinute()
	case '-', '_':
		d.engine.SubtractMinute()
	case 's', 'S':
		d.engine.Sync()
	case 'l', 'L':
		_, err := d.calc.SetLeewardMark()
		d.setStatus(err, "Leeward mark set")
	case 'w', 'W':
		_, err := d.calc.SetWindwardMark(d.opts.WindwardDistanceNm, d.opts.WindwardHeading)
		d.setStatus(err, fmt.Sprintf("Windward mark set %.2f nm at %.0f°", d.opts.WindwardDistanceNm, d.opts.WindwardHeading))
	case 'x', 'X':
		d.calc.ResetMarks()
		d.setStatus(nil, "Marks cleared")
	case 'q', 'Q':
		d.quit()
	default:
		return event
	}
	d.dirty.Store(true)
	return nil
}

func (d *Dashboard) setStatus(err error, ok string) {
	switch {
	case err == nil:
		d.status.Store(ok)
	case errors.Is(err, vmg.ErrNoFix):
		d.status.Store("No GPS fix yet")
	case errors.Is(err, vmg.ErrNoLeewardMark):
		d.status.Store("Set the leeward mark first")
	default:
		d.status.Store(err.Error())
	}
}
