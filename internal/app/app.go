package app

import (
	"context"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/rook-computer/identicon/internal/buttons"
	"github.com/rook-computer/identicon/internal/display"
	"github.com/rook-computer/identicon/internal/pipeline"
	"github.com/rook-computer/identicon/internal/render"
	"github.com/rook-computer/identicon/internal/state"
	"github.com/rook-computer/identicon/internal/web"
)

type App struct {
	Engine  *pipeline.Engine
	Web     web.Server
	Display display.Display
	Buttons buttons.Buttons
	Logger  Logger
	// Spinner steps the rotation while a button is held.
	Spinner *state.Spinner

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(engine *pipeline.Engine, webServer web.Server, disp display.Display, buttonDriver buttons.Buttons) *App {
	return &App{Engine: engine, Web: webServer, Display: disp, Buttons: buttonDriver, Logger: NoopLogger{}, exitCh: make(chan error, 1)}
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// Start renders the first frame, brings up the display, web server and
// buttons, and blocks until ctx is done or Exit is called.
func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	if app.Engine.Logger == nil {
		app.Engine.Logger = app.Logger
	}
	if app.Spinner == nil {
		app.Spinner = state.NewSpinner(app.Engine.Store, func(changed state.Field) {
			if err := app.Engine.Apply(changed); err != nil {
				app.Logger.Errorf("app", "apply spinner step: %v", err)
			}
		})
	}

	if err := app.Engine.Refresh(ctx); err != nil {
		app.Logger.Errorf("app", "initial render: %v", err)
		return err
	}
	if f, ok := app.Engine.Current(); ok {
		app.Logger.Infof("app", "pattern for %q:\n%s", f.Config.InputString, f.Pattern)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if app.Display != nil {
		if err := app.Display.Start(loopCtx); err != nil {
			app.Logger.Errorf("app", "display start error, running headless: %v", err)
		} else {
			defer app.Display.Stop()
			unsubscribe := app.Engine.Subscribe(app.Display.Show)
			defer unsubscribe()
			if f, ok := app.Engine.Current(); ok {
				app.Display.Show(f)
			}
		}
	}

	if app.Web != nil {
		if err := app.Web.Start(loopCtx); err != nil {
			app.Logger.Errorf("app", "web start error: %v", err)
			return err
		}
		defer app.Web.Stop()
	}

	var wg sync.WaitGroup
	if app.Buttons != nil {
		if err := app.Buttons.Start(loopCtx); err != nil {
			app.Logger.Errorf("app", "buttons unavailable: %v", err)
		} else {
			defer app.Buttons.Stop()
			wg.Add(1)
			go func() {
				defer wg.Done()
				app.handleButtons(loopCtx, app.Buttons.Events())
			}()
		}
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-app.exitCh:
	}
	cancel()
	wg.Wait()
	app.Spinner.Stop()
	return err
}

func (app *App) handleButtons(ctx context.Context, events <-chan buttons.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			app.HandleButton(ctx, ev)
		}
	}
}

// HandleButton applies one button event.
func (app *App) HandleButton(ctx context.Context, ev buttons.Event) {
	switch ev {
	case buttons.Increase:
		app.Spinner.Start(ctx, state.NumRotateHash, state.Up)
	case buttons.Decrease:
		app.Spinner.Start(ctx, state.NumRotateHash, state.Down)
	case buttons.Release:
		app.Spinner.Stop()
	case buttons.NextColor:
		cfg := app.Engine.Config()
		next := nextColor(render.FillPalette, cfg.FillColor)
		if err := app.Engine.SetColors(next.Color, cfg.BackgroundColor); err != nil {
			app.Logger.Errorf("app", "set colors: %v", err)
			return
		}
		app.Logger.Infof("app", "fill color %s", next.Name)
	case buttons.Exit:
		app.Logger.Infof("app", "exit requested")
		app.Exit(nil)
	default:
		app.Logger.Errorf("app", "unknown button event %q", ev)
	}
}

// nextColor returns the palette entry after c, or the first entry when c is
// not in the palette.
func nextColor(p render.Palette, c color.RGBA) render.NamedColor {
	for i, nc := range p {
		if nc.Color == c {
			return p[(i+1)%len(p)]
		}
	}
	return p[0]
}

// Stop requests a clean shutdown of a running Start.
func (app *App) Stop() error {
	app.Exit(nil)
	return nil
}
