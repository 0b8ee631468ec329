package display

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	fb "github.com/gonutz/framebuffer"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/identicon/internal/pipeline"
)

const DefaultDevice = "/dev/fb0"

// FBDisplay renders frames to the Linux framebuffer through an offscreen
// logical canvas.
type FBDisplay struct {
	Path     string
	Composer *Composer
	Logger   logger
	// Console switches the active VT to graphics mode while running.
	Console bool

	fbDev   *fb.Device
	running atomic.Bool
	frames  chan pipeline.Frame
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func NewFBDisplay(path string) *FBDisplay {
	if path == "" {
		path = DefaultDevice
	}
	return &FBDisplay{Path: path, Console: true, frames: make(chan pipeline.Frame, 1)}
}

func (d *FBDisplay) Start(ctx context.Context) error {
	dev, err := fb.Open(d.Path)
	if err != nil {
		return err
	}
	d.fbDev = dev
	bounds := dev.Bounds()
	d.infof("framebuffer %s open, bounds=%dx%d", d.Path, bounds.Dx(), bounds.Dy())

	if d.Composer == nil {
		d.Composer = NewComposer(d.Logger)
	}
	if d.frames == nil {
		d.frames = make(chan pipeline.Frame, 1)
	}
	if d.Console {
		_ = SetGraphicsModeWithLog(d.Logger)
		_ = HideCursorWithLog(d.Logger)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop(loopCtx)
	}()
	return nil
}

func (d *FBDisplay) Stop() error {
	if !d.running.CompareAndSwap(true, false) {
		return nil
	}
	d.cancel()
	d.wg.Wait()
	if d.Console {
		_ = ShowCursorWithLog(d.Logger)
		_ = RestoreTextModeWithLog(d.Logger)
	}
	if d.fbDev != nil {
		d.fbDev.Close()
		d.fbDev = nil
	}
	return nil
}

// Show replaces any frame still waiting to be drawn with f.
func (d *FBDisplay) Show(f pipeline.Frame) {
	for {
		select {
		case d.frames <- f:
			return
		default:
		}
		select {
		case <-d.frames:
		default:
		}
	}
}

func (d *FBDisplay) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-d.frames:
			canvas := d.Composer.Compose(f)
			blitToFB(d.fbDev, canvas)
			d.infof("redraw done, seq=%d", f.Seq)
		}
	}
}

// blitToFB scales the canvas to the device with nearest-neighbor sampling.
func blitToFB(dev *fb.Device, canvas *image.RGBA) {
	if dev == nil {
		return
	}
	xdraw.NearestNeighbor.Scale(dev, dev.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)
}

func (d *FBDisplay) infof(format string, args ...interface{}) {
	if d.Logger != nil {
		d.Logger.Infof("fb", format, args...)
	}
}
