//go:build linux

package buttons

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	evKey = 0x01

	// Linux input-event-codes.h
	keyF4    = 62
	keyUp    = 103
	keyRight = 106
	keyDown  = 108

	keyReleased = 0
	keyPressed  = 1
)

// KeyboardButtons reads key presses from every evdev device under
// /dev/input/event*: Up/Down press and release, Right for the next color,
// F4 to exit. Kernel auto-repeat is ignored.
type KeyboardButtons struct {
	Glob   string
	Logger logger

	ch     chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewKeyboardButtons() *KeyboardButtons {
	return &KeyboardButtons{Glob: "/dev/input/event*", ch: make(chan Event, 8)}
}

func (k *KeyboardButtons) Events() <-chan Event { return k.ch }

func (k *KeyboardButtons) Start(ctx context.Context) error {
	paths, err := filepath.Glob(k.Glob)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no evdev devices found")
	}
	ctx, k.cancel = context.WithCancel(ctx)

	tvSize := binary.Size(unix.Timeval{})
	for _, path := range paths {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			if k.Logger != nil {
				k.Logger.Errorf("input", "open %s: %v", path, err)
			}
			continue
		}
		k.wg.Add(1)
		go func(p string, fd int) {
			defer k.wg.Done()
			k.read(ctx, p, fd, tvSize)
		}(path, fd)
	}
	return nil
}

func (k *KeyboardButtons) Stop() error {
	if k.cancel != nil {
		k.cancel()
	}
	k.wg.Wait()
	k.once.Do(func() { close(k.ch) })
	return nil
}

func (k *KeyboardButtons) read(ctx context.Context, path string, fd int, tvSize int) {
	f := os.NewFile(uintptr(fd), path)
	defer func() {
		_ = f.Close()
	}()

	eventSize := tvSize + 2 + 2 + 4
	buf := make([]byte, 64*eventSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			// Device might have gone away.
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		for _, ev := range decodeEvents(buf[:n], tvSize) {
			select {
			case k.ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// decodeEvents parses a run of input_event records (timeval, u16 type,
// u16 code, s32 value) and maps the keys we care about.
func decodeEvents(buf []byte, tvSize int) []Event {
	eventSize := tvSize + 2 + 2 + 4
	var out []Event
	for off := 0; off+eventSize <= len(buf); off += eventSize {
		rec := buf[off : off+eventSize]
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ != evKey {
			continue
		}
		if ev, ok := keyEvent(code, value); ok {
			out = append(out, ev)
		}
	}
	return out
}

func keyEvent(code uint16, value int32) (Event, bool) {
	switch value {
	case keyPressed:
		switch code {
		case keyUp:
			return Increase, true
		case keyDown:
			return Decrease, true
		case keyRight:
			return NextColor, true
		case keyF4:
			return Exit, true
		}
	case keyReleased:
		if code == keyUp || code == keyDown {
			return Release, true
		}
	}
	return "", false
}
