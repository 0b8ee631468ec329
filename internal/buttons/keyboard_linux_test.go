//go:build linux

package buttons

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTVSize = 16

func record(typ, code uint16, value int32) []byte {
	rec := make([]byte, testTVSize+8)
	binary.LittleEndian.PutUint16(rec[testTVSize:], typ)
	binary.LittleEndian.PutUint16(rec[testTVSize+2:], code)
	binary.LittleEndian.PutUint32(rec[testTVSize+4:], uint32(value))
	return rec
}

func TestDecodeEvents(t *testing.T) {
	var buf []byte
	buf = append(buf, record(evKey, keyUp, keyPressed)...)
	buf = append(buf, record(evKey, keyUp, 2)...) // kernel auto-repeat
	buf = append(buf, record(0x00, 0, 0)...)      // EV_SYN
	buf = append(buf, record(evKey, keyUp, keyReleased)...)
	buf = append(buf, record(evKey, keyDown, keyPressed)...)
	buf = append(buf, record(evKey, keyRight, keyPressed)...)
	buf = append(buf, record(evKey, keyRight, keyReleased)...)
	buf = append(buf, record(evKey, keyF4, keyPressed)...)
	buf = append(buf, 1, 2, 3) // trailing partial record

	got := decodeEvents(buf, testTVSize)
	assert.Equal(t, []Event{Increase, Release, Decrease, NextColor, Exit}, got)
	assert.Empty(t, decodeEvents(nil, testTVSize))
}

func TestKeyboardWithoutDevices(t *testing.T) {
	k := NewKeyboardButtons()
	k.Glob = filepath.Join(t.TempDir(), "event*")
	require.Error(t, k.Start(context.Background()))
	require.NoError(t, k.Stop())
	_, open := <-k.Events()
	assert.False(t, open)
}
