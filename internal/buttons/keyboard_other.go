//go:build !linux

package buttons

import (
	"context"
	"errors"
)

// KeyboardButtons needs Linux evdev; elsewhere Start fails and no events
// are ever delivered.
type KeyboardButtons struct {
	Logger logger
	ch     chan Event
}

func NewKeyboardButtons() *KeyboardButtons { return &KeyboardButtons{ch: make(chan Event)} }

func (k *KeyboardButtons) Start(ctx context.Context) error {
	return errors.New("evdev keyboard input requires linux")
}

func (k *KeyboardButtons) Stop() error          { return nil }
func (k *KeyboardButtons) Events() <-chan Event { return k.ch }
