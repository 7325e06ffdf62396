// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clipboard copies report text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard utility is present.
var ErrUnavailable = errors.New("clipboard unavailable")

// Writer receives copied text.
type Writer interface {
	WriteAll(text string) error
}

// System writes to the OS clipboard.
type System struct{}

// WriteAll copies text verbatim.
func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Copy writes text to w, or to the system clipboard when w is nil.
func Copy(w Writer, text string) error {
	if w == nil {
		w = System{}
	}
	return w.WriteAll(text)
}
