//go:build !windows

package hotkey

import (
	"context"
	"errors"
)

// ErrUnsupported is returned where no global keyboard hook exists
var ErrUnsupported = errors.New("global hotkeys are only available on windows")

func watch(ctx context.Context, stop func()) error {
	return ErrUnsupported
}
