//go:build windows

package hotkey

import (
	"context"
	"fmt"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

func watch(ctx context.Context, stop func()) error {
	eventChan := make(chan types.KeyboardEvent, 100)
	if err := keyboard.Install(nil, eventChan); err != nil {
		return fmt.Errorf("failed to install keyboard hook: %w", err)
	}

	go func() {
		defer keyboard.Uninstall()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				if event.Message == types.WM_KEYDOWN && event.VKCode == types.VK_ESCAPE {
					stop()
					return
				}
			}
		}
	}()

	return nil
}
