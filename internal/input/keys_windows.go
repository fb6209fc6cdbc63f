//go:build windows

package input

import (
	"fmt"
	"strings"

	"github.com/dacapoday/sendinput"
)

// KeyScroller presses a navigation key in the foreground window
type KeyScroller struct {
	key sendinput.KeyCode
}

// NewKeyScroller resolves a key name such as "down", "ArrowDown" or "PageDown"
func NewKeyScroller(name string) (*KeyScroller, error) {
	keyName := normalizeKeyName(name)
	code := sendinput.Key(keyName)
	if code == 0 && len(keyName) == 1 {
		code = sendinput.KeyCode(keyName[0])
	}
	if code == 0 {
		return nil, fmt.Errorf("unknown scroll key: %q", name)
	}
	return &KeyScroller{key: code}, nil
}

// ScrollStep presses and releases the key once
func (k *KeyScroller) ScrollStep() error {
	if err := sendinput.SendKeyboardInput(k.key, true); err != nil {
		return fmt.Errorf("key down: %w", err)
	}
	if err := sendinput.SendKeyboardInput(k.key, false); err != nil {
		return fmt.Errorf("key up: %w", err)
	}
	return nil
}

// normalizeKeyName maps config spellings onto sendinput key names
func normalizeKeyName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "DOWN", "ARROWDOWN":
		return "ARROWDOWN"
	case "PGDN", "PAGE_DOWN", "PAGEDOWN":
		return "PAGEDOWN"
	}
	return name
}
