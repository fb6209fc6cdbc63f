// Package hotkey watches for the global stop key while a session runs.
package hotkey

import "context"

// Watch calls stop once when the stop key (Esc) is pressed anywhere on the
// desktop, or never if ctx ends first. It returns after installing the hook;
// the hook is removed when ctx is done.
func Watch(ctx context.Context, stop func()) error {
	return watch(ctx, stop)
}
