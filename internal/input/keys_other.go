//go:build !windows

package input

// KeyScroller is only available on windows
type KeyScroller struct{}

// NewKeyScroller always fails off windows
func NewKeyScroller(name string) (*KeyScroller, error) {
	return nil, ErrUnsupported
}

// ScrollStep implements Scroller
func (k *KeyScroller) ScrollStep() error {
	return ErrUnsupported
}
