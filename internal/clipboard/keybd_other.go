//go:build !windows && !linux

package clipboard

type Keybd struct{}

func NewKeybd() (*Keybd, error) {
	return nil, ErrUnsupported
}

func (k *Keybd) Paste() error {
	return ErrUnsupported
}
