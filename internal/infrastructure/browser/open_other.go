//go:build !windows

package browser

// Opener is a no-op outside Windows; the report path is printed instead.
type Opener struct{}

func (Opener) Open(path string) {}
