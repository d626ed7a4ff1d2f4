//go:build windows

package browser

import "os/exec"

// Opener launches the default viewer for a file via the shell's start verb.
type Opener struct{}

// Open is best-effort: the viewer's outcome never affects the pipeline.
func (Opener) Open(path string) {
	_ = exec.Command("cmd", "/c", "start", "", path).Start()
}
