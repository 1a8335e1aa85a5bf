package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// command builds the process used to hand a link to the desktop; swapped out in tests.
var command = exec.Command

// OpenBrowser asks the operating system to open url with its registered handler.
//
// Works for web pages and for app deep links such as "spotify:track:{id}" when the app
// has registered the scheme. Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = command("xdg-open", url)
	case "windows":
		cmd = command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}

	// Reap the child so it doesn't linger as a zombie.
	go cmd.Wait()

	return nil
}

// BrowserOpener opens links through [OpenBrowser].
type BrowserOpener struct{}

// Open implements player.LinkOpener.
func (BrowserOpener) Open(url string) error {
	return OpenBrowser(url)
}
