package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system handler (usually the browser) for url.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// OpenMedia starts player with url as its only argument, or falls back to [OpenBrowser] when player is empty.
func OpenMedia(url, player string) error {
	if player == "" {
		return OpenBrowser(url)
	}

	if _, err := exec.LookPath(player); err != nil {
		return fmt.Errorf("%w: player %q not found", ErrInvalidArgument, player)
	}

	if err := exec.Command(player, url).Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	return nil
}
