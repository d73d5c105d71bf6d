package idle

import (
	"fmt"
	"os/exec"
	"time"
)

func idleTime() (time.Duration, error) {
	out, err := exec.Command("ioreg", "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg failed: %w", err)
	}
	return parseHIDIdleTime(out)
}
