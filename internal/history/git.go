package history

import (
	"os/exec"
	"strings"
	"time"
)

// ModelCommit reports the commit the model repository is checked out at,
// so a trend snapshot can be correlated with the model change that caused
// it. Outside a git checkout both values are zero.
func ModelCommit(repoRoot string) (string, time.Time) {
	out, err := exec.Command("git", "-C", repoRoot, "log", "-1", "--format=%H %cI").Output()
	if err != nil {
		return "", time.Time{}
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) != 2 {
		return "", time.Time{}
	}

	hash := fields[0]
	if len(hash) > 12 {
		hash = hash[:12]
	}
	committed, err := time.Parse(time.RFC3339, fields[1])
	if err != nil {
		return hash, time.Time{}
	}
	return hash, committed.UTC()
}
