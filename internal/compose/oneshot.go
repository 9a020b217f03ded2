package compose

import "strings"

// oneshotNamePatterns are substrings that mark a service as run-once when it
// declares no restart policy. Matching is case-insensitive. This is a
// heuristic: a long-running service whose name happens to contain one of the
// patterns (say "setup-proxy") will be misclassified.
var oneshotNamePatterns = []string{
	"init", "setup", "migration", "migrate", "seed", "bootstrap",
	"minio-init", "db-init", "setup-", "-init", "-setup",
}

// classifyOneshot decides whether a service runs to completion once rather
// than staying up. An explicit restart policy always wins; the name heuristic
// only applies when the policy is absent or unrecognized.
func classifyOneshot(name string, restart string) bool {
	switch restart {
	case "no", "false":
		return true
	case "always", "unless-stopped", "on-failure":
		return false
	}

	lower := strings.ToLower(name)
	for _, pattern := range oneshotNamePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
