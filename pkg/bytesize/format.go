// Package bytesize renders byte counts for display.
package bytesize

import "fmt"

var units = []string{"B", "KB", "MB", "GB", "TB"}

// Format renders n as a human-readable size using 1024-based units, e.g.
// Format(1536) == "1.5 KB". Values under a kilobyte are printed as plain
// bytes.
func Format(n int64) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}

	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}
