package helper_util

import "time"

// ParseTime parses the RFC3339 timestamps the store keeps on nodes.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
