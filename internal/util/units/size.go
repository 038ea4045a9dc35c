// Package units formats byte counts for display.
package units

import "fmt"

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

// HumanSize formats size as "512 B", "1.50 KB", "3.25 MB" or "1.00 GB".
// Units are powers of 1024.
func HumanSize(size int64) string {
	switch {
	case size < kb:
		return fmt.Sprintf("%d B", size)
	case size < mb:
		return fmt.Sprintf("%.2f KB", float64(size)/kb)
	case size < gb:
		return fmt.Sprintf("%.2f MB", float64(size)/mb)
	default:
		return fmt.Sprintf("%.2f GB", float64(size)/gb)
	}
}
