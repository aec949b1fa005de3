package utils

import (
	"fmt"
	"strings"
)

// fileSizeUnits are the lower-case unit suffixes used in raw tree listings.
var fileSizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a byte length as a compact lower-case unit string
// for file entries in the raw tree output. Negative lengths clamp to zero.
func FormatFileSize(sizeBytes int64) string {
	if sizeBytes < 0 {
		return "0b"
	}
	scaledValue := float64(sizeBytes)
	unitIndex := 0
	for scaledValue >= 1024 && unitIndex < len(fileSizeUnits)-1 {
		scaledValue /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%db", sizeBytes)
	}
	if scaledValue < 10 {
		formatted := strings.TrimSuffix(fmt.Sprintf("%.1f", scaledValue), ".0")
		return formatted + fileSizeUnits[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", scaledValue, fileSizeUnits[unitIndex])
}
