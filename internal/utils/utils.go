package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fμs", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1000000)
	}
	return d.Round(time.Millisecond).String()
}

// FormatCI renders a confidence interval the way the result tables show it.
func FormatCI(lower, upper float64) string {
	return fmt.Sprintf("[%.3f to %.3f]", lower, upper)
}

// Round rounds half away from zero to the given number of decimals.
// NaN and infinities are returned unchanged.
func Round(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return "..."
	}
	return s[:maxLength-3] + "..."
}

func NormalizeLabel(label string) string {
	return strings.TrimSpace(strings.ToLower(label))
}

func CalculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func RemoveDuplicates(slice []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}

// Pairs returns every unordered pair of items as (i, j) with i < j, in
// lexicographic index order.
func Pairs(items []string) [][2]string {
	var out [][2]string
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			out = append(out, [2]string{items[i], items[j]})
		}
	}
	return out
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
