package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ParseMemory normalises a memory specification into bytes. It accepts nil
// (no constraint), any integer type (bytes), or a human-readable string such
// as "512M", "16G" or "1GiB". The empty string and the words "unlimited" and
// "unbounded" also mean no constraint.
func ParseMemory(value interface{}) (int64, error) {
	switch actual := value.(type) {
	case nil:
		return MemoryUnlimited, nil
	case int:
		return normalizeMemory(int64(actual))
	case int32:
		return normalizeMemory(int64(actual))
	case int64:
		return normalizeMemory(actual)
	case uint64:
		return int64(actual), nil
	case float64:
		return normalizeMemory(int64(actual))
	case string:
		text := strings.TrimSpace(strings.ToLower(actual))
		switch text {
		case "", "unlimited", "unbounded", "none":
			return MemoryUnlimited, nil
		}
		bytes, err := humanize.ParseBytes(actual)
		if err != nil {
			return 0, fmt.Errorf("invalid memory spec %q: %w", actual, err)
		}
		return int64(bytes), nil
	}
	return 0, fmt.Errorf("unsupported memory spec type %T", value)
}

func normalizeMemory(bytes int64) (int64, error) {
	if bytes < MemoryUnlimited {
		return 0, fmt.Errorf("memory spec must be >= 0 or unlimited, got %d", bytes)
	}
	return bytes, nil
}

// ParseCPU normalises a CPU specification into a core count. It accepts nil
// (defaults to one core), any integer type or a numeric string.
func ParseCPU(value interface{}) (int, error) {
	switch actual := value.(type) {
	case nil:
		return 1, nil
	case int:
		return normalizeCPU(actual)
	case int32:
		return normalizeCPU(int(actual))
	case int64:
		return normalizeCPU(int(actual))
	case float64:
		return normalizeCPU(int(actual))
	case string:
		text := strings.TrimSpace(actual)
		if text == "" {
			return 1, nil
		}
		cores, err := strconv.Atoi(text)
		if err != nil {
			return 0, fmt.Errorf("invalid cpu spec %q: %w", actual, err)
		}
		return normalizeCPU(cores)
	}
	return 0, fmt.Errorf("unsupported cpu spec type %T", value)
}

func normalizeCPU(cores int) (int, error) {
	if cores < 1 {
		return 0, fmt.Errorf("cpu spec must be >= 1, got %d", cores)
	}
	return cores, nil
}

// FormatMemory renders a byte count for logs and summaries.
func FormatMemory(bytes int64) string {
	if bytes < 0 {
		return "unlimited"
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatDuration renders a duration with sub-second noise trimmed away.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

// RecommendMemory converts a measured peak into a suggested reservation by
// adding 20% head-room, with a floor for very light jobs whose peak rounds
// to nothing.
func RecommendMemory(peak int64) int64 {
	const floor = 50 << 20
	recommended := peak + peak/5
	if recommended < floor {
		return floor
	}
	return recommended
}
