package config

import (
	"log/slog"

	"github.com/shirou/gopsutil/v4/mem"
)

// AutoTune fills in zero Concurrency and MaxBuffered from the detected
// host memory. Larger hosts can afford more in-flight fetches and more
// buffered segments; when detection fails we assume a small host.
func (c *Config) AutoTune() {
	if c.Concurrency > 0 && c.MaxBuffered > 0 {
		return
	}

	total := detectMemory()
	concurrency, maxBuffered := tierFor(total)

	if c.Concurrency == 0 {
		c.Concurrency = concurrency
	}
	if c.MaxBuffered == 0 {
		c.MaxBuffered = maxBuffered
	}

	slog.Debug("auto-tuned transfer caps",
		"host_memory", total,
		"concurrency", c.Concurrency,
		"max_buffered", c.MaxBuffered,
	)
}

// detectMemory returns total host memory in bytes, or 0 if unknown.
func detectMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return 0
	}
	return vm.Total
}

// tierFor maps total host memory to (concurrency, max buffered segments).
func tierFor(total uint64) (int, int) {
	const gib = uint64(1) << 30
	switch {
	case total == 0:
		return 3, 6
	case total <= 128*gib:
		return 7, 16
	case total <= 384*gib:
		return 15, 32
	default:
		return 36, 72
	}
}
