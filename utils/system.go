package utils

import (
	"log"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
)

// GetOptimalWorkerCount turns the scraper.workers setting into a cap on
// concurrent detail fetches. A positive number is used as is, "0" disables
// the cap, and "auto" (or anything unparsable) sizes it from the CPU count.
func GetOptimalWorkerCount(configValue string) int {
	configValue = strings.TrimSpace(configValue)

	// 1. Check for manual override
	if manualWorkers, err := strconv.Atoi(configValue); err == nil && manualWorkers >= 0 {
		if manualWorkers == 0 {
			log.Println("Concurrency cap disabled, every detail page is fetched at once.")
		} else {
			log.Printf("Using manually configured number of workers: %d", manualWorkers)
		}
		return manualWorkers
	}

	// 2. If set to "auto" or invalid, calculate automatically
	if configValue != "auto" && configValue != "" {
		log.Printf("WARN: Invalid workers value '%s'. Defaulting to 'auto' mode.", configValue)
	}

	cpuCores, err := cpu.Counts(true)
	if err != nil {
		log.Printf("WARN: Could not detect CPU cores. Falling back to default: %d workers.", 8)
		return 8
	}

	// Detail fetches are network bound, so allow a few per core.
	optimalCount := cpuCores * 4

	if optimalCount < 4 {
		optimalCount = 4
	}
	if optimalCount > 64 {
		optimalCount = 64
	}

	log.Printf("System has %d logical cores. Automatically setting number of workers to: %d", cpuCores, optimalCount)
	return optimalCount
}
