package engine

import (
	"fmt"
	"path/filepath"
	"regexp"
)

var unsafeFolderChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// getResultFolder returns <root>/<strategy>/<start>_<end>/<run id>. The time
// range level is only present when the config restricts the period.
func getResultFolder(root string, strategyName string, runID string, config BacktestEngineV1Config) string {
	strategyFolder := filepath.Join(root, unsafeFolderChars.ReplaceAllString(strategyName, "_"))

	if !config.StartTime.IsSome() && !config.EndTime.IsSome() {
		return filepath.Join(strategyFolder, runID)
	}

	startTimeStr := "all"
	endTimeStr := "all"

	if config.StartTime.IsSome() {
		startTimeStr = config.StartTime.Unwrap().Format("20060102")
	}

	if config.EndTime.IsSome() {
		endTimeStr = config.EndTime.Unwrap().Format("20060102")
	}

	return filepath.Join(strategyFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr), runID)
}
