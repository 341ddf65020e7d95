// main is the entry point for the qmetrics CLI.
package main

import (
	"github.com/huangsam/qmetrics/cmd"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/iocache"
)

func main() {
	defer iocache.CloseCaching()
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		iocache.CloseCaching()
		contract.LogFatal("Command failed", err)
	}
}
