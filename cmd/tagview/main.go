package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rentscan/tagview/pkg/logging"
	"github.com/rentscan/tagview/pkg/metrics"
)

func main() {
	// A missing .env is the normal case; it only carries local overrides.
	_ = godotenv.Load()

	exitCode := 0
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
	}

	for _, s := range metrics.AllStats() {
		logging.Get().Debug("timing",
			zap.String("op", s.Name),
			zap.Int64("count", s.Count),
			zap.Float64("avg_ms", s.AvgMs),
			zap.Float64("max_ms", s.MaxMs))
	}
	logging.Sync()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
