package testtool

import (
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux

	"smart_cycle_market/pkg/config"
	"smart_cycle_market/pkg/logger"

	"go.uber.org/zap"
)

// StartPprof serves pprof on addr outside production, an empty addr turns it off
func StartPprof(addr string) {
	if config.IsProduction() || addr == "" {
		logger.Log.Info("pprof is disabled", zap.Bool("production", config.IsProduction()))
		return
	}

	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Warn("pprof server failed", zap.Error(err))
		}
	}()
}
