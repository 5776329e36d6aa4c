package taskgraph

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logMu guards logger so concurrent SetLogger/logger reads never race; the
// logger itself is reassigned rarely (typically once, at process start).
var (
	logMu  sync.RWMutex
	logger = log.Logger
)

// SetLogger installs l as the ambient logger used for this package's
// runtime diagnostics (wedged-graph warnings, cleanup-worker removal
// warnings). The overlap and dag packages log through zerolog's global
// logger instead, so redirect that one too if capturing everything.
func SetLogger(l zerolog.Logger) {
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

func currentLogger() zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}
