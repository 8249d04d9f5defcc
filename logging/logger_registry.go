package logging

import (
	"regexp"
	"sync"

	"github.com/pkg/errors"
)

var globalLoggerRegistry = newRegistry()

// Registry tracks named loggers so their levels can be changed by pattern after creation.
type Registry struct {
	mu        sync.RWMutex
	loggers   map[string]Logger
	logConfig []LoggerPatternConfig
}

func newRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]Logger),
	}
}

// register stores the logger under `name`, replacing any previous logger with that name, and
// applies the most recent pattern configuration to it.
func (lr *Registry) register(name string, logger Logger) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.loggers[name] = logger
	if err := lr.applyConfigInLock(name, logger); err != nil {
		logger.Warnw("failed to apply log pattern config", "logger", name, "error", err)
	}
}

func (lr *Registry) loggerNamed(name string) (logger Logger, ok bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok = lr.loggers[name]
	return
}

func (lr *Registry) applyConfigInLock(name string, logger Logger) error {
	// Later patterns take precedence over earlier ones.
	for _, lpc := range lr.logConfig {
		r, err := regexp.Compile(buildRegexFromPattern(lpc.Pattern))
		if err != nil {
			return err
		}
		if !r.MatchString(name) {
			continue
		}
		level, err := LevelFromString(lpc.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	return nil
}

// Update replaces the pattern configuration and re-levels every registered logger. Loggers that no
// pattern matches are reset to INFO. Invalid patterns are skipped with a warning on `errorLogger`.
func (lr *Registry) Update(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	valid := make([]LoggerPatternConfig, 0, len(logConfig))
	for _, lpc := range logConfig {
		if !validatePattern(lpc.Pattern) {
			errorLogger.Warnw("failed to validate a pattern", "pattern", lpc.Pattern)
			continue
		}
		if _, err := LevelFromString(lpc.Level); err != nil {
			return errors.Wrapf(err, "pattern %q", lpc.Pattern)
		}
		valid = append(valid, lpc)
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.logConfig = valid
	for name, logger := range lr.loggers {
		logger.SetLevel(INFO)
		if err := lr.applyConfigInLock(name, logger); err != nil {
			return err
		}
	}
	return nil
}

// UpdateLoggerLevels applies pattern based level configuration to every registered logger,
// including loggers created afterwards.
func UpdateLoggerLevels(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	return globalLoggerRegistry.Update(logConfig, errorLogger)
}
