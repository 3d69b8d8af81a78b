// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchgate/internal/config"
)

// newLogger creates the launcher logger writing to w.
func newLogger(w io.Writer, cfg config.LogConfig) *log.Logger {
	level, err := log.ParseLevel(cfg.Level.String())
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case config.LogFormatJSON:
		formatter = log.JSONFormatter
	case config.LogFormatLogfmt:
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          "launchgate",
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
}

// warnConfig logs the non-fatal problems found while loading cfg.
func warnConfig(logger *log.Logger, cfg *config.Config) {
	for _, w := range cfg.Warnings {
		logger.Warn("using default for invalid setting", "err", w)
	}
}
