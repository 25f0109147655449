package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/beacondash/internal/config"
	"github.com/rshade/beacondash/internal/logging"
	"github.com/rshade/beacondash/internal/tui"
)

// setupLogging configures logging from the config file, environment and CLI
// flags. While the dashboard owns the terminal, logs go to a file or nowhere.
func setupLogging(cmd *cobra.Command, opts *rootOptions) logging.LogPathResult {
	loggingCfg := config.GetLoggingConfig()
	interactive := opts.outputMode(cmd) == tui.OutputInteractive

	if opts.debug {
		loggingCfg.Level = "debug"
		if !interactive {
			loggingCfg.Format = logging.FormatConsole
			loggingCfg.File = ""
		}
	}

	var result logging.LogPathResult
	if interactive {
		result = logging.NewLoggerWithPath(loggingCfg.ForTUI(), true)
	} else {
		if loggingCfg.File != "" {
			if err := config.EnsureLogDir(); err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
			}
		}
		result = logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig(), false)
	}

	if result.UsingFile && opts.debug {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed && !interactive {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)

	logger = logging.ComponentLogger(result.Logger, "cli").
		With().Str(logging.FieldTraceID, traceID).Logger()
	ctx = result.Logger.With().Str(logging.FieldTraceID, traceID).Logger().WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Info().
		Str("command", cmd.Name()).
		Str("output", opts.outputMode(cmd).String()).
		Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
