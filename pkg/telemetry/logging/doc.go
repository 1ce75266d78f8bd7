// Package logging provides structured logging on top of log/slog.
//
// Loggers are built from config.LoggingConfig and write JSON or text to
// stderr by default. Values that look like credentials (tokens in Git URLs,
// bearer headers, anything under a "token" or "password" key) are masked
// before they reach the handler.
//
//	logger, err := logging.New(cfg.Telemetry.Logging, nil)
//	ctx := logging.WithSource(ctx, "deploy/app.yaml")
//	logger.InfoContext(ctx, "descriptor validated", "errors", 0)
package logging
