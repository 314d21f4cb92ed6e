// Package log builds the slog loggers used by brandsnap.
//
// Every logger is wrapped in a SecureHandler that masks credentials before
// they reach the output: site cookies, custom headers from the config file,
// bearer tokens and similar values. Terminal output is colored with tint;
// --log-json switches to JSON lines.
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("loading page", "url", u, "cookie", site.Cookie) // cookie=***REDACTED***
package log
