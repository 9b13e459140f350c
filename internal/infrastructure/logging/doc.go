// Package logging builds the zap logger used across formfill.
//
// Two modes are supported:
//   - Production: JSON lines on stderr, suitable for piping into log tooling
//   - Development: coloured console output with caller information
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Development: true})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//	logger.Info("extracting form", zap.String("url", url))
package logging
