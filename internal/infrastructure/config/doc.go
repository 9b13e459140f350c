// Package config provides 12-factor configuration management for formfill.
//
// Values are resolved in this order, later sources winning:
//  1. Default()
//  2. an optional TOML file (--config)
//  3. FORMFILL_* environment variables
//  4. command line flags, applied by the CLI
//
// Configuration Sections:
//   - Cache: cache directory, freshness threshold, compression
//   - Extract: policy for unrecognized question types
//   - Generate: seed and randomization policy
//   - Submit: dry run, pacing, retries, confirmation phrase
//   - HTTP: user agent, timeout, retries, client rate limit
//   - Browser: headless Chrome rendering
//   - Server, RateLimit: the `serve` HTTP API
//   - Logging: level and output format
//
// Example Usage:
//
//	cfg, err := config.Load("formfill.toml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Cache.Dir, cfg.Cache.Freshness)
package config
