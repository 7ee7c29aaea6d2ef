// Package config loads and validates the configuration of the parley server.
//
// Configuration is read from a YAML file, completed with defaults, optionally
// overridden by PARLEY_* environment variables, and validated as a whole:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("parley.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment variables follow the PARLEY_SECTION_FIELD convention, for
// example PARLEY_SERVER_TRANSPORT or PARLEY_TELEMETRY_LOGGING_LEVEL.
//
// A process-wide instance is available through Initialize and GetConfig.
package config
