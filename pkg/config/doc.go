// Package config provides configuration management for kae.
//
// Configuration is read from a YAML file, filled with defaults, overridden
// from the environment and validated as a whole.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("kae.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("kae.yaml")
//
//  3. From defaults and the environment only:
//     cfg, err := config.LoadConfigWithEnvOverrides("")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention KAE_SECTION_FIELD:
//
//   - KAE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - KAE_VALIDATION_STRICT_FIELDS overrides validation.strict_fields
//   - KAE_HISTORY_DRIVER overrides history.driver
//   - KAE_GIT_AUTH_TOKEN overrides git.auth.token
//
// Values that fail to parse are ignored.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation errors carry the dotted field path:
//
//	configuration validation failed with 2 errors:
//	  - history.driver: invalid driver "postgres": must be 'sqlite', 'sqlite3', or 'memory'
//	  - git.auth.token: token is required for token authentication
//
// # Example Configuration
//
//	validation:
//	  strict_fields: true
//	  app_types: [web, worker, job, cron]
//	  metric_targets:
//	    cpu: [averageUtilization]
//	    memory: [averageValue]
//
//	history:
//	  enabled: true
//	  driver: sqlite
//	  path: data/history.db
//	  retention:
//	    days: 30
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
