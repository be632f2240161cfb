// Package config provides configuration handling for gitcheckpoint.
//
// Values are merged by a viper-backed Loader with the following precedence:
//
// 1. Command-line flags that were set (highest priority)
// 2. GITCHECKPOINT_* environment variables
// 3. The config file: --config, or .gitcheckpoint.yaml in the repository
// root, then $HOME
// 4. Default values (lowest priority)
//
// Nested keys map to environment variables with "." replaced by "_":
//
//	GITCHECKPOINT_REPO                    Repository path (default: current directory)
//	GITCHECKPOINT_FORMAT                  Result block format: json, yaml, none
//	GITCHECKPOINT_DEBUG                   Enable the debug log file
//	GITCHECKPOINT_LOG_FILE                Debug log path
//	GITCHECKPOINT_NON_INTERACTIVE         Never prompt
//	GITCHECKPOINT_CHANGELOG               Changelog path (default: docs/CHANGELOG_CHECKPOINTS.md)
//	GITCHECKPOINT_ANALYZER_MIN_FILES      Relevant files that make a change significant (default: 3)
//	GITCHECKPOINT_ANALYZER_MIN_LINES      Changed lines that make a change significant (default: 50)
//	GITCHECKPOINT_VALIDATOR_TIMEOUT       Time limit per validation step (default: 10m)
//	GITCHECKPOINT_CHECKPOINT_PUSH         Push checkpoints (default: true)
//	GITCHECKPOINT_CHECKPOINT_REMOTE       Remote to push to (default: origin)
//	GITCHECKPOINT_MONITOR_INTERVAL        Time between monitor cycles (default: 30s)
//	GITCHECKPOINT_MONITOR_METRICS_ADDR    Prometheus listen address
//
// Config.Finalize resolves the repository, changelog and log file paths and
// rejects invalid values with an *errors.ConfigError.
package config
