// SPDX-License-Identifier: MPL-2.0

// Package config loads glops settings.
//
// Values are layered from lowest to highest precedence: built-in defaults,
// config.cue (from --config, the user config directory or the working
// directory), command-line flags, then environment variables. A dotenv file
// contributes variables that are not already set in the process environment.
//
// config.cue is validated against the embedded config_schema.cue before it is
// merged into Viper.
package config
