// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the glops command tree.
//
// Every command receives the App composition root. Configuration is loaded
// once per invocation into a session (defaults, config.cue, flags, dotenv,
// environment) and handed to the internal packages that talk to GitLab or
// the local filesystem.
package cmd
