// SPDX-License-Identifier: MPL-2.0

// Package tags collects the most recent tags of every project in a group, or of
// a single project, and truncates each list according to a Truncation policy.
//
// The remote already orders tags newest first; no sorting happens here.
package tags
