// SPDX-License-Identifier: MPL-2.0

// Package mergerequest opens merge requests across several projects, checks
// whether two branches differ, and lists merge requests together with their
// diff versions to spot empty ones.
package mergerequest
