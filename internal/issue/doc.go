// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for glops: ActionableError carries
// the failed operation, the resource involved and suggested fixes, and the
// issue catalog holds longer Markdown guidance rendered with glamour.
package issue
