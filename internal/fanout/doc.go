// SPDX-License-Identifier: MPL-2.0

// Package fanout runs one fetch per parent entity on a bounded pool and folds
// the partial results into a single name-keyed aggregate.
//
// Workers deposit exactly one partial result (or one error) on a buffered
// channel. The coordinator joins every worker before draining the channel once,
// so the aggregate is never read while it is being written.
package fanout
