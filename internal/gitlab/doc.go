// SPDX-License-Identifier: MPL-2.0

// Package gitlab implements a small client for the GitLab REST API (v4).
//
// Only the endpoints glops needs are covered:
//   - client.go: Client construction, request plumbing and JSON decoding
//   - errors.go: RemoteError, TransportError and DecodeError
//   - projects.go: group project listing and branch comparison
//   - tags.go: repository tag listing
//   - mergerequests.go: merge request creation, listing and versions
//   - pipelines.go: pipeline creation
//   - users.go, issues.go: user lookup and assigned issue listing
//
// List endpoints return exactly one page of results. Pagination is never
// followed; callers that need more items raise the page size.
package gitlab
