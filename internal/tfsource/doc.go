// SPDX-License-Identifier: MPL-2.0

// Package tfsource scans Terraform files for module sources that point at
// packaged archives (for example `source = "https://host/vpc-v1.4.0.zip"`)
// and optionally derives the module version from the archive name.
//
// Each input path is scanned by its own worker through internal/fanout.
package tfsource
