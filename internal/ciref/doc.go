// SPDX-License-Identifier: MPL-2.0

// Package ciref keeps the `ref:` of included CI templates in a .gitlab-ci.yml
// in line with the branch the file lives on.
//
// Only refs that belong to entries of the top-level `include:` key are
// touched. They are located through the line and column information of a
// gopkg.in/yaml.v3 node tree and replaced in place, so comments, ordering and
// formatting of the rest of the file are kept byte for byte.
package ciref
