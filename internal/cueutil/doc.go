// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema and turns
// CUE evaluation errors into path-prefixed messages.
//
//	//go:embed config_schema.cue
//	var schema string
//
//	doc, err := cueutil.Decode[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
