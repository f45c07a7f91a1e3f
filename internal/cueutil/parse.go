// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Decode compiles schema, unifies data with the definition at defPath and
// decodes the validated result into T.
//
// Schema problems are reported as internal errors; problems in data are
// returned through FormatError so they carry the document name and field path.
func Decode[T any](schema string, data []byte, defPath string, opts ...Option) (T, error) {
	var out T

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return out, err
	}

	cctx := cuecontext.New()

	schemaValue := cctx.CompileString(schema)
	if err := schemaValue.Err(); err != nil {
		return out, fmt.Errorf("internal error: compile schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(defPath))
	if err := def.Err(); err != nil {
		return out, fmt.Errorf("internal error: schema definition %s: %w", defPath, err)
	}

	doc := cctx.CompileBytes(data, cue.Filename(o.filename))
	if err := doc.Err(); err != nil {
		return out, FormatError(err, o.filename)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return out, FormatError(err, o.filename)
	}

	if err := unified.Decode(&out); err != nil {
		return out, FormatError(err, o.filename)
	}
	return out, nil
}
