// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/maps"

	"github.com/glops/glops/internal/config"
)

// tomlRootKey holds results whose top level is not a table.
const tomlRootKey = "items"

// textWriter renders a result for --output text.
type textWriter func(w io.Writer) error

// writeResult prints v on w in the configured format.
func writeResult(w io.Writer, format config.OutputFormat, v any, text textWriter) error {
	switch format {
	case config.OutputText:
		return text(w)
	case config.OutputTOML:
		return writeTOML(w, v)
	default:
		return writeJSON(w, v)
	}
}

// writeJSON prints v as JSON indented by two spaces.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTOML prints v as a TOML document. The value goes through its JSON form
// first so the json tags apply and numbers keep their exact text. TOML has no
// null, so nil values are dropped, and a non-table root is nested under
// "items".
func writeTOML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}

	table, ok := dropNulls(doc).(map[string]any)
	if !ok {
		table = map[string]any{tomlRootKey: dropNulls(doc)}
		if table[tomlRootKey] == nil {
			table = map[string]any{}
		}
	}
	return toml.NewEncoder(w).SetMarshalJsonNumbers(true).Encode(table)
}

func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			if item = dropNulls(item); item != nil {
				out[k] = item
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if item = dropNulls(item); item != nil {
				out = append(out, item)
			}
		}
		return out
	default:
		return v
	}
}

// writeListText prints one "key: v1, v2" line per key, sorted by key.
func writeListText(w io.Writer, m map[string][]string) error {
	keys := maps.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		values := SubtitleStyle.Render("(none)")
		if len(m[k]) > 0 {
			values = strings.Join(m[k], ", ")
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(k), values); err != nil {
			return err
		}
	}
	return nil
}

// reportFailures prints one line per failed parent on w and returns an
// ExitError when there was at least one failure. The aggregate of the
// successful parents has already been written to stdout at that point.
func reportFailures[E error](w io.Writer, errs []E) error {
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), err.Error())
	}
	return &ExitError{Code: 1}
}

// field is one "name: value" line of a text record.
type field struct {
	name  string
	value any
}

// writeRecordText prints a styled header followed by indented fields.
func writeRecordText(w io.Writer, header string, fields []field) error {
	if _, err := fmt.Fprintln(w, KeyStyle.Render(header)); err != nil {
		return err
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "  %s: %v\n", f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// writeRecordsText prints one record per key of m, sorted by key.
func writeRecordsText[T any](w io.Writer, m map[string]T, fields func(T) []field) error {
	keys := maps.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		if err := writeRecordText(w, k, fields(m[k])); err != nil {
			return err
		}
	}
	return nil
}
