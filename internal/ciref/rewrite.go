// SPDX-License-Identifier: MPL-2.0

package ciref

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyFile is returned for a CI file without content.
	ErrEmptyFile = errors.New("file is empty")
	// ErrNotAFile is returned when the CI path is missing or is a directory.
	ErrNotAFile = errors.New("not a regular file")
)

type (
	// Ref is the position of an include ref value in the source.
	// Line and Column are 1-based, as reported by yaml.v3. Column counts
	// characters, not bytes.
	Ref struct {
		Line   int
		Column int
		Value  string
	}

	// Change records one rewritten ref.
	Change struct {
		Line int    `json:"line"`
		From string `json:"from"`
		To   string `json:"to"`
	}

	// Result is the outcome of a rewrite.
	Result struct {
		Branch string `json:"branch"`
		// NoPreference is set when the branch has no rule; nothing was checked.
		NoPreference bool     `json:"no_preference,omitempty"`
		Refs         int      `json:"refs"`
		Changes      []Change `json:"changes"`
		Content      []byte   `json:"-"`
	}
)

// Changed reports whether at least one ref was rewritten.
func (r *Result) Changed() bool {
	return len(r.Changes) > 0
}

// FindIncludeRefs returns the refs of every entry under the top-level
// `include:` key, in document order. Refs elsewhere in the file are ignored.
func FindIncludeRefs(content []byte) ([]Ref, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing CI file: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil
	}

	include := mappingValue(root, "include")
	if include == nil {
		return nil, nil
	}

	var entries []*yaml.Node
	switch include.Kind {
	case yaml.MappingNode:
		entries = []*yaml.Node{include}
	case yaml.SequenceNode:
		entries = include.Content
	}

	var refs []Ref
	for _, e := range entries {
		if e.Kind != yaml.MappingNode {
			continue
		}
		v := mappingValue(e, "ref")
		if v == nil || v.Kind != yaml.ScalarNode {
			continue
		}
		refs = append(refs, Ref{Line: v.Line, Column: v.Column, Value: v.Value})
	}
	return refs, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Rewrite applies rules for branch to the include refs of content. The
// returned Content equals the input except for the rewritten ref values.
func Rewrite(content []byte, branch string, rules Rules) (*Result, error) {
	res := &Result{Branch: branch, Changes: []Change{}, Content: content}
	if _, ok := rules[branch]; !ok {
		res.NoPreference = true
		return res, nil
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}

	refs, err := FindIncludeRefs(content)
	if err != nil {
		return nil, err
	}
	res.Refs = len(refs)

	// Refs are applied back to front so a rewrite never shifts the column of
	// a ref that is still pending on the same line.
	lines := bytes.SplitAfter(content, []byte("\n"))
	for i := len(refs) - 1; i >= 0; i-- {
		ref := refs[i]
		to, _ := rules.Resolve(branch, ref.Value)
		if to == ref.Value {
			continue
		}
		idx := ref.Line - 1
		if idx < 0 || idx >= len(lines) {
			return nil, fmt.Errorf("ref %q: line %d out of range", ref.Value, ref.Line)
		}
		replaced, err := replaceScalar(lines[idx], byteOffset(lines[idx], ref.Column-1), to)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ref.Line, err)
		}
		lines[idx] = replaced
		res.Changes = append(res.Changes, Change{Line: ref.Line, From: ref.Value, To: to})
	}

	slices.Reverse(res.Changes)

	if res.Changed() {
		res.Content = bytes.Join(lines, nil)
	}
	return res, nil
}

// byteOffset returns the byte offset of the rune at index runes of line, or
// len(line) when the line is shorter.
func byteOffset(line []byte, runes int) int {
	off := 0
	for ; runes > 0 && off < len(line); runes-- {
		_, size := utf8.DecodeRune(line[off:])
		off += size
	}
	return off
}

// replaceScalar swaps the scalar token starting at byte offset col of line
// for value. Quoted scalars keep their quotes.
func replaceScalar(line []byte, col int, value string) ([]byte, error) {
	if col < 0 || col >= len(line) {
		return nil, fmt.Errorf("column %d out of range", col+1)
	}

	start, end := col, col
	switch q := line[col]; q {
	case '"', '\'':
		closing := bytes.IndexByte(line[col+1:], q)
		if closing < 0 {
			return nil, errors.New("unterminated quoted ref")
		}
		start = col + 1
		end = start + closing
	default:
		end = col + len(line[col:])
		if i := bytes.IndexAny(line[col:], " \t\r\n#,}]"); i >= 0 {
			end = col + i
		}
	}

	out := make([]byte, 0, len(line)-(end-start)+len(value))
	out = append(out, line[:start]...)
	out = append(out, value...)
	out = append(out, line[end:]...)
	return out, nil
}

// RewriteFile rewrites the include refs of the CI file at path for branch.
// The file is only written when a ref changed and dryRun is false.
func RewriteFile(path, branch string, rules Rules, dryRun bool) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	res, err := Rewrite(content, branch, rules)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !res.Changed() || dryRun {
		return res, nil
	}

	if err := os.WriteFile(path, res.Content, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}

// Diff renders the changes as unified-style -/+ line pairs.
func (r *Result) Diff(original []byte) string {
	lines := strings.SplitAfter(string(original), "\n")
	updated := strings.SplitAfter(string(r.Content), "\n")

	var b strings.Builder
	for _, c := range r.Changes {
		i := c.Line - 1
		if i < 0 || i >= len(lines) || i >= len(updated) {
			continue
		}
		fmt.Fprintf(&b, "@@ line %d @@\n-%s+%s", c.Line, ensureNewline(lines[i]), ensureNewline(updated[i]))
	}
	return b.String()
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
