// SPDX-License-Identifier: MPL-2.0

package tfsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/glops/glops/internal/fanout"
)

// ErrNotFoundLocal is the sentinel wrapped by NotFoundLocalError.
var ErrNotFoundLocal = errors.New("path does not exist")

var (
	// DefaultExtensions are the file extensions scanned when none are configured.
	DefaultExtensions = []string{".tf"}
	// DefaultSkipPatterns exclude version control and provider cache directories.
	DefaultSkipPatterns = []string{"**/.git", "**/.terraform"}
)

const (
	// DefaultSourceMarker must appear on a line for it to be considered.
	DefaultSourceMarker = "source"
	// DefaultArtifactMarker identifies sources that point at a packaged archive.
	DefaultArtifactMarker = ".zip"
)

// sourceAssignment captures the quoted value of `source = "..."`.
var sourceAssignment = regexp.MustCompile(`^\s*source\s*=\s*"([^"]*)"`)

type (
	// NotFoundLocalError is returned for a path that does not exist on disk.
	NotFoundLocalError struct {
		Path string
	}

	// Options tunes a scan. Zero values fall back to the package defaults.
	Options struct {
		Extensions     []string
		SkipPatterns   []string
		SourceMarker   string
		ArtifactMarker string
		Concurrency    int
	}

	// Module is one archive source found in a file.
	Module struct {
		Source  string    `json:"source"`
		Version string    `json:"version,omitempty"`
		Pos     SourcePos `json:"pos"`
	}

	// SourcePos locates a module source in a file.
	SourcePos struct {
		Filename string `json:"filename"`
		Line     int    `json:"line"`
	}

	// Report is the outcome of a scan over several paths.
	Report struct {
		// Modules maps each file with at least one match to its modules in line order.
		Modules map[string][]Module
		// Errors holds one error per path that could not be scanned.
		Errors []error
	}
)

// Error implements error.
func (e *NotFoundLocalError) Error() string {
	return fmt.Sprintf("directory/file does not exist %q", e.Path)
}

// Unwrap returns ErrNotFoundLocal.
func (e *NotFoundLocalError) Unwrap() error { return ErrNotFoundLocal }

func (o Options) withDefaults() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.SkipPatterns == nil {
		o.SkipPatterns = DefaultSkipPatterns
	}
	if o.SourceMarker == "" {
		o.SourceMarker = DefaultSourceMarker
	}
	if o.ArtifactMarker == "" {
		o.ArtifactMarker = DefaultArtifactMarker
	}
	return o
}

// Scan walks every path concurrently. Missing paths are reported as
// NotFoundLocalError without starting a worker; the remaining paths are
// scanned regardless.
func Scan(ctx context.Context, paths []string, opts Options) Report {
	opts = opts.withDefaults()

	var (
		report  = Report{Modules: make(map[string][]Module)}
		parents []fanout.Parent
	)
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			report.Errors = append(report.Errors, &NotFoundLocalError{Path: p})
			continue
		}
		parents = append(parents, fanout.Parent{ID: p, Name: p})
	}

	res := fanout.Run(ctx, parents, func(ctx context.Context, p fanout.Parent) (map[string][]Module, error) {
		return scanPath(ctx, p.ID, opts)
	}, fanout.Options{Concurrency: opts.Concurrency})

	for _, name := range res.Aggregate.Names() {
		for file, mods := range res.Aggregate[name] {
			report.Modules[file] = mods
		}
	}
	for _, werr := range res.Errors {
		report.Errors = append(report.Errors, werr)
	}
	return report
}

// Sources flattens the report to file -> source strings.
func (r Report) Sources() map[string][]string {
	out := make(map[string][]string, len(r.Modules))
	for file, mods := range r.Modules {
		srcs := make([]string, 0, len(mods))
		for _, m := range mods {
			srcs = append(srcs, m.Source)
		}
		out[file] = srcs
	}
	return out
}

// Files returns the scanned files with matches, sorted.
func (r Report) Files() []string {
	files := make([]string, 0, len(r.Modules))
	for f := range r.Modules {
		files = append(files, f)
	}
	slices.Sort(files)
	return files
}

// scanPath scans a single file or every matching file below a directory.
func scanPath(ctx context.Context, root string, opts Options) (map[string][]Module, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &NotFoundLocalError{Path: root}
	}

	var files []string
	if info.IsDir() {
		files, err = listFiles(ctx, root, opts)
		if err != nil {
			return nil, err
		}
	} else {
		if !hasExtension(root, opts.Extensions) {
			slog.Warn("file is not allowed", "path", root, "extensions", opts.Extensions)
			return map[string][]Module{}, nil
		}
		files = []string{root}
	}

	found := make(map[string][]Module)
	for _, f := range files {
		mods, err := scanFile(f, opts)
		if err != nil {
			return nil, err
		}
		if len(mods) > 0 {
			found[f] = mods
		}
	}
	return found, nil
}

// listFiles walks root and returns files with an allowed extension, skipping
// directories whose path relative to root matches a skip pattern.
func listFiles(ctx context.Context, root string, opts Options) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && matchesAny(opts.SkipPatterns, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if hasExtension(path, opts.Extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func hasExtension(path string, exts []string) bool {
	return slices.Contains(exts, filepath.Ext(path))
}

// scanFile returns the archive sources of one file in line order.
func scanFile(path string, opts Options) ([]Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // read-only file

	var mods []Module
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		src, ok := ExtractSource(sc.Text(), opts.SourceMarker, opts.ArtifactMarker)
		if !ok {
			continue
		}
		mods = append(mods, Module{
			Source:  src,
			Version: Version(src),
			Pos:     SourcePos{Filename: path, Line: lineNo},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return mods, nil
}

// ExtractSource returns the module source on line when the line carries both
// markers. Comment lines never match. The value is the quoted right-hand side
// of the assignment, or the third whitespace-separated token for lines that do
// not have the canonical `source = "..."` shape.
func ExtractSource(line, sourceMarker, artifactMarker string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
		return "", false
	}
	if !strings.Contains(trimmed, sourceMarker) || strings.Index(trimmed, artifactMarker) <= 0 {
		return "", false
	}

	if m := sourceAssignment.FindStringSubmatch(trimmed); m != nil {
		return m[1], true
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 3 {
		return "", false
	}
	return strings.Trim(fields[2], `"`), true
}
