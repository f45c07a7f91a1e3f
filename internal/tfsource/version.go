// SPDX-License-Identifier: MPL-2.0

package tfsource

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// versionPattern matches dotted versions with an optional leading "v" and an
// optional prerelease suffix starting with a letter.
var versionPattern = regexp.MustCompile(`v?\d+(?:\.\d+){0,2}(?:-[A-Za-z][0-9A-Za-z.]*)?`)

// Version derives a canonical semantic version ("v1.4.0") from a module source
// such as "https://host/modules/vpc-v1.4.0.zip" or "https://host/vpc.zip?ref=1.4".
// Only the archive name and the query string are inspected; the last valid
// candidate wins. It returns "" when no valid version can be found.
func Version(source string) string {
	candidates := versionPattern.FindAllString(versionHaystack(source), -1)
	for i := len(candidates) - 1; i >= 0; i-- {
		v := candidates[i]
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			return semver.Canonical(v)
		}
	}
	return ""
}

// versionHaystack keeps the parts of a source that can carry a version: the
// query string and the last path element without its archive extension.
func versionHaystack(source string) string {
	base, query, _ := strings.Cut(source, "?")
	name := strings.TrimSuffix(path.Base(base), path.Ext(base))
	if query == "" {
		return name
	}
	return name + " " + query
}
