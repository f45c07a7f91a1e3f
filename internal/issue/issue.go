// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

// Id identifies a catalog entry. The zero value means "no entry".
type Id int

const (
	RemoteRequestFailedId Id = iota + 1
	TransportFailedId
	UnexpectedResponseId
	ConfigLoadFailedId
	PathNotFoundId
	UserNotFoundId
	CIFileInvalidId
	BranchUnknownId
	InvalidScopeId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the Markdown message, followed by its links, rendered for
// the terminal with the given glamour style ("" selects the default).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if links := append(i.DocLinks(), i.extLinks...); len(links) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range links {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	restDocs = HttpLink("https://docs.gitlab.com/api/rest/")

	remoteRequestFailedIssue = &Issue{
		id: RemoteRequestFailedId,
		mdMsg: `
# GitLab rejected the request

The API answered with a status other than 200 or 201. The status and the
response body are printed above exactly as GitLab sent them.

## Things you can try
- **401 Unauthorized**: set a token with the ` + "`api`" + ` or ` + "`read_api`" + ` scope:
~~~
$ export GITLAB_PRIVATE_TOKEN=glpat-...
~~~
- **403 Forbidden**: your user lacks access to the group or project.
- **404 Not Found**: check the group or project id; private projects also
  answer 404 to anonymous requests.
- **409 Conflict**: a merge request for the same branches already exists.`,
		docLinks: []HttpLink{restDocs},
	}

	transportFailedIssue = &Issue{
		id: TransportFailedId,
		mdMsg: `
# Could not reach GitLab

The request did not get an HTTP answer. glops does not retry.

## Things you can try
- Check the server URL (` + "`--url`" + ` or ` + "`GITLAB_URL`" + `).
- Raise the request timeout:
~~~
$ glops --timeout 2m tags --group 42
~~~
- Check proxies and VPN connectivity.`,
	}

	unexpectedResponseIssue = &Issue{
		id: UnexpectedResponseId,
		mdMsg: `
# Unexpected response from GitLab

The server answered, but the body was not the JSON glops expected. This
usually means the URL points at a proxy or login page instead of the API.

## Things you can try
- Make sure the URL is the GitLab root, without ` + "`/api/v4`" + `.
- Run with ` + "`--verbose`" + ` to log each request.`,
		docLinks: []HttpLink{restDocs},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

glops read a config.cue that is not valid CUE or does not match its schema.

## Things you can try
- Print the effective defaults:
~~~
$ glops config show
~~~
- Show which file was used:
~~~
$ glops config path
~~~
- Start over from a generated file with ` + "`glops config init`" + `.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	pathNotFoundIssue = &Issue{
		id: PathNotFoundId,
		mdMsg: `
# Path not found

A file or directory given on the command line, in ` + "`TERRAFORM_PATHS`" + ` or in
the config file does not exist. Other paths were still processed.

## Things you can try
- Check the path relative to the current directory.
- Separate several paths with spaces or commas.`,
	}

	userNotFoundIssue = &Issue{
		id: UserNotFoundId,
		mdMsg: `
# User not found

No GitLab user has exactly this username. Usernames are the handle after
` + "`@`" + `, not the display name.

## Things you can try
~~~
$ glops users --username <name>
~~~`,
		docLinks: []HttpLink{"https://docs.gitlab.com/api/users/"},
	}

	ciFileInvalidIssue = &Issue{
		id: CIFileInvalidId,
		mdMsg: `
# CI definition could not be rewritten

The file is missing, empty, or not valid YAML.

## Things you can try
- Pass the path explicitly with ` + "`--file`" + `.
- Validate the file with the GitLab CI Lint tool.`,
		docLinks: []HttpLink{"https://docs.gitlab.com/ci/yaml/#include"},
	}

	branchUnknownIssue = &Issue{
		id: BranchUnknownId,
		mdMsg: `
# Current branch unknown

The branch is read with ` + "`git rev-parse --abbrev-ref HEAD`" + `, which fails outside a
repository and reports ` + "`HEAD`" + ` on a detached checkout (as in most CI jobs).

## Things you can try
~~~
$ glops ci-ref --branch "$CI_COMMIT_REF_NAME"
~~~`,
	}

	invalidScopeIssue = &Issue{
		id: InvalidScopeId,
		mdMsg: `
# Group or project required

This command works on either one group or one project.

## Things you can try
- ` + "`--group <id>`" + ` or ` + "`GITLAB_GROUP_ID`" + `
- ` + "`--project <id>`" + ` or ` + "`GITLAB_PROJECT_ID`",
	}

	issues = map[Id]*Issue{
		remoteRequestFailedIssue.Id(): remoteRequestFailedIssue,
		transportFailedIssue.Id():     transportFailedIssue,
		unexpectedResponseIssue.Id():  unexpectedResponseIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		pathNotFoundIssue.Id():        pathNotFoundIssue,
		userNotFoundIssue.Id():        userNotFoundIssue,
		ciFileInvalidIssue.Id():       ciFileInvalidIssue,
		branchUnknownIssue.Id():       branchUnknownIssue,
		invalidScopeIssue.Id():        invalidScopeIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
