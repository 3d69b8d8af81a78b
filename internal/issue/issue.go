// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DependencyUnavailableId Id = iota + 1
	ProvisionFailedId
	MigrationFailedId
	ExecFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation for the failing collaborator
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

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	dependencyUnavailableIssue = &Issue{
		id: DependencyUnavailableId,
		mdMsg: `
# The database never became ready

Every readiness probe within the retry budget failed, so the container stopped
before provisioning, migrations or the server could run.

## Things you can try:
- Check that the database service is running:
~~~
$ docker compose ps db
~~~
- Verify DB_HOST, DB_PORT, DB_USER and DB_PASSWORD match the database service
- Probe once by hand from inside the container:
~~~
$ launchgate check
~~~`,
		docLinks: []HttpLink{"https://www.postgresql.org/docs/current/app-pg-isready.html"},
	}

	provisionFailedIssue = &Issue{
		id: ProvisionFailedId,
		mdMsg: `
# The application database could not be created

Strict provisioning is enabled and CREATE DATABASE failed for a reason other
than the database already existing.

## Things you can try:
- Grant the CREATEDB privilege to DB_USER
- Create the database ahead of time and keep DB_NAME pointing at it
- Disable strict mode to restore best-effort provisioning:
~~~
PROVISION_STRICT=false
~~~`,
		docLinks: []HttpLink{"https://www.postgresql.org/docs/current/sql-createdatabase.html"},
	}

	migrationFailedIssue = &Issue{
		id: MigrationFailedId,
		mdMsg: `
# Migrations failed

The migration engine reported an error, so the server was not started against
a stale or partially migrated schema.

## Things you can try:
- Read the migration output above for the failing migration
- Run the migration command manually, bypassing the startup pipeline:
~~~
$ launchgate run python manage.py migrate --noinput
~~~
- Check MIGRATE_ENGINE, MIGRATE_COMMAND and MIGRATE_SOURCE`,
		docLinks: []HttpLink{"https://docs.djangoproject.com/en/stable/ref/django-admin/#migrate"},
	}

	execFailedIssue = &Issue{
		id: ExecFailedId,
		mdMsg: `
# The final command could not be started

The launcher could not replace itself with the requested program.

## Things you can try:
- Make sure the program is installed in the image and on PATH
- Use an absolute path for the program
- Check SERVER_PROGRAM when the default server is expected`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The CUE config file, an env file, or an environment variable holds a value
the launcher cannot use.

## Things you can try:
- Inspect the resolved configuration:
~~~
$ launchgate config show
~~~
- Check the config file against the documented keys
- Remove the '?' suffix from --env-file only for files that must exist`,
	}

	issues = map[Id]*Issue{
		dependencyUnavailableIssue.Id(): dependencyUnavailableIssue,
		provisionFailedIssue.Id():       provisionFailedIssue,
		migrationFailedIssue.Id():       migrationFailedIssue,
		execFailedIssue.Id():            execFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, entry := range issues {
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
