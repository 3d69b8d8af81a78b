// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invowk/launchgate/internal/config"
	"github.com/invowk/launchgate/internal/dependency"
	"github.com/invowk/launchgate/internal/issue"
	"github.com/invowk/launchgate/internal/launch"
	"github.com/invowk/launchgate/internal/migrate"
	"github.com/invowk/launchgate/internal/process"
	"github.com/invowk/launchgate/internal/provision"
	"github.com/invowk/launchgate/pkg/types"
)

// issueFor maps a pipeline failure to its help entry in the issue catalog.
// It returns 0 when no entry applies.
func issueFor(err error) issue.Id {
	var stageErr *launch.StageError
	switch {
	case errors.Is(err, dependency.ErrDependencyUnavailable):
		return issue.DependencyUnavailableId
	case errors.Is(err, provision.ErrProvisionFailed):
		return issue.ProvisionFailedId
	case errors.Is(err, migrate.ErrMigrationFailed):
		return issue.MigrationFailedId
	case errors.Is(err, process.ErrExecFailed):
		return issue.ExecFailedId
	case errors.Is(err, config.ErrInvalidConfig),
		errors.As(err, &stageErr) && stageErr.Stage == launch.StageConfig:
		return issue.ConfigLoadFailedId
	default:
		return 0
	}
}

// reportFailure writes the one-line diagnostic for err, any suggestions it
// carries and, when help is set, the matching catalog entry. The returned
// ExitError marks the failure as already reported.
func reportFailure(stderr io.Writer, err error, help bool) error {
	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("launchgate:"), err.Error())

	var actionable *issue.ActionableError
	if errors.As(err, &actionable) {
		for _, suggestion := range actionable.Suggestions {
			fmt.Fprintf(stderr, "  %s %s\n", SubtitleStyle.Render("•"), suggestion)
		}
	}

	if help {
		if entry := issue.Get(issueFor(err)); entry != nil {
			rendered, renderErr := entry.Render(glamourStyle(stderr))
			if renderErr == nil {
				fmt.Fprint(stderr, rendered)
			}
		}
	}

	return &ExitError{Code: types.ExitFailure}
}

// glamourStyle picks a terminal-aware glamour style for w.
func glamourStyle(w io.Writer) string {
	f, ok := w.(*os.File)
	if !ok {
		return "notty"
	}
	info, err := f.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return "notty"
	}
	return "dark"
}
