// Command policytool syncs source-declared tags to the metadata catalog and
// templated access rules to the policy service.
package main

import (
	"context"
	"os"

	"github.com/platformops/policytool/cmd/policytool/app"
)

// Populated by goreleaser at release time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	app.ExitOnError(application.Execute(ctx, os.Args[1:]))
}
