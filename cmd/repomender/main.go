package main

import (
	_ "repomender/internal/actions/tasks"
	"repomender/internal/cli"
	_ "repomender/internal/fetcher/providers"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
