package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cmsbridge/cmd/cmsbridge/commands"
	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("cmsbridge"),
		kong.Description("Content editing adapter for git-hosted repositories"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{}, &cli)
	if err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, nil)
		adapter.HandleError(err)
	}
}
