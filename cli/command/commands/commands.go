package commands

import (
	"formula/cli/command"
	"formula/cli/command/generate"
	"formula/cli/command/install"
	"formula/cli/command/ls"
	"formula/cli/command/outdated"
	"formula/cli/command/parse"
	"formula/cli/command/render"
	"formula/cli/command/resolve"
	"formula/cli/command/uninstall"
	"formula/cli/command/validate"
	"formula/cli/command/verify"
	"formula/cli/command/version"

	"github.com/spf13/cobra"
)

// AddCommands adds all the commands from cli/command to the root command
func AddCommands(cmd *cobra.Command, formulaCli command.Cli) {
	cmd.AddGroup(
		&cobra.Group{ID: "descriptor", Title: "Descriptor Commands:"},
		&cobra.Group{ID: "install", Title: "Install Commands:"},
	)

	for _, c := range []*cobra.Command{
		render.NewRenderCommand(formulaCli),
		parse.NewParseCommand(formulaCli),
		validate.NewValidateCommand(formulaCli),
		resolve.NewResolveCommand(formulaCli),
		generate.NewGenerateCommand(formulaCli),
		verify.NewVerifyCommand(formulaCli),
	} {
		c.GroupID = "descriptor"
		cmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{
		install.NewInstallCommand(formulaCli),
		uninstall.NewUninstallCommand(formulaCli),
		ls.NewLsCommand(formulaCli),
		outdated.NewOutdatedCommand(formulaCli),
	} {
		c.GroupID = "install"
		cmd.AddCommand(c)
	}

	cmd.AddCommand(version.NewVersionCommand(formulaCli))
}
