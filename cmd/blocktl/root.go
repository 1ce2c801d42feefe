package main

import (
	"os"

	"github.com/ZaguanLabs/blocktl"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	jsonOut    bool
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:          blocktl.Name,
		Short:        blocktl.Description,
		SilenceUsage: true,
	}
	cmd.Version = blocktl.FullVersion()
	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "blocktl.yaml", "Config file (YAML); missing is fine")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: pretty or json (default: pretty on a terminal)")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newTranslateCmd(opts),
		newBlockCmd(opts),
		newExtractCmd(opts),
		newDocCmd(opts),
		newCompareCmd(opts),
		newSelectCmd(opts),
		newApproveCmd(opts),
		newImportCmd(opts),
		newProvidersCmd(opts),
		newUsageCmd(opts),
		newKeyCmd(),
		newLicenseCmd(opts),
		newServeCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}
