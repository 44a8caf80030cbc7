package command

import (
	"formula/pkg/installer"
)

// NewInstaller builds an installer from the configuration. binDir
// overrides the configured bin dir when set.
func NewInstaller(cli Cli, binDir string) (*installer.Installer, error) {
	client, err := cli.DownloadClient()
	if err != nil {
		return nil, err
	}

	cfg := cli.ConfigFile()
	if binDir == "" {
		binDir = cfg.BinDir
	}

	return installer.New(binDir, cfg.CacheDir, cfg.Concurrency, client), nil
}
