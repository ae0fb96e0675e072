package commands

import (
	"github.com/mosaicnetworks/nrs/src/config"
)

//CLIConfig contains configuration for the Run and Component commands
type CLIConfig struct {
	NRS config.Config `mapstructure:",squash"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		NRS: *config.NewDefaultConfig(),
	}
}
