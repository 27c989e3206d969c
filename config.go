package main

import (
	"fmt"
	"os"

	"github.com/phobologic/dumpschema/internal/config"
)

// loadConfig reads the file named by --config, or finds dumpschema.yaml by
// walking up from the working directory. Without either, defaults apply.
func loadConfig(g *globalOptions) (*config.Config, error) {
	if g.configPath == "" {
		return config.Load(".")
	}
	if _, err := os.Stat(g.configPath); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return config.LoadFromPath(g.configPath)
}
