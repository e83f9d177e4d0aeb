package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/pillpal/internal/config"
	"github.com/crystaldolphin/pillpal/internal/providers"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pillpal configuration status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	fmt.Printf("%s pillpal Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	spec := providers.Resolve(cfg.Provider.API, cfg.Provider.APIBase)
	if spec == nil {
		fmt.Printf("Provider:  %q (unknown)\n", cfg.Provider.API)
	} else {
		base := cfg.Provider.APIBase
		if base == "" {
			base = spec.DefaultAPIBase
		}
		fmt.Printf("Provider:  %s (%s)\n", spec.DisplayName, base)
		if !spec.SupportsTools {
			fmt.Println("           tools disabled for this API")
		}
	}
	model := cfg.Provider.Model
	if model == "" && spec != nil {
		model = spec.DefaultModel + " (default)"
	}
	fmt.Printf("Model:     %s\n", model)

	keyMark := "✓"
	if cfg.Provider.APIKey == "" {
		keyMark = "(not set)"
	}
	fmt.Printf("API key:   %s\n", keyMark)
	fmt.Printf("Listen:    %s\n", cfg.Server.Addr())

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\n✗ %v\n", err)
	} else {
		fmt.Println("\n✓ Ready to serve")
	}
	return nil
}
