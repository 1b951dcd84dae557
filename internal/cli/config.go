package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nexus-vision/vigil/internal/config"
	"github.com/nexus-vision/vigil/internal/models"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the client config",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config (file, environment and defaults)",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		if err := config.EnsureGlobalDir(); err != nil {
			return err
		}
		p, err := config.GlobalConfigFile()
		if err != nil {
			return err
		}
		path = p
	}
	if config.FileExists(path) && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, models.NewClientConfig()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render(styleSuccess, "Wrote ")+path)
	return nil
}

// resolveRef resolves a backend-relative reference against base.
func resolveRef(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
