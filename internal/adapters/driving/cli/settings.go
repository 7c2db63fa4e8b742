package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// openSettings opens the persisted settings under dir.
var openSettings = func(dir string) (driven.ConfigStore, error) {
	return configfile.NewConfigStore(dir)
}

// settingKeys lists the keys the settings command accepts.
var settingKeys = []string{
	configfile.KeyEmbeddingProvider,
	configfile.KeyEmbeddingModel,
	configfile.KeyEmbeddingBaseURL,
	configfile.KeyEmbeddingDimensions,
	configfile.KeyLLMProvider,
	configfile.KeyLLMModel,
	configfile.KeyLLMBaseURL,
	configfile.KeyVectorStoreKind,
	configfile.KeyVectorStoreURL,
	configfile.KeyVectorStorePath,
	configfile.KeyVectorStoreDSN,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `View and change the provider and store choices saved in config.toml
under the settings directory. Flags, environment variables and the --config
file all take precedence over these settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Long: `Set a persistent setting.

Keys:
  embedding.provider, embedding.model, embedding.base_url, embedding.dimensions
  llm.provider, llm.model, llm.base_url
  vector_store.kind, vector_store.url, vector_store.path, vector_store.dsn`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	store, err := openSettings(settingsDir)
	if err != nil {
		return err
	}

	cmd.Printf("Settings file: %s\n\n", store.Path())
	for _, key := range settingKeys {
		value, ok := store.Get(key)
		if !ok {
			cmd.Printf("  %-22s (default)\n", key)
			continue
		}
		cmd.Printf("  %-22s %v\n", key, value)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if !slices.Contains(settingKeys, key) {
		return fmt.Errorf("unknown setting %q", key)
	}

	var value any = raw
	if key == configfile.KeyEmbeddingDimensions {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer", key)
		}
		value = n
	}

	store, err := openSettings(settingsDir)
	if err != nil {
		return err
	}
	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	cmd.Printf("%s = %v\n", key, value)
	return nil
}
