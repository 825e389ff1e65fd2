package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/neurolocus/internal/knowledge"
	"github.com/ppiankov/neurolocus/internal/logging"
	"github.com/ppiankov/neurolocus/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	kbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "neurolocus",
	Short: "Neurolocus - brainstem lesion localization from clinical text (non-diagnostic)",
	Long: `Neurolocus reads free-text clinical findings, recognizes cranial nerve,
long-tract and other localizing signs with their side, and infers the
brainstem level, the best matching classical syndrome and a short
differential.

Every score is a fixed formula over a versioned Knowledge Base.
Neurolocus is a teaching aid, not a diagnostic device.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "neurolocus %s (knowledge base %s)\n", Version, embeddedKBVersion())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.neurolocus/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&kbPath, "kb", "", "Knowledge Base YAML (default: embedded)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("knowledge.path", rootCmd.PersistentFlags().Lookup("kb"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and NEUROLOCUS_* environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.neurolocus")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// NEUROLOCUS_LLM_API_KEY maps to llm.api_key
	viper.SetEnvPrefix("NEUROLOCUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so environment variables reach Unmarshal
func setDefaults(v *viper.Viper, cfg *model.Config) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return
	}
	flattenInto(v, "", tree)

	// omitempty keys never appear in the marshalled defaults
	for _, key := range []string{"llm.api_key", "llm.base_url", "llm.http_proxy", "llm.https_proxy", "llm.no_proxy"} {
		v.SetDefault(key, "")
	}
}

func flattenInto(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]interface{}); ok {
			flattenInto(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if cfg.LLM.APIKey == "" && strings.EqualFold(cfg.LLM.Provider, "openai") {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return cfg, nil
}

// loadKnowledge loads the configured Knowledge Base or the embedded default
func loadKnowledge(cfg *model.Config) (*knowledge.Base, error) {
	kb, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	return kb, nil
}

func newLogger(cfg *model.Config) *zap.Logger {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; logging disabled\n", err)
		return zap.NewNop()
	}
	return logger
}

func embeddedKBVersion() string {
	kb, err := knowledge.Default()
	if err != nil {
		return "invalid"
	}
	return kb.Version()
}
