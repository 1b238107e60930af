// Package cli implements the engram CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tonitangpotato/neuromemory-ai/internal/config"
	"github.com/tonitangpotato/neuromemory-ai/internal/embedding"
	"github.com/tonitangpotato/neuromemory-ai/internal/engine"
	"github.com/tonitangpotato/neuromemory-ai/internal/store"
)

var (
	dbPath     string
	configFile string
	presetName string
	formatFlag string
	logger     = log.Default()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "engram",
	Short: "A cognitive memory engine for AI agents",
	Long:  "engram models human-like memory: ACT-R activation, Ebbinghaus forgetting, Hebbian association, and periodic consolidation, backed by a single SQLite file.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $ENGRAM_DB or ~/.engram/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path")
	RootCmd.PersistentFlags().StringVar(&presetName, "preset", "", "Named preset: chatbot, task-agent, personal-assistant, researcher")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format (output is always rendered as json)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("ENGRAM_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".engram", "memory.db")
}

func loadConfig() (config.Config, error) {
	if presetName != "" {
		c, err := config.Preset(presetName)
		if err != nil {
			return config.Config{}, err
		}
		c.DBPath = getDBPath()
		return c, nil
	}

	v := viper.New()
	c, err := config.Load(v, configFile)
	if err != nil {
		return config.Config{}, err
	}
	c.DBPath = getDBPath()
	return c, nil
}

// openEngine opens the store and constructs an Engine over it, wiring the
// embedding provider from configuration.
func openEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ctx := cmd.Context()
	var embedder embedding.Embedder
	switch cfg.EmbeddingProvider {
	case "none":
		embedder = embedding.NoneEmbedder{}
	case "local":
		embedder = embedding.NewLocalEmbedder(cfg.EmbeddingURL, cfg.EmbeddingModel)
	case "remote":
		embedder = embedding.NewRemoteEmbedder(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, 0)
	default:
		embedder = embedding.Auto(ctx,
			embedding.NewLocalEmbedder(cfg.EmbeddingURL, cfg.EmbeddingModel),
			embedding.NewRemoteEmbedder(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, 0))
	}

	e, err := engine.Open(s, embedder, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	return e, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
