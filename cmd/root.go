package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplayer/internal/app"
	"github.com/abhisek/lessonplayer/internal/config"
	"github.com/abhisek/lessonplayer/internal/logging"
	"github.com/abhisek/lessonplayer/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lessonplayer",
	Short: "Play interactive lessons in the terminal",
	Long:  "lessonplayer plays card-based lessons with hints, saved progress and learning time tracking.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlayer(cmd, "")
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./config/lessonplayer.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite database or Badger directory (overrides LESSONPLAYER_STORE_PATH)")
	rootCmd.PersistentFlags().String("profile", "default", "Learner profile id")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	return cfg, nil
}

// openApp builds the services. Interactive commands log to a file since
// the terminal belongs to the UI.
func openApp(cmd *cobra.Command, interactive bool) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if interactive {
		path, err := logFilePath(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve log file: %w", err)
		}
		logger, err = logging.NewFile(cfg.Env, path)
		if err != nil {
			return nil, err
		}
	} else {
		logger, err = logging.New(cfg.Env)
		if err != nil {
			return nil, err
		}
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

// closeApp stops open sessions and flushes the log.
func closeApp(cmd *cobra.Command, a *app.App) error {
	err := a.Close(cmd.Context())
	_ = a.Logger.Sync()
	return err
}

func logFilePath(cfg *config.Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, store.EnsureDir(cfg.LogFile)
	}
	db, err := store.DefaultDBPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(db), "lessonplayer.log"), nil
}

func profileID(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("profile")
	return p
}
