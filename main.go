// Command cadastro runs the complaint register: a web form that appends
// complaints to an .xlsx workbook, plus maintenance and report commands.
package main

import (
	"fmt"
	"os"

	"cadastro/internal/complaint"
	"cadastro/internal/config"
	"cadastro/internal/storage"
	"cadastro/internal/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds what every subcommand shares once the root pre-run has loaded
// configuration.
type app struct {
	verbose bool
	envFile string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cadastro",
		Short: "Cadastro de Reclamação - complaint register backed by an Excel workbook",
		Long: `Serves a one-page form that validates complaints and appends them to an
.xlsx workbook, assigning sequential complaint numbers and keeping the sheet
formatted as an Excel table.

Run without arguments to start the web form.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "path of an .env file (default: ./.env when present)")

	root.AddCommand(
		a.serveCmd(),
		a.initCmd(),
		a.listCmd(),
		a.formatCmd(),
		a.summaryCmd(),
		a.exportPDFCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.LogLevel, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func (a *app) store() *storage.Store {
	return storage.New(a.cfg.StorePath,
		storage.WithSheet(a.cfg.SheetName),
		storage.WithTable(a.cfg.TableName, a.cfg.TableStyle),
		storage.WithLogger(a.logger.Named("storage")),
	)
}

func (a *app) telegram() *telegram.Client {
	return telegram.NewClient(telegram.Config{
		BotToken:  a.cfg.TelegramBotToken,
		ChatID:    a.cfg.TelegramChatID,
		APIURL:    a.cfg.TelegramAPIURL,
		Timeout:   a.cfg.HTTPTimeout,
		DebugMode: a.cfg.DebugMode,
	}, a.logger.Named("telegram"))
}

func (a *app) controller(store complaint.Store) *complaint.Controller {
	opts := []complaint.Option{
		complaint.WithLogger(a.logger.Named("controller")),
		complaint.WithClearOnSave(a.cfg.ClearFormOnSave),
	}
	if tg := a.telegram(); tg != nil {
		opts = append(opts, complaint.WithNotifier(tg))
	}
	return complaint.NewController(store, opts...)
}
