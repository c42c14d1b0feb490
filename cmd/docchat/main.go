package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/logger"
	"docchat/internal/service"
	"docchat/internal/session"
	"docchat/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "docchat:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "docchat",
		Usage:     "chat with a PDF, the web, or just the model",
		ArgsUsage: "[document.pdf]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to YAML config file (default ./config.yaml or ~/.config/docchat/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "environment file path",
				Value: ".env",
			},
		},
		Action: run,
	}
}

// runProgram runs the terminal UI until the user quits.
var runProgram = func(ctx context.Context, m tui.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func run(ctx context.Context, cmd *cli.Command) error {
	if err := godotenv.Load(cmd.String("env")); err != nil && cmd.IsSet("env") {
		return fmt.Errorf("load env file: %w", err)
	}

	var (
		cfg     *config.AppConfig
		cfgPath = cmd.String("config")
		err     error
	)
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return err
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = config.DefaultLogFile()
	}
	log, err := logger.New(logFile, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	svc, err := buildService(cfg, creds, log)
	if err != nil {
		return err
	}

	sess := session.New()
	log.Info("session started",
		zap.String("session", sess.ID()),
		zap.String("config", cfgPath),
		zap.String("model", creds.ChatModel),
		zap.String("embedder", cfg.Embedder.Type),
		zap.String("vector_store", cfg.VectorStore.Type),
	)

	m := startModel(ctx, svc, sess, cfg.Settings(), cmd.Args().First(), log)
	err = runProgram(ctx, m)
	if resetErr := sess.Reset(); resetErr != nil {
		log.Warn("discarding index on exit", zap.Error(resetErr))
	}
	return err
}

// startModel builds the UI model, first indexing the PDF at path when one is
// given. A failed upload is shown as a notice; the chat still starts.
func startModel(ctx context.Context, chat tui.ChatPort, sess *session.State, settings domain.Settings, path string, log *zap.Logger) tui.Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := tui.New(ctx, chat, sess, settings)
	if path == "" {
		return m
	}
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("reading startup document", zap.String("path", path), zap.Error(err))
		return m.WithIngest(name, service.IngestResult{}, err)
	}
	res, err := chat.IngestPDF(ctx, sess, name, data)
	if err != nil {
		log.Warn("startup document not indexed", zap.String("path", path), zap.Error(err))
	}
	return m.WithIngest(name, res, err)
}
