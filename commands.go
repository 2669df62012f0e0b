package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/James99309/stargirl-reader/internal/api"
	"github.com/James99309/stargirl-reader/internal/bot"
	"github.com/James99309/stargirl-reader/internal/excel"
	"github.com/James99309/stargirl-reader/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

var (
	withBot    bool
	sheetName  string
	startRow   int
	importDump bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API and the background jobs",
	RunE:  runServe,
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot and the background jobs",
	RunE:  runBot,
}

var importCmd = &cobra.Command{
	Use:   "import [file.xlsx|file.csv]",
	Short: "Import vocabulary from a spreadsheet",
	Long: `Imports words from an Excel or CSV file. Columns are, in order:
word, definition, part of speech, phonetic, pronunciation URL, context sentence, chapter.
Existing words keep their data; new context sentences are appended.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	serveCmd.Flags().BoolVar(&withBot, "with-bot", false, "also run the Telegram bot")
	importCmd.Flags().StringVar(&sheetName, "sheet", "", "sheet to import (first sheet when empty)")
	importCmd.Flags().IntVar(&startRow, "start-row", 2, "first data row, 1-based")
	importCmd.Flags().BoolVar(&importDump, "verbose", false, "print every row error")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	var notifier scheduler.Notifier
	var b *bot.Bot
	if withBot {
		if err := cfg.ValidateBot(); err != nil {
			return err
		}
		b, err = bot.New(cfg.TelegramBotToken, cfg.TelegramOwnerID, rt.app, bot.DefaultConfig(), logger.Named("bot"))
		if err != nil {
			return err
		}
		notifier = b
	}

	jobs, err := startScheduler(cfg, rt, notifier, logger)
	if err != nil {
		return err
	}
	defer jobs.Stop()

	handler := api.NewHandler(rt.app, logger.Named("api"))
	defer handler.Hub().Close()
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	if b != nil {
		g.Go(func() error { return b.Start(gctx) })
	}

	err = g.Wait()
	logger.Info("Shutting down")
	return err
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateBot(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	b, err := bot.New(cfg.TelegramBotToken, cfg.TelegramOwnerID, rt.app, bot.DefaultConfig(), logger.Named("bot"))
	if err != nil {
		return err
	}
	jobs, err := startScheduler(cfg, rt, b, logger)
	if err != nil {
		return err
	}
	defer jobs.Stop()

	return b.Start(ctx)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	config := excel.DefaultImportConfig()
	config.FilePath = args[0]
	config.SheetName = sheetName
	config.StartRow = startRow

	result, err := excel.ImportWords(config, rt.app.Vocabulary)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rows processed: %d\nNew words: %d\nContexts added: %d\nSkipped: %d\n",
		result.TotalProcessed, result.Created, result.ContextsAdded, result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Errors: %d\n", len(result.Errors))
		if importDump {
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  "+e)
			}
		}
	}
	return nil
}
