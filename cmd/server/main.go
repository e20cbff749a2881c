// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/codewords-live/server/internal/config"
	"github.com/codewords-live/server/internal/handlers"
	"github.com/codewords-live/server/internal/identity"
	"github.com/codewords-live/server/internal/journal"
	"github.com/codewords-live/server/internal/room"
)

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CODEWORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codewords-server",
		Short:         "Realtime authority for networked word-guessing rooms.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: CODEWORDS_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: CODEWORDS_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "externally reachable base URL, used in join links (env: CODEWORDS_PUBLIC_URL)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "redis address for the event journal; empty disables journaling (env: CODEWORDS_REDIS_ADDR)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database number (env: CODEWORDS_REDIS_DB)")
	fs.StringVar(&cfg.JournalQueue, "journal-queue", journal.DefaultQueueName, "redis list the journal publishes to (env: CODEWORDS_JOURNAL_QUEUE)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: CODEWORDS_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logrus.New()
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	reg := room.NewRegistry(logger)

	idp, err := identity.NewProvider()
	if err != nil {
		return fmt.Errorf("init identity provider: %w", err)
	}

	if cfg.RedisAddr != "" {
		if err := journal.Connect(cfg.RedisAddr, cfg.RedisDB); err != nil {
			return err
		}
		logger.Infof("journaling events to redis at %s (queue %q)", cfg.RedisAddr, cfg.JournalQueue)

		queue := cfg.JournalQueue
		reg.SetEventHook(func(ev room.Event) {
			// Hook runs with the room lock held; push from a goroutine so a
			// slow Redis never stalls gameplay.
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := journal.Publish(ctx, queue, ev); err != nil {
					logger.Warnf("journal publish: %v", err)
				}
			}()
		})
	}

	srv := handlers.NewServer(reg, idp, logger, cfg.PublicURL)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Addr())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	cfg := &config.Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
