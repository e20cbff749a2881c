// cmd/historian/main.go is an asynchronous archiver that drains room events
// from the Redis journal and persists them to PostgreSQL. It runs beside the
// authority server; the realtime path never waits on it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/codewords-live/server/internal/config"
	"github.com/codewords-live/server/internal/database"
	"github.com/codewords-live/server/internal/journal"
	"github.com/codewords-live/server/internal/room"
)

// Historian batches journal records and flushes them to the database. Games
// that go quiet past the inactivity threshold are marked abandoned.
type Historian struct {
	redisClient *redis.Client
	queue       string
	batchSize   int
	flushDelay  time.Duration
	inactivity  time.Duration

	lastActivity sync.Map // game id -> time.Time

	batchMu sync.Mutex
	batch   []room.Event

	logger *logrus.Logger
}

func newHistorian(cfg *config.Config, logger *logrus.Logger) *Historian {
	return &Historian{
		redisClient: redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}),
		queue:      cfg.JournalQueue,
		batchSize:  cfg.BatchSize,
		flushDelay: cfg.FlushInterval,
		inactivity: cfg.InactivityTimeout,
		batch:      make([]room.Event, 0, cfg.BatchSize),
		logger:     logger,
	}
}

// Run blocks until ctx is canceled, draining the journal the whole time.
func (h *Historian) Run(ctx context.Context) {
	go h.readLoop(ctx)
	go h.inactivityLoop(ctx)

	h.logger.Info("historian started")
	<-ctx.Done()

	// Final flush so a clean shutdown loses nothing already popped.
	h.flush(context.Background())
	h.logger.Info("historian shutting down")
}

// readLoop pops journal records with BLPop and accumulates them; a ticker
// flushes partial batches so records never sit longer than flushDelay.
func (h *Historian) readLoop(ctx context.Context) {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.flush(ctx)

		default:
			res, err := h.redisClient.BLPop(ctx, 3*time.Second, h.queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				h.logger.Errorf("blpop: %v", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			var ev room.Event
			if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
				h.logger.Warnf("invalid journal record: %v", err)
				continue
			}

			if ev.GameID != "" {
				h.lastActivity.Store(ev.GameID, time.Now())
			}
			h.append(ctx, ev)
		}
	}
}

func (h *Historian) append(ctx context.Context, ev room.Event) {
	h.batchMu.Lock()
	h.batch = append(h.batch, ev)
	full := len(h.batch) >= h.batchSize
	h.batchMu.Unlock()

	if full {
		h.flush(ctx)
	}
}

// flush writes the pending batch in one transaction.
func (h *Historian) flush(ctx context.Context) {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	pending := make([]room.Event, len(h.batch))
	copy(pending, h.batch)
	h.batch = h.batch[:0]
	h.batchMu.Unlock()

	err := beginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, ev := range pending {
			if err := insertEventTx(ctx, tx, ev); err != nil {
				return fmt.Errorf("insert event (room %s seq %d): %w", ev.RoomID, ev.Seq, err)
			}
		}
		return nil
	})
	if err != nil {
		h.logger.Errorf("flush: %v", err)
		return
	}
	h.logger.Debugf("flushed %d events", len(pending))
}

// inactivityLoop marks games abandoned once no event has arrived for them
// within the configured threshold.
func (h *Historian) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			h.lastActivity.Range(func(key, val interface{}) bool {
				gameID, ok1 := key.(string)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > h.inactivity {
					h.markAbandoned(ctx, gameID)
					h.lastActivity.Delete(key)
				}
				return true
			})
		}
	}
}

func (h *Historian) markAbandoned(ctx context.Context, gameID string) {
	err := beginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', ended_at = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, e := tx.Exec(ctx, q, gameID)
		return e
	})
	if err != nil {
		h.logger.Errorf("mark game %s abandoned: %v", gameID, err)
		return
	}
	h.logger.Infof("marked game %s abandoned after inactivity", gameID)
}

// insertEventTx stores one journal record. Events carrying a game id upsert
// the game row; a game_end event finalizes it with its winner.
func insertEventTx(ctx context.Context, tx pgx.Tx, ev room.Event) error {
	if ev.GameID != "" {
		upsertQ := `
			INSERT INTO games (id, room_id, status, started_at)
			VALUES ($1, $2, 'in_progress', NOW())
			ON CONFLICT (id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, upsertQ, ev.GameID, ev.RoomID); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	insertQ := `
		INSERT INTO room_events (room_id, game_id, seq, actor_id, event_type, payload, occurred_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, to_timestamp($7 / 1000.0))
		ON CONFLICT (room_id, seq) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insertQ,
		ev.RoomID, ev.GameID, ev.Seq, ev.ActorID, ev.EventType, payload, ev.Timestamp,
	); err != nil {
		return err
	}

	if ev.EventType == "game_end" && ev.GameID != "" {
		winner := ""
		if w, ok := ev.Payload["winner"].(string); ok {
			winner = w
		}
		finalizeQ := `
			UPDATE games
			SET status = 'completed', winner = NULLIF($2, ''), ended_at = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, ev.GameID, winner); err != nil {
			return err
		}
	}
	return nil
}

// beginTxFunc runs f inside a transaction, rolling back on error.
func beginTxFunc(ctx context.Context, pool *pgxpool.Pool, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}

func runMigrations(cfg *config.Config, logger *logrus.Logger) error {
	if cfg.MigrationsPath == "" {
		logger.Debug("no migrations path configured, skipping")
		return nil
	}
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CODEWORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codewords-historian",
		Short:         "Drains the room event journal into PostgreSQL.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateHistorian(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres connection URL (env: CODEWORDS_DATABASE_URL)")
	fs.StringVar(&cfg.MigrationsPath, "migrations-path", "migrations", "directory of SQL migrations; empty skips them (env: CODEWORDS_MIGRATIONS_PATH)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address of the event journal (env: CODEWORDS_REDIS_ADDR)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database number (env: CODEWORDS_REDIS_DB)")
	fs.StringVar(&cfg.JournalQueue, "journal-queue", journal.DefaultQueueName, "redis list to consume (env: CODEWORDS_JOURNAL_QUEUE)")
	fs.IntVar(&cfg.BatchSize, "batch-size", 20, "events per flush transaction (env: CODEWORDS_BATCH_SIZE)")
	fs.DurationVar(&cfg.FlushInterval, "flush-interval", 500*time.Millisecond, "max delay before a partial batch is flushed (env: CODEWORDS_FLUSH_INTERVAL)")
	fs.DurationVar(&cfg.InactivityTimeout, "inactivity-timeout", 10*time.Minute, "quiet period before a game is marked abandoned (env: CODEWORDS_INACTIVITY_TIMEOUT)")
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

func run(ctx context.Context, cfg *config.Config) error {
	logger := logrus.New()
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := runMigrations(cfg, logger); err != nil {
		return err
	}
	if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := newHistorian(cfg, logger)
	h.Run(ctx)
	return nil
}

func main() {
	cfg := &config.Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
