package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/daybook/auth"
	"github.com/rustyeddy/daybook/config"
	"github.com/rustyeddy/daybook/events"
	"github.com/rustyeddy/daybook/journal"
	"github.com/rustyeddy/daybook/ledger"
	"github.com/rustyeddy/daybook/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daybook HTTP API",
	Long: `Start the HTTP server over the configured storage backend.

Configuration is read from the file given with --config (defaults apply when
omitted). A .env file in the working directory is loaded first; the
DAYBOOK_DSN variable overrides store.dsn so database credentials stay out of
the config file.

Example:
  daybook serve --config daybook.yaml`,
	RunE: runServe,
}

var (
	serveConfigPath string
	serveSeedDemo   bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to config file (YAML or JSON)")
	serveCmd.Flags().BoolVar(&serveSeedDemo, "seed-demo", false, "seed the demo accounts on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Missing .env is fine; it only carries optional overrides.
	_ = godotenv.Load()

	cfg := config.Default()
	if serveConfigPath != "" {
		loaded, err := config.LoadFromFile(serveConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dsn := os.Getenv("DAYBOOK_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	ttl, err := cfg.Session.ParseTTL()
	if err != nil {
		return err
	}
	authSvc := auth.NewService(auth.WithTTL(ttl))
	if serveSeedDemo {
		authSvc.SeedDemo()
	}

	var opts []ledger.Option
	if cfg.Events.Enabled {
		pub := events.NewKafka(cfg.Events.Brokers, cfg.Events.Topic)
		defer pub.Close()
		opts = append(opts, ledger.WithPublisher(pub))
		log.Printf("publishing day closes to kafka topic %q", cfg.Events.Topic)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(ledger.New(store, opts...), authSvc, log.Default()).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("daybook listening on %s (store: %s)", cfg.Server.Addr, cfg.Store.Backend)
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case s := <-sig:
		log.Printf("received %s, shutting down", s)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// openStore builds the configured ledger.Store and returns a close func.
func openStore(sc config.StoreConfig) (ledger.Store, func(), error) {
	switch sc.Backend {
	case "memory":
		return journal.NewMemory(), func() {}, nil
	case "sqlite":
		s, err := journal.NewSQLite(sc.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		p, err := journal.OpenPostgres(sc.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres journal: %w", err)
		}
		return p, func() { _ = p.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}
