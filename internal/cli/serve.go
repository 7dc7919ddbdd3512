package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/onestep/internal/adapters/http"
	"github.com/PabloGalante/onestep/internal/app/session"
	"github.com/PabloGalante/onestep/internal/app/steps"
	"github.com/PabloGalante/onestep/internal/observability"
)

const shutdownTimeout = 10 * time.Second

var allowOrigins []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API: companion sessions, the wins journal, the step
generator and the raw response generator under /api/generate.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSliceVar(&allowOrigins, "allow-origin", nil, "CORS origin to allow (repeatable, default any)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stdout, false)
	if err != nil {
		return err
	}
	log := observability.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, client, err := buildGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	journalSvc := st.journalService()
	registry := session.NewRegistry(gen, journalSvc, sessionOptions(cfg))

	var stepSvc *steps.Service
	if client != nil {
		stepSvc = steps.NewService(client)
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpadapter.NewServer(httpadapter.Deps{
		Registry:  registry,
		Journal:   journalSvc,
		Steps:     stepSvc,
		Generator: gen,
		RateLimit: httpadapter.RateLimit{
			Requests: cfg.Limits.RateLimitRequests,
			Window:   cfg.Limits.RateLimitWindow,
		},
		AllowOrigins: allowOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("onestep API listening", "addr", srv.Addr, "llm", cfg.LLM.Backend, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		registry.CloseAll()
		return err
	})

	return g.Wait()
}
