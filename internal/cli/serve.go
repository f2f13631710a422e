package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/sitetrack-backend-go/internal/api"
	"github.com/jengzang/sitetrack-backend-go/internal/auth"
	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/report"
	"github.com/jengzang/sitetrack-backend-go/internal/service"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
)

const shutdownTimeout = 10 * time.Second

func addServe(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	topLevel.AddCommand(cmd)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("failed to close store", "error", err)
		}
	}()

	sessions, err := auth.NewSessions(cfg.Auth)
	if err != nil {
		return err
	}
	segments := service.NewSegmentService(st, log)
	reports := service.NewReportService(segments, report.NewService(report.New(ctx, cfg.Gemini, log), log))

	router := api.SetupRouter(api.Deps{
		Config:   cfg,
		Log:      log,
		Segments: segments,
		Reports:  reports,
		Sessions: sessions,
	})

	g, gctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with the group, which closes live streams
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		return st.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port, "mode", st.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
