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

	"github.com/solardome/strategy-cockpit/internal/cockpit"
	"github.com/solardome/strategy-cockpit/internal/server"
	"github.com/solardome/strategy-cockpit/internal/share"
	"github.com/solardome/strategy-cockpit/internal/store"
)

const (
	shutdownGrace = 10 * time.Second
	pruneEvery    = time.Minute
)

func newServeCmd(a *app) *cobra.Command {
	var listenAddr, strategyDir, policyPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cockpit, chart API and share links over HTTP",
		Long: `Serves every strategy YAML in the strategy directory. Configuration comes
from the environment (APP_ENV, LISTEN_ADDR, STRATEGY_DIR, POLICY_PATH,
LOG_LEVEL, SHARE_TTL, DEFAULT_VIEW), optionally loaded from .env; flags win.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listenAddr == "" {
				listenAddr = a.cfg.ListenAddr
			}
			if strategyDir == "" {
				strategyDir = a.cfg.StrategyDir
			}
			if policyPath == "" {
				policyPath = a.cfg.PolicyPath
			}
			if st, err := os.Stat(strategyDir); err != nil || !st.IsDir() {
				return fmt.Errorf("strategy directory %q is not readable", strategyDir)
			}

			pol := cockpit.DefaultPolicy()
			var polInput *cockpit.InputDigest
			if policyPath != "" {
				p, in, err := cockpit.LoadPolicy(policyPath)
				if err != nil {
					return err
				}
				pol, polInput = p, &in
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.log, listenAddr, server.New(server.Options{
				Store:       store.New(strategyDir),
				Shares:      share.NewRegistry(a.cfg.ShareTTL),
				Policy:      pol,
				PolicyInput: polInput,
				DefaultView: a.cfg.DefaultView,
				Logger:      a.log,
			}))
		},
	}
	f := cmd.Flags()
	f.StringVar(&listenAddr, "listen", "", "Listen address (default from LISTEN_ADDR)")
	f.StringVar(&strategyDir, "strategies", "", "Directory of strategy YAML files (default from STRATEGY_DIR)")
	f.StringVar(&policyPath, "policy", "", "Policy YAML (default from POLICY_PATH)")
	return cmd
}

// serve runs the HTTP server and the share pruner until ctx is cancelled or
// one of them fails.
func serve(ctx context.Context, log *zap.Logger, addr string, srv *server.Server) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return srv.PruneShares(gctx, pruneEvery)
	})
	return g.Wait()
}
