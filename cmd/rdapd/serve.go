package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	rb "github.com/datum-labs/rdapbootstrap"
)

func cmdServe() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the redirect service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen)")
	return cmd
}

func serve(cfg rb.Config) error {
	log := newLogger(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rd, tokens, err := cfg.Build(log, reg)
	if err != nil {
		return err
	}
	defer rd.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if every := cfg.PrefetchInterval(); every > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rd.Refresh(ctx); err != nil {
				log.Error(err, "initial prefetch failed")
			}
			rd.RunPrefetch(ctx, every)
		}()
	}

	if tokens != nil {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-hup:
					if err := tokens.Reload(); err != nil {
						log.Error(err, "token reload failed")
						continue
					}
					log.Info("tokens reloaded", "count", tokens.Len())
				}
			}
		}()
	}

	servers := []*http.Server{{
		Addr:              cfg.Server.Listen,
		Handler:           rd,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	for _, srv := range servers {
		go func() {
			log.Info("listening", "addr", srv.Addr)
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(err, "server error", "addr", srv.Addr)
				stop()
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}
	wg.Wait()
	log.Info("shut down")
	return nil
}
