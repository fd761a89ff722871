package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-scratch/internal/relay"
)

var flagRelayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Start the WebSocket house server",
	Long: `Start a WebSocket server that plays the house for live rounds.

Every connection gets its own house: it deals assignments, decides outcomes
and tracks the auto-bet strategy and stop limits for that client.

Endpoints:
  /ws      - WebSocket game channel
  /health  - Health check

Examples:
  scratch relay                 # Listen on :8080
  scratch relay --addr :9000
  scratch relay --odds tight    # Lose more often`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&flagRelayAddr, "addr", ":8080", "HTTP listen address (host:port)")
}

func runRelay(cmd *cobra.Command, _ []string) error {
	game, err := loadGameConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var houses atomic.Int64
	srv := relay.NewServer(func() *relay.House {
		n := houses.Add(1)
		return relay.NewHouse(relay.HouseConfig{
			GridSize:        game.GridSize,
			Catalog:         game.CatalogKeys(),
			Paytable:        game.PaytableKeys(),
			LoseProbability: game.Demo.LoseProbability,
			Rand:            rand.New(rand.NewSource(seed + n)),
			Logger:          logger.With("house", n),
		})
	}, logger)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              flagRelayAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting relay server", "address", flagRelayAddr, "grid", game.GridSize)
		fmt.Printf("Relay listening on %s (ws://localhost:%s/ws)\n", flagRelayAddr, portOf(flagRelayAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down relay server", "connections", srv.Connections())
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// portOf returns the port part of a listen address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
