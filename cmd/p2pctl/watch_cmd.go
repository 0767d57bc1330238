package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/srediag/nip2p-go/internal/logging"
	"github.com/srediag/nip2p-go/pkg/health"
	"github.com/srediag/nip2p-go/pkg/p2p"
)

const shutdownTimeout = 5 * time.Second

// runWatch keeps a stream enabled and serves its health until interrupted.
func runWatch(args []string, stdout, stderr io.Writer) int {
	cfg, err := p2p.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("p2pctl watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var df driverFlags
	df.register(fs, cfg)
	var writer, reader endpointFlag
	fs.Var(&writer, "writer", "writer endpoint id")
	fs.Var(&reader, "reader", "reader endpoint id")
	listen := fs.String("listen", ":8086", "address serving /live, /ready and /metrics")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watch(ctx, &df, cfg, p2p.Endpoint(writer), p2p.Endpoint(reader), *listen, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func watch(ctx context.Context, df *driverFlags, cfg *p2p.Config, writer, reader p2p.Endpoint, addr string, stdout io.Writer) (err error) {
	log := logging.Named("p2pctl")

	drv, release, err := df.open()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, release()) }()

	reg := p2p.NewRegistry(drv, p2p.WithConfig(cfg), p2p.WithContext(ctx))
	defer func() { err = multierr.Append(err, reg.DestroyAll()) }()

	s, err := reg.Open(writer, reader)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "stream %d enabled\n", s.Handle())

	mon, err := health.New(reg)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: mon.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info("serving health", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serr := <-errCh:
		if !errors.Is(serr, http.ErrServerClosed) {
			return serr
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
