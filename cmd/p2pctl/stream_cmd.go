package main

import (
	"flag"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/srediag/nip2p-go/pkg/p2p"
)

// runStream walks one stream through create, flush and destroy.
func runStream(args []string, stdout, stderr io.Writer) (code int) {
	cfg, err := p2p.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("p2pctl stream", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var df driverFlags
	df.register(fs, cfg)
	var writer, reader endpointFlag
	fs.Var(&writer, "writer", "writer endpoint id")
	fs.Var(&reader, "reader", "reader endpoint id")
	enable := fs.Bool("enable", true, "enable the stream on creation")
	fs.DurationVar(&cfg.FlushTimeout, "flush-timeout", cfg.FlushTimeout, "flush-and-disable timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := p2p.VerifyConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 2
	}

	drv, release, err := df.open()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := release(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			code = 1
		}
	}()

	s, err := p2p.NewStream(drv, p2p.Endpoint(writer), p2p.Endpoint(reader),
		p2p.WithEnable(*enable), p2p.WithConfig(cfg))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "stream %d created\n", s.Handle())

	err = printState(stdout, s)
	timedOut, ferr := s.FlushAndDisable(cfg.FlushTimeout)
	err = multierr.Append(err, ferr)
	if ferr == nil {
		fmt.Fprintf(stdout, "flushed (timed out: %t)\n", timedOut)
	}
	err = multierr.Append(err, s.Destroy())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "stream destroyed")
	return 0
}

func printState(w io.Writer, s *p2p.Stream) error {
	st, err := s.State()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "stream %d state: %s\n", s.Handle(), st)
	return nil
}
