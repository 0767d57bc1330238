// Command p2pctl manages NI-P2P streams and the driver's link path
// validation override from the command line.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap/zapcore"

	"github.com/srediag/nip2p-go/internal/logging"
	"github.com/srediag/nip2p-go/pkg/native"
	"github.com/srediag/nip2p-go/pkg/p2p"
	"github.com/srediag/nip2p-go/pkg/p2p/p2ptest"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return 0
	}

	switch args[0] {
	case "override":
		return runOverride(args[1:], stdout, stderr)
	case "stream":
		return runStream(args[1:], stdout, stderr)
	case "watch":
		return runWatch(args[1:], stdout, stderr)
	case "states":
		return runStates(stdout)
	case "version":
		fmt.Fprintln(stdout, version)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  p2pctl override set [-value=true] [-ini path]")
	fmt.Fprintln(w, "  p2pctl override clear [-ini path]")
	fmt.Fprintln(w, "  p2pctl override show [-ini path]")
	fmt.Fprintln(w, "  p2pctl stream -writer N -reader M [-enable] [-flush-timeout 250ms] [-lib path] [-sim]")
	fmt.Fprintln(w, "  p2pctl watch -writer N -reader M [-listen :8086] [-lib path] [-sim]")
	fmt.Fprintln(w, "  p2pctl states")
	fmt.Fprintln(w, "  p2pctl version")
}

// endpointFlag parses a 32-bit endpoint id, rejecting wider values.
type endpointFlag p2p.Endpoint

func (e *endpointFlag) String() string { return strconv.FormatUint(uint64(*e), 10) }

func (e *endpointFlag) Set(v string) error {
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return fmt.Errorf("endpoint id must be an unsigned 32-bit integer: %w", err)
	}
	*e = endpointFlag(n)
	return nil
}

// driverFlags are shared by the commands that talk to the driver.
type driverFlags struct {
	lib      string
	sim      bool
	logLevel zapcore.Level
}

func (d *driverFlags) register(fs *flag.FlagSet, cfg *p2p.Config) {
	d.logLevel = logging.Level()
	fs.StringVar(&d.lib, "lib", cfg.LibraryPath, "path to the NI-P2P driver library")
	fs.BoolVar(&d.sim, "sim", false, "use the in-process simulated driver")
	fs.Var(&d.logLevel, "log-level", "log level (debug, info, warn, error)")
}

// open returns the selected driver and a function releasing it.
func (d *driverFlags) open() (p2p.Driver, func() error, error) {
	logging.SetLevel(d.logLevel)
	if d.sim {
		return p2ptest.NewDriver(), func() error { return nil }, nil
	}
	lib, err := native.Open(d.lib)
	if err != nil {
		return nil, nil, err
	}
	return lib, lib.Close, nil
}

func runStates(stdout io.Writer) int {
	for _, s := range p2p.States() {
		fmt.Fprintf(stdout, "%d\t%s\t%s\n", uint32(s), s, s.Name())
	}
	return 0
}
