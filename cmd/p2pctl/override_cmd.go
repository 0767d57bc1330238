package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/srediag/nip2p-go/pkg/linkpath"
)

func runOverride(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	sub := args[0]

	fs := flag.NewFlagSet("p2pctl override "+sub, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var iniPath string
	var value bool
	fs.StringVar(&iniPath, "ini", "", "INI file to use instead of the platform store")
	if sub == "set" {
		fs.BoolVar(&value, "value", true, "true skips link path validation")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	store, err := overrideStore(iniPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch sub {
	case "set":
		err = store.Set(value)
	case "clear":
		err = store.Clear()
	case "show":
		var skip, present bool
		skip, present, err = store.Get()
		if err == nil {
			if present {
				fmt.Fprintf(stdout, "%s=%t\n", linkpath.ItemName, skip)
			} else {
				fmt.Fprintf(stdout, "%s not set\n", linkpath.ItemName)
			}
		}
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", sub)
		printUsage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func overrideStore(iniPath string) (linkpath.Store, error) {
	if iniPath != "" {
		return linkpath.NewINIStore(iniPath), nil
	}
	return linkpath.Default()
}
