package main

import (
	"context"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/iamNilotpal/capsule"
	"github.com/iamNilotpal/capsule/pkg/options"
)

// commonFlags returns the flags shared by every subcommand that opens a
// store: the data directory override. Each subcommand adds its own flags
// to the returned set.
func commonFlags(name string, errOut *os.File) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	dataDir := fs.String("data-dir", "", "Override the store's data directory")
	return fs, dataDir
}

func openStore(ctx context.Context, dataDir string) (*capsule.Store, error) {
	opts := []options.OptionFunc{}
	if dataDir != "" {
		opts = append(opts, options.WithDataDir(dataDir))
	}
	return capsule.Open(ctx, "spacectl", opts...)
}
