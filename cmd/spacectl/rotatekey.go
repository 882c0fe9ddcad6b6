package main

import (
	"context"
	"fmt"
	"os"
)

func cmdRotateKey(ctx context.Context, out, errOut *os.File, args []string) int {
	fs, dataDir := commonFlags("rotate-key", errOut)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	store, err := openStore(ctx, *dataDir)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl rotate-key: failed to open store: %v\n", err)
		return 1
	}
	defer store.Close()

	version, err := store.RotateKey()
	if err != nil {
		fmt.Fprintf(errOut, "spacectl rotate-key: %v\n", err)
		return 1
	}

	fmt.Fprintf(out, "now writing with key version %d\n", version)
	return 0
}
