package main

import (
	"context"
	"fmt"
	"os"
)

func cmdGC(ctx context.Context, out, errOut *os.File, args []string) int {
	fs, dataDir := commonFlags("gc", errOut)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	store, err := openStore(ctx, *dataDir)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl gc: failed to open store: %v\n", err)
		return 1
	}
	defer store.Close()

	reclaimed, err := store.GarbageCollect()
	if err != nil {
		fmt.Fprintf(errOut, "spacectl gc: %v\n", err)
		return 1
	}

	fmt.Fprintf(out, "reclaimed %d segments\n", reclaimed)
	return 0
}
