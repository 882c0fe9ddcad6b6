package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
)

func cmdRm(ctx context.Context, out, errOut *os.File, args []string) int {
	fs, dataDir := commonFlags("rm", errOut)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "spacectl rm: expected exactly one capsule id")
		return 1
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "spacectl rm: invalid capsule id: %v\n", err)
		return 1
	}

	store, err := openStore(ctx, *dataDir)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl rm: failed to open store: %v\n", err)
		return 1
	}
	defer store.Close()

	if err := store.DeleteCapsule(id); err != nil {
		fmt.Fprintf(errOut, "spacectl rm: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, "deleted", id.String())
	return 0
}
