package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
)

func cmdGet(ctx context.Context, out, errOut *os.File, args []string) int {
	fs, dataDir := commonFlags("get", errOut)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "spacectl get: expected exactly one capsule id")
		return 1
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "spacectl get: invalid capsule id: %v\n", err)
		return 1
	}

	store, err := openStore(ctx, *dataDir)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl get: failed to open store: %v\n", err)
		return 1
	}
	defer store.Close()

	data, err := store.ReadCapsule(id)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl get: %v\n", err)
		return 1
	}

	if _, err := out.Write(data); err != nil {
		fmt.Fprintf(errOut, "spacectl get: %v\n", err)
		return 1
	}
	return 0
}
