package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iamNilotpal/capsule/pkg/options"
)

func cmdPut(ctx context.Context, out, errOut *os.File, args []string) int {
	fs, dataDir := commonFlags("put", errOut)
	file := fs.String("file", "", "Path of the file to write as a capsule (required)")
	compression := fs.String("compression", "lz4", "Compression codec: none|lz4|zstd")
	level := fs.Int("level", 1, "Compression level")
	noDedupe := fs.Bool("no-dedupe", false, "Disable dedup for this write")
	encrypt := fs.Bool("encrypt", false, "Encrypt this capsule with XTS-AES-256")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *file == "" {
		fmt.Fprintln(errOut, "spacectl put: --file is required")
		return 1
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl put: %v\n", err)
		return 1
	}

	store, err := openStore(ctx, *dataDir)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl put: failed to open store: %v\n", err)
		return 1
	}
	defer store.Close()

	policy := options.DefaultPolicy()
	policy.Compression = options.Compression{Kind: options.CompressionKind(*compression), Level: *level}
	policy.Dedupe = !*noDedupe
	if *encrypt {
		policy.Encryption = options.Encryption{Kind: options.EncryptionXtsAes256}
	}

	id, err := store.WriteCapsule(data, policy)
	if err != nil {
		fmt.Fprintf(errOut, "spacectl put: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, id.String())
	return 0
}
