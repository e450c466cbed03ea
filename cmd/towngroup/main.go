package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	filestore "villagemap/internal/adapter/store/file"
	"villagemap/internal/domain/town"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("towngroup: %v", err)
	}
}

// run regroups a town file into fixed-size chunks and rewrites it in place
// (or to -out). Legacy flat house lists are converted on load.
func run(args []string, stdout io.Writer) error {
	fset := flag.NewFlagSet("towngroup", flag.ContinueOnError)
	chunkSize := fset.Int("chunk-size", town.DefaultChunkSize, "chunk edge length in grid units")
	outPath := fset.String("out", "", "output path (defaults to rewriting the input)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return errors.New("usage: towngroup [--chunk-size N] [--out path] towns/<name>.json")
	}
	if *chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", *chunkSize)
	}
	in := fset.Arg(0)
	if *outPath == "" {
		*outPath = in
	}

	ctx := context.Background()
	src, srcName, err := storeFor(in)
	if err != nil {
		return err
	}
	doc, err := src.Load(ctx, srcName)
	if err != nil {
		return err
	}
	doc.GroupLegacy(*chunkSize)

	dst, dstName, err := storeFor(*outPath)
	if err != nil {
		return err
	}
	if _, err := dst.Save(ctx, dstName, doc); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Grouped %d houses into %d chunks in %s\n", town.CountHouses(doc), nonEmptyChunks(doc), *outPath)
	return nil
}

func storeFor(path string) (filestore.TownStore, string, error) {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), ".json") {
		return filestore.TownStore{}, "", fmt.Errorf("town file must be .json: %s", path)
	}
	return filestore.TownStore{Dir: filepath.Dir(path)}, strings.TrimSuffix(base, filepath.Ext(base)), nil
}

func nonEmptyChunks(doc *town.Document) int {
	n := 0
	for _, entry := range doc.HousesByChunk {
		if entry != nil && len(entry.Houses) > 0 {
			n++
		}
	}
	return n
}
