package main

import (
	"context"
	"fmt"
	"time"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/quickfind/quickfind/internal/mft"
	"github.com/quickfind/quickfind/internal/volume"
)

// benchCommand runs a one-shot cold-start MFT scan and reports
// throughput, the same measurement original_source/quickfind_bench.c
// takes before a service is installed.
func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "scan the MFT once and report ingest throughput",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "drive", Value: "C"},
			&cli.IntFlag{Name: "chunk-size", Value: 64 * 1024},
		},
		Action: func(c *cli.Context) error {
			drive := c.String("drive")
			if drive == "" {
				return errors.New("bench: --drive must not be empty")
			}
			return runBench(c.Context, drive[0], c.Int("chunk-size"))
		},
	}
}

func runBench(_ context.Context, letter byte, chunkSize int) error {
	vol, err := volume.Open(letter)
	if err != nil {
		return errors.Wrap(err, "open volume")
	}
	defer vol.Close()

	it, err := mft.Open(vol, chunkSize)
	if err != nil {
		return errors.Wrap(err, "open mft iterator")
	}

	start := time.Now()
	var records, bytesScanned int
	for {
		rec, err := it.Advance()
		if err != nil {
			break
		}
		records++
		bytesScanned += len(rec.Name)
	}
	elapsed := time.Since(start)

	fmt.Printf("scanned %d records (%s of names) in %s\n",
		records, units.BytesSize(float64(bytesScanned)), elapsed)
	if elapsed > 0 {
		fmt.Printf("%.0f records/sec\n", float64(records)/elapsed.Seconds())
	}
	return nil
}
