// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command malloccli is a small driver for exercising the malloc package
// end to end, the Go-native replacement for the original repo's example
// driver. It is a thin convenience wrapper: all real behavior lives in the
// malloc package itself.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/ivan-guerra/malloc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "malloccli",
		Short: "Exercise the malloc package's region allocator",
	}
	root.AddCommand(newAllocCmd(), newBenchCmd())
	return root
}

func newAllocCmd() *cobra.Command {
	var regionSize, size, alignment uint64
	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Map a region, allocate one block, print its pointer, then free it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := malloc.New(uintptr(regionSize))
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Printf("region size: %d bytes\n", a.RegionSize())

			p, err := a.Alloc(uintptr(size), uintptr(alignment))
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("allocation of %d bytes (align %d) exhausted the region", size, alignment)
			}
			fmt.Printf("allocated %d bytes at %p (usable %d)\n", size, p, a.UsableSize(p))

			return a.Free(p)
		},
	}
	cmd.Flags().Uint64Var(&regionSize, "region-size", 1<<16, "region size in bytes, rounded up to a page")
	cmd.Flags().Uint64Var(&size, "size", 64, "allocation size in bytes")
	cmd.Flags().Uint64Var(&alignment, "alignment", 8, "allocation alignment, must be a power of two")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var regionSize, iterations, maxSize uint64
	var seed int64
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a randomized alloc/free workload and print accounting stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := malloc.New(uintptr(regionSize))
			if err != nil {
				return err
			}
			defer a.Close()

			rng := rand.New(rand.NewSource(seed))
			var live []unsafe.Pointer
			for i := uint64(0); i < iterations; i++ {
				if len(live) > 0 && rng.Intn(3) == 0 {
					idx := rng.Intn(len(live))
					if err := a.Free(live[idx]); err != nil {
						return err
					}
					live = append(live[:idx], live[idx+1:]...)
					continue
				}
				size := uintptr(rng.Intn(int(maxSize)) + 1)
				p, err := a.Malloc(size)
				if err != nil {
					return err
				}
				if p != nil {
					live = append(live, p)
				}
			}
			for _, p := range live {
				if err := a.Free(p); err != nil {
					return err
				}
			}

			stats := a.Stats()
			fmt.Printf("region=%d allocs=%d frees=%d bytes=%d\n", a.RegionSize(), stats.Allocs, stats.Frees, stats.Bytes)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&regionSize, "region-size", 1<<20, "region size in bytes, rounded up to a page")
	cmd.Flags().Uint64Var(&iterations, "iterations", 10000, "number of alloc/free steps to drive")
	cmd.Flags().Uint64Var(&maxSize, "max-size", 256, "maximum allocation size in bytes")
	cmd.Flags().Int64Var(&seed, "seed", 1, "PRNG seed")
	return cmd
}
