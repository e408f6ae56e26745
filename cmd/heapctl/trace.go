package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/heapkit/heapkit/heap"
)

func init() {
	rootCmd.AddCommand(newTraceCmd())
}

func newTraceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace",
		Short: "Replay a scripted scenario with free-list dumps",
		Long: `The trace command walks the process-wide allocator through a small
scripted scenario and prints the free list after every step, then the exit
statistics block. MALLOCVERBOSE=NO suppresses the statistics.

This mirrors the classic allocator smoke test: allocate, observe the split,
free, observe the blocks coalesce back together.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace()
		},
	}
}

func runTrace() error {
	dump := func(label string) error {
		printInfo("%s\n", label)
		return heap.DumpFreeList(os.Stdout)
	}

	if err := dump("Before any allocation"); err != nil {
		return err
	}

	p := heap.Malloc(8)
	if err := dump("After malloc(8)"); err != nil {
		return err
	}

	q := heap.Malloc(64)
	r := heap.Malloc(64)
	if err := dump("After two malloc(64)"); err != nil {
		return err
	}

	heap.Free(q)
	if err := dump("After freeing the middle block"); err != nil {
		return err
	}

	heap.Free(r)
	heap.Free(p)
	if err := dump("After freeing the rest"); err != nil {
		return err
	}

	heap.AtExit()
	return nil
}
