package main

import (
	"math/rand"
	"sync"
	"time"
	"unsafe"

	sigar "github.com/cloudfoundry/gosigar"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/heapkit/heapkit/heap/alloc"
)

var (
	benchOps     int
	benchMaxSize int
	benchSeed    int64
	benchWorkers int
	benchSlab    int64
	benchChecks  bool
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchOps, "ops", 1_000_000, "Operations per worker")
	cmd.Flags().IntVar(&benchMaxSize, "max-size", 4096, "Largest request size in bytes")
	cmd.Flags().Int64Var(&benchSeed, "seed", 1, "Workload seed")
	cmd.Flags().IntVar(&benchWorkers, "workers", 1, "Concurrent workers")
	cmd.Flags().Int64Var(&benchSlab, "slab-size", alloc.Slabsize, "Slab payload in bytes")
	cmd.Flags().BoolVar(&benchChecks, "checks", false, "Enable metadata sanity checks")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run a randomized malloc/free workload",
		Long: `The bench command hammers a private allocator instance with a
randomized malloc/free/realloc mix and reports throughput, allocator
statistics and system memory.

Example:
  heapctl bench --ops 2000000 --max-size 8192 --workers 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

func runBench() error {
	setts := alloc.Defaultsettings()
	setts["slabsize"] = benchSlab
	setts["verbose"] = false
	setts["checks"] = benchChecks
	a := alloc.New(setts)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < benchWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			benchWorker(a, rand.New(rand.NewSource(benchSeed+int64(w))))
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	total := uint64(benchOps) * uint64(benchWorkers)
	rate := float64(total) / elapsed.Seconds()
	printInfo("%s ops in %v (%s ops/s)\n",
		humanize.Comma(int64(total)), elapsed.Round(time.Millisecond),
		humanize.CommafWithDigits(rate, 0))
	printInfo("%s", a.Stats().Report())

	mem := sigar.Mem{}
	if err := mem.Get(); err == nil {
		printInfo("system:    %s used of %s\n",
			humanize.IBytes(mem.Used), humanize.IBytes(mem.Total))
	}
	return nil
}

// benchWorker keeps a window of live allocations and churns through it.
func benchWorker(a *alloc.Allocator, rng *rand.Rand) {
	live := make([]unsafe.Pointer, 0, 256)
	for i := 0; i < benchOps; i++ {
		switch {
		case len(live) == 0 || (rng.Intn(2) == 0 && len(live) < cap(live)):
			if p := a.Malloc(1 + rng.Intn(benchMaxSize)); p != nil {
				live = append(live, p)
			}
		case rng.Intn(8) == 0:
			j := rng.Intn(len(live))
			if p := a.Realloc(live[j], 1+rng.Intn(benchMaxSize)); p != nil {
				live[j] = p
			}
		default:
			j := rng.Intn(len(live))
			a.Free(live[j])
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	for _, p := range live {
		a.Free(p)
	}
}
