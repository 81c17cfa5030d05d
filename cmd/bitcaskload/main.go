// Command bitcaskload is a churn-heavy load generator: concurrent
// goroutines set, delete, and reset a shared key universe against one
// database, useful for exercising rotation and merge under contention.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"bitcask"
)

const (
	// Fixed universe.
	totalKeys   = 100
	totalValues = 100

	// Per-cycle behavior.
	keysPerCycleWrite  = 20
	keysPerCycleDelete = 10

	sleepBetweenCycles = 10 * time.Millisecond
	progressEvery      = 500
)

func main() {
	dir := flag.String("db", "./loadtest-data", "database directory")
	concurrency := flag.Int("workers", 6, "number of concurrent workers")
	cycles := flag.Int("cycles", 5000, "cycles per worker")
	mergeEvery := flag.Int("merge-every", 1000, "cycles between Merge calls (0 disables)")
	flag.Parse()

	start := time.Now()
	fmt.Println("starting bitcask churn-heavy load generator")

	db, err := bitcask.Open(*dir)
	if err != nil {
		fmt.Println("open error:", err)
		return
	}
	defer db.Close()

	cdb := bitcask.NewConcurrent(db)

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, cdb, keys, values, *cycles, *mergeEvery)
		}(i)
	}
	wg.Wait()

	fmt.Printf("load finished in %v\n", time.Since(start))
}

func runWorker(id int, db *bitcask.Concurrent, keys, values []string, cycles, mergeEvery int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for cycle := 1; cycle <= cycles; cycle++ {
		for i := 0; i < keysPerCycleWrite; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]
			if err := db.Put([]byte(key), []byte(val)); err != nil {
				fmt.Printf("[worker %d] put error: %v\n", id, err)
				return
			}
		}

		for i := 0; i < keysPerCycleDelete; i++ {
			key := keys[rng.Intn(len(keys))]
			if err := db.Delete([]byte(key)); err != nil && err != bitcask.ErrKeyNotFound {
				fmt.Printf("[worker %d] delete error: %v\n", id, err)
				return
			}
		}

		for i := 0; i < keysPerCycleWrite/2; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]
			if err := db.Put([]byte(key), []byte(val)); err != nil {
				fmt.Printf("[worker %d] rewrite error: %v\n", id, err)
				return
			}
		}

		if mergeEvery > 0 && cycle%mergeEvery == 0 {
			if err := db.Merge(); err != nil {
				fmt.Printf("[worker %d] merge error: %v\n", id, err)
				return
			}
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles\n", id, cycle)
		}

		if sleepBetweenCycles > 0 {
			time.Sleep(sleepBetweenCycles)
		}
	}
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i)
	}
	return values
}
