// Command gendata writes synthetic summary and transaction log files so the
// monitor can be exercised without a live feed.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"ksdmon/internal/gen"
	"ksdmon/internal/ksdlog"
)

func main() {
	var (
		dir     = flag.String("dir", "test_data", "directory to write log files into")
		at      = flag.String("at", "", "minute to generate for, YYYYMMDDHHmm (default now)")
		minutes = flag.Int("minutes", 1, "number of consecutive minutes to generate, ending at -at")
		seed    = flag.Int64("seed", 0, "random seed (0 = time-based)")
	)
	flag.Parse()

	end := time.Now()
	if *at != "" {
		var err error
		end, err = time.ParseInLocation("200601021504", *at, time.Local)
		if err != nil {
			log.Fatalf("bad -at %q: want YYYYMMDDHHmm", *at)
		}
	}
	if *minutes < 1 {
		log.Fatalf("-minutes must be positive")
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	}
	g := gen.New(*dir, rng)

	end = end.Truncate(time.Minute)
	for i := *minutes - 1; i >= 0; i-- {
		minute := end.Add(-time.Duration(i) * time.Minute)
		created, err := g.Generate(minute)
		if err != nil {
			log.Fatalf("generate %s: %v", ksdlog.MinuteKey(minute), err)
		}
		for _, name := range created {
			log.Printf("wrote %s", name)
		}
	}
}
