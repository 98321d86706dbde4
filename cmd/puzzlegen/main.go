// Command puzzlegen batch-generates tactical puzzles and writes them to
// a JSON file. With -store the generated set is also kept as the puzzle
// cache under that directory, ready for a core to load.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/maxts0gt/tacticore/puzzle"
	"github.com/maxts0gt/tacticore/storage"
	"github.com/maxts0gt/tacticore/tactics"
)

var (
	numFlag     = flag.Int("n", 5, "number of puzzles to generate")
	outFlag     = flag.String("out", "puzzles.json", "output JSON path")
	themesFlag  = flag.String("themes", "", "comma-separated preferred themes, e.g. fork,pin")
	ratingFlag  = flag.Int("rating", 1200, "target user rating")
	seedFlag    = flag.Int64("seed", 0, "random seed, clock-seeded when 0")
	depthFlag   = flag.Int("depth", 3, "search depth for candidate probing")
	retriesFlag = flag.Int("retries", 24, "attempts per puzzle before giving up")
	storeFlag   = flag.String("store", "", "optional directory to persist the puzzle cache into")
	cacheKey    = flag.String("cache_key", "puzzle_cache", "store key for the persisted cache")
)

func main() {
	flag.Parse()

	preferred, err := parseThemes(*themesFlag)
	if err != nil {
		log.Fatalf("bad -themes: %v", err)
	}

	conf := puzzle.DefaultGeneratorConfig()
	conf.Seed = *seedFlag
	conf.SearchDepth = *depthFlag
	conf.MaxRetries = *retriesFlag
	gen := puzzle.NewGenerator(conf)
	cache := puzzle.NewCache(maxInt(*numFlag, 1))

	puzzles := make([]*puzzle.Puzzle, 0, *numFlag)
	for i := 0; i < *numFlag; i++ {
		p, err := gen.Generate(context.Background(), *ratingFlag, 0, preferred)
		if err != nil {
			if errors.Cause(err) == puzzle.ErrGenerationExhausted {
				log.Printf("puzzle %d: %v", i+1, err)
				continue
			}
			log.Fatalf("puzzle %d: %v", i+1, err)
		}
		log.Printf("puzzle %d: %s themes=%v rating=%d", i+1, p.ID, p.Themes, p.TargetRating)
		puzzles = append(puzzles, p)
		cache.Put(p)
	}
	if len(puzzles) == 0 {
		log.Fatal("no puzzles generated")
	}

	data, err := json.MarshalIndent(puzzles, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := ioutil.WriteFile(*outFlag, data, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d puzzles to %s", len(puzzles), *outFlag)

	if *storeFlag != "" {
		if err := persistCache(cache, *storeFlag, *cacheKey); err != nil {
			log.Fatal(err)
		}
		log.Printf("persisted cache to %s", *storeFlag)
	}
}

func parseThemes(s string) (tactics.Set, error) {
	set := tactics.NewSet()
	if s == "" {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		th := tactics.Theme(strings.TrimSpace(part))
		if !th.Valid() {
			return nil, errors.Errorf("unknown theme %q", th)
		}
		set[th] = struct{}{}
	}
	return set, nil
}

func persistCache(cache *puzzle.Cache, dir, key string) error {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return err
	}
	data, err := cache.Snapshot()
	if err != nil {
		return err
	}
	return store.Set(key, string(data))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
