package tacticore

import (
	"github.com/maxts0gt/tacticore/puzzle"
	"github.com/maxts0gt/tacticore/search"
	"github.com/maxts0gt/tacticore/tactics"
)

// Config wires the component configurations together.
type Config struct {
	Search    search.Config          `json:"search"`
	Detector  tactics.Config         `json:"detector"`
	Generator puzzle.GeneratorConfig `json:"generator"`

	// CacheSize bounds the puzzle cache.
	CacheSize int `json:"cache_size"`

	// RatingKey and CacheKey are the store keys for persisted state.
	RatingKey string `json:"rating_key"`
	CacheKey  string `json:"cache_key"`
}

// DefaultConfig returns the assembled component defaults.
func DefaultConfig() Config {
	return Config{
		Search:    search.DefaultConfig(),
		Detector:  tactics.DefaultConfig(),
		Generator: puzzle.DefaultGeneratorConfig(),
		CacheSize: 100,
		RatingKey: "rating_state",
		CacheKey:  "puzzle_cache",
	}
}

// IsValid checks every component config.
func (c Config) IsValid() bool {
	return c.Search.IsValid() && c.Detector.IsValid() && c.Generator.IsValid() &&
		c.CacheSize > 0 && c.RatingKey != "" && c.CacheKey != "" &&
		c.RatingKey != c.CacheKey
}
