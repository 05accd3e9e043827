// Package config wires viper defaults for every tunable the resolver and
// CLI expose. All knobs are read once at startup and passed to constructors;
// nothing reads the environment at lookup time.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Source identifiers accepted in the priority list.
const (
	SourceGoogleBooks = "googlebooks"
	SourceOpenLibrary = "openlibrary"
	SourceWorldCat    = "worldcat"
)

// InitConfig installs defaults. The priority order ships as Google Books
// first; it is configuration, not architecture, so a config file or flag can
// reorder it freely.
func InitConfig() {
	viper.SetDefault("sources.priority", []string{SourceGoogleBooks, SourceOpenLibrary, SourceWorldCat})
	viper.SetDefault("sources.timeout", "8s")

	viper.SetDefault("cache.capacity", 250)
	viper.SetDefault("cache.ttl", "24h")

	viper.SetDefault("match.title_threshold", 0.65)
	viper.SetDefault("match.author_threshold", 0.55)

	viper.SetDefault("datastore.dbfile", "")
	viper.SetDefault("datastore.datasette_url", "")
}

// SourcePriority returns the configured adapter order.
func SourcePriority() []string {
	return viper.GetStringSlice("sources.priority")
}

// SourceTimeout returns the per-source call budget.
func SourceTimeout() time.Duration {
	return viper.GetDuration("sources.timeout")
}

// CacheCapacity returns the per-cache entry bound.
func CacheCapacity() int {
	return viper.GetInt("cache.capacity")
}

// CacheTTL returns the cache entry time-to-live.
func CacheTTL() time.Duration {
	return viper.GetDuration("cache.ttl")
}

// TitleThreshold returns the minimum title similarity for a search match.
func TitleThreshold() float64 {
	return viper.GetFloat64("match.title_threshold")
}

// AuthorThreshold returns the minimum author similarity for a search match.
func AuthorThreshold() float64 {
	return viper.GetFloat64("match.author_threshold")
}

// GoogleBooksAPIKey returns the optional API key for Google Books.
func GoogleBooksAPIKey() string {
	return viper.GetString("googlebooks.apikey")
}
