package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/biblio/internal/bookdata"
	"github.com/lepinkainen/biblio/internal/config"
	"github.com/lepinkainen/biblio/internal/datastore"
	"github.com/lepinkainen/biblio/internal/googlebooks"
	"github.com/lepinkainen/biblio/internal/match"
	"github.com/lepinkainen/biblio/internal/openlibrary"
	"github.com/lepinkainen/biblio/internal/resolver"
	"github.com/lepinkainen/biblio/internal/worldcat"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

var (
	// stdout is swapped in tests to capture command output.
	stdout io.Writer = os.Stdout

	buildResolver = newResolverFromConfig
)

// CLI represents the complete command structure for the biblio application
type CLI struct {
	// Global flags
	Sources []string `help:"Catalog sources in priority order (googlebooks, openlibrary, worldcat)"`
	Timeout string   `help:"Per-source request timeout" default:"8s"`
	Debug   bool     `help:"Enable debug logging"`

	// Datastore flags
	DBFile         string `help:"Path to SQLite database file for resolved records"`
	DatasetteURL   string `help:"Datasette base URL to push resolved records to"`
	DatasetteToken string `help:"Datasette API token"`

	Lookup LookupCmd `cmd:"" help:"Resolve book metadata for an ISBN"`
	Search SearchCmd `cmd:"" help:"Resolve book metadata by title and author"`
	Enrich EnrichCmd `cmd:"" help:"Resolve an ISBN against all sources and merge the results"`
}

// LookupCmd resolves a single ISBN through the source waterfall.
type LookupCmd struct {
	ISBN   string `arg:"" help:"ISBN-10 or ISBN-13, hyphens and spaces allowed"`
	Title  string `short:"t" help:"Title hint used for a search fallback when no source knows the ISBN"`
	Author string `short:"a" help:"Author hint for the search fallback"`
}

// SearchCmd resolves by fuzzy title/author match.
type SearchCmd struct {
	Title  string `arg:"" help:"Book title to search for"`
	Author string `short:"a" help:"Author name to narrow the match"`
}

// EnrichCmd queries every source concurrently and merges fields by priority.
type EnrichCmd struct {
	ISBN string `arg:"" help:"ISBN-10 or ISBN-13, hyphens and spaces allowed"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("biblio"),
		kong.Description("Resolve book metadata from library catalog APIs."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)
	if cli.Debug {
		initLogging(true)
	}

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	config.InitConfig()

	viper.AutomaticEnv()
	if err := viper.BindEnv("googlebooks.apikey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	// Missing config file is fine, the defaults cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}
}

func updateGlobalConfig(cli *CLI) {
	if len(cli.Sources) > 0 {
		viper.Set("sources.priority", cli.Sources)
	}
	if cli.Timeout != "" {
		viper.Set("sources.timeout", cli.Timeout)
	}
	if cli.DBFile != "" {
		viper.Set("datastore.dbfile", cli.DBFile)
	}
	if cli.DatasetteURL != "" {
		viper.Set("datastore.datasette_url", cli.DatasetteURL)
		viper.Set("datastore.datasette_token", cli.DatasetteToken)
	}
}

// newResolverFromConfig assembles the source clients named in
// sources.priority and hands them to the resolver in that order.
func newResolverFromConfig() (*resolver.Resolver, error) {
	timeout := config.SourceTimeout()
	capacity := config.CacheCapacity()
	ttl := config.CacheTTL()

	var sources []bookdata.Source
	for _, name := range config.SourcePriority() {
		switch name {
		case config.SourceGoogleBooks:
			sources = append(sources, googlebooks.New(googlebooks.Options{
				APIKey:        config.GoogleBooksAPIKey(),
				Timeout:       timeout,
				CacheCapacity: capacity,
				CacheTTL:      ttl,
			}))
		case config.SourceOpenLibrary:
			sources = append(sources, openlibrary.New(openlibrary.Options{
				Timeout:       timeout,
				CacheCapacity: capacity,
				CacheTTL:      ttl,
			}))
		case config.SourceWorldCat:
			sources = append(sources, worldcat.New(worldcat.Options{
				Timeout:       timeout,
				CacheCapacity: capacity,
				CacheTTL:      ttl,
			}))
		default:
			return nil, fmt.Errorf("unknown source %q in sources.priority", name)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	return resolver.New(resolver.Config{
		Sources: sources,
		Timeout: timeout,
		Matcher: &match.Matcher{
			TitleThreshold:  config.TitleThreshold(),
			AuthorThreshold: config.AuthorThreshold(),
		},
		TitleCacheCapacity: capacity,
		TitleCacheTTL:      ttl,
	}), nil
}

// Run methods for each command

func (l *LookupCmd) Run() error {
	r, err := buildResolver()
	if err != nil {
		return err
	}

	return emitResult(r.LookupISBNWithHint(context.Background(), l.ISBN, l.Title, l.Author))
}

func (s *SearchCmd) Run() error {
	r, err := buildResolver()
	if err != nil {
		return err
	}

	return emitResult(r.LookupTitle(context.Background(), s.Title, s.Author))
}

func (e *EnrichCmd) Run() error {
	r, err := buildResolver()
	if err != nil {
		return err
	}

	return emitResult(r.LookupISBNEnriched(context.Background(), e.ISBN))
}

// emitResult prints the result as JSON and, for successful lookups, saves
// the record to any configured datastore. A failed lookup is reported
// through the result payload rather than an error so scripts can inspect
// the attempted sources.
func emitResult(result bookdata.LookupResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(stdout, string(out))

	if !result.Success || result.Data == nil {
		return nil
	}

	return saveRecord(datastore.Record{Book: *result.Data, Source: result.Source})
}

func saveRecord(record datastore.Record) error {
	for _, store := range configuredStores() {
		if err := store.Connect(); err != nil {
			return fmt.Errorf("datastore connect failed: %w", err)
		}
		if err := store.SaveRecords([]datastore.Record{record}); err != nil {
			_ = store.Close()
			return fmt.Errorf("datastore save failed: %w", err)
		}
		if err := store.Close(); err != nil {
			return fmt.Errorf("datastore close failed: %w", err)
		}
	}
	return nil
}

func configuredStores() []datastore.Store {
	var stores []datastore.Store
	if dbfile := viper.GetString("datastore.dbfile"); dbfile != "" {
		stores = append(stores, datastore.NewSQLiteStore(dbfile))
	}
	if url := viper.GetString("datastore.datasette_url"); url != "" {
		stores = append(stores, datastore.NewDatasetteClient(url, viper.GetString("datastore.datasette_token")))
	}
	return stores
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
