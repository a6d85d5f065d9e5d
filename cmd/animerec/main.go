// Package main is the animerec CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/assemble"
	"github.com/hyperjump/animerec/internal/catalog"
	"github.com/hyperjump/animerec/internal/cli"
	"github.com/hyperjump/animerec/internal/config"
	"github.com/hyperjump/animerec/internal/lookup"
	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/internal/search"
	"github.com/hyperjump/animerec/internal/server"
	"github.com/hyperjump/animerec/internal/storage"
	"github.com/hyperjump/animerec/internal/watcher"
	"github.com/hyperjump/animerec/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/animerec/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "filter":
		runFilter()
	case "recommend":
		runRecommend()
	case "genres":
		runGenres()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("animerec version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (dropped rows, lookups, requests)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("dataset", cfg.Catalog.Path),
		zap.Bool("lookup_enabled", cfg.Lookup.EnabledOrDefault()),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if n, err := components.Storage.DeleteLookupsBefore(context.Background(), time.Now().Add(-cfg.Lookup.CacheTTL)); err != nil {
		logger.Warn("purge expired lookups failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("purged expired lookups", zap.Int64("count", n))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.WatchOrDefault() {
		engine := components.Engine
		watchSvc := watcher.NewWatcher(
			[]string{cfg.Catalog.Path},
			func(path string) {
				if _, err := engine.Reload(context.Background(), false); err != nil {
					logger.Warn("dataset reload failed, keeping current catalog", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(utils.Named(logger, "watcher")),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Engine, &cfg.Server, utils.Named(logger, "http"))
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// flagArgsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops at the
// first non-flag argument.
func flagArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitList splits a comma-separated flag value, dropping blank items.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildRange returns nil when neither bound was given; a missing bound takes lo or hi.
func buildRange(minVal, maxVal *float64, lo, hi float64) *models.Range {
	if minVal == nil && maxVal == nil {
		return nil
	}
	r := &models.Range{Min: lo, Max: hi}
	if minVal != nil {
		r.Min = *minVal
	}
	if maxVal != nil {
		r.Max = *maxVal
	}
	return r
}

// filterFlags holds the parsed filter sub-command flags. Bounds are nil when not given.
type filterFlags struct {
	genres, types, keyword, sort string
	minRating, maxRating         *float64
	minMembers, maxMembers       *float64
	limit                        int
	enrich                       bool
}

func (f *filterFlags) query() *models.FilterQuery {
	return &models.FilterQuery{
		Genres:       splitList(f.genres),
		Types:        splitList(f.types),
		RatingRange:  buildRange(f.minRating, f.maxRating, 0, 10),
		MembersRange: buildRange(f.minMembers, f.maxMembers, 0, math.MaxInt64),
		Keyword:      f.keyword,
		Sort:         f.sort,
		Limit:        f.limit,
		Enrich:       f.enrich,
	}
}

// optionalFloat is a flag.Value that remembers whether it was set.
type optionalFloat struct{ v **float64 }

func (o optionalFloat) String() string {
	if o.v == nil || *o.v == nil {
		return ""
	}
	return strconv.FormatFloat(**o.v, 'g', -1, 64)
}

func (o optionalFloat) Set(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*o.v = &f
	return nil
}

func runFilter() {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct dataset mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the dataset directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	var ff filterFlags
	fs.StringVar(&ff.genres, "genres", "", "comma-separated genres; a title must carry all of them")
	fs.StringVar(&ff.types, "types", "", "comma-separated title types (TV, Movie, OVA, ...)")
	fs.StringVar(&ff.keyword, "keyword", "", "case-insensitive substring of the title name")
	fs.StringVar(&ff.sort, "sort", "", "sort order: catalog, rating or members (default from config)")
	fs.Var(optionalFloat{&ff.minRating}, "min-rating", "minimum rating")
	fs.Var(optionalFloat{&ff.maxRating}, "max-rating", "maximum rating")
	fs.Var(optionalFloat{&ff.minMembers}, "min-members", "minimum member count")
	fs.Var(optionalFloat{&ff.maxMembers}, "max-members", "maximum member count")
	fs.IntVar(&ff.limit, "limit", 0, "number of results (default from config)")
	fs.BoolVar(&ff.enrich, "enrich", false, "fetch images and synopses")
	_ = fs.Parse(flagArgsReorder(os.Args[2:]))

	format := cli.ParseFormat(*outputFormat)
	q := ff.query()
	var response *models.FilterResponse
	var err error
	if *serverURL != "" {
		response, err = postJSON[models.FilterResponse](*serverURL+"/api/v1/filter", q)
	} else {
		withEngine(*configPath, func(e *search.Engine) {
			response, err = e.Filter(context.Background(), q)
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Filter failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteFilterResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printRecommendUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: animerec recommend [flags] <title> [title...]\n\n")
	fmt.Fprintf(fs.Output(), "Each argument is one seed title; quote titles that contain spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  animerec recommend "Shingeki no Kyojin"
  animerec recommend "Naruto" "Bleach" --limit 5
  animerec recommend --output json "Gintama"
`)
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct dataset mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the dataset directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	limit := fs.Int("limit", 0, "number of recommendations (default from config)")
	enrich := fs.Bool("enrich", false, "fetch images and synopses")
	fs.Usage = func() { printRecommendUsage(fs) }
	_ = fs.Parse(flagArgsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		printRecommendUsage(fs)
		os.Exit(1)
	}

	format := cli.ParseFormat(*outputFormat)
	q := &models.SimilarQuery{Titles: fs.Args(), Limit: *limit, Enrich: *enrich}
	var response *models.RecommendResponse
	var err error
	if *serverURL != "" {
		response, err = postJSON[models.RecommendResponse](*serverURL+"/api/v1/recommend", q)
	} else {
		withEngine(*configPath, func(e *search.Engine) {
			response, err = e.Recommend(context.Background(), q)
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runGenres() {
	fs := flag.NewFlagSet("genres", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct dataset mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the dataset directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	types := fs.Bool("types", false, "list title types instead of genres")
	_ = fs.Parse(os.Args[2:])

	name := "genres"
	if *types {
		name = "types"
	}
	var items []string
	var err error
	if *serverURL != "" {
		var resp *map[string][]string
		resp, err = getJSON[map[string][]string](*serverURL + "/api/v1/" + name)
		if err == nil {
			items = (*resp)[name]
		}
	} else {
		withEngine(*configPath, func(e *search.Engine) {
			if *types {
				items, err = e.Types()
			} else {
				items, err = e.Genres()
			}
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listing %s failed: %v\n", name, err)
		os.Exit(1)
	}
	if err := cli.WriteList(os.Stdout, name, items, cli.ParseFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct dataset mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the dataset directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var st *search.Status
	var err error
	if *serverURL != "" {
		st, err = getJSON[search.Status](*serverURL + "/api/v1/status")
	} else {
		withEngine(*configPath, func(e *search.Engine) {
			st, err = e.Status(context.Background())
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, st, cli.ParseFormat(*outputFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// withEngine loads the config and dataset and runs fn against a fresh engine.
func withEngine(configPath string, fn func(*search.Engine)) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()
	fn(components.Engine)
}

func postJSON[T any](endpoint string, body interface{}) (*T, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse[T](resp)
}

func getJSON[T any](endpoint string) (*T, error) {
	resp, err := http.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse[T](resp)
}

func decodeResponse[T any](resp *http.Response) (*T, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Lookup  lookup.ImageLookup
	Engine  *search.Engine
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var src lookup.ImageLookup = lookup.Nop{}
	if cfg.Lookup.EnabledOrDefault() {
		client := lookup.NewClient(
			lookup.WithHTTPClient(&http.Client{Timeout: cfg.Lookup.Timeout}),
			lookup.WithBaseURL(cfg.Lookup.BaseURL),
			lookup.WithRate(cfg.Lookup.RatePerSecond),
			lookup.WithLogger(utils.Named(logger, "jikan")),
		)
		src = lookup.NewCached(client, cfg.Lookup.CacheSize,
			lookup.WithStore(store),
			lookup.WithTTL(cfg.Lookup.CacheTTL),
			lookup.WithCacheLogger(utils.Named(logger, "lookup")),
		)
	}

	assembler := assemble.New(cfg.Search.ExcludedGenres,
		assemble.WithPlaceholder(cfg.Lookup.PlaceholderURL),
		assemble.WithConcurrency(cfg.Lookup.EnrichConcurrency),
		assemble.WithLogger(logger),
	)
	cache := catalog.NewCache(cfg.Catalog.Path,
		catalog.ReadOptions{Sheet: cfg.Catalog.Sheet},
		catalog.Options{Franchises: cfg.Catalog.Franchises, Logger: utils.Named(logger, "catalog")},
	)
	engine := search.NewEngine(cache, assembler, &cfg.Search,
		search.WithLookup(src),
		search.WithStorage(store),
		search.WithDiskPaths(cfg.Storage.DatabasePath),
		search.WithLogger(logger),
	)
	if _, err := engine.Reload(context.Background(), false); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load catalog %s: %w", cfg.Catalog.Path, err)
	}

	return &Components{
		Storage: store,
		Lookup:  src,
		Engine:  engine,
	}, nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", "config.yaml", "Config file to write")
	dataset := fs.String("dataset", "", "Dataset path (CSV or XLSX)")
	force := fs.Bool("force", false, "Overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*path, *dataset, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *path)
}

// writeDefaultConfig writes a config with every default filled in. A relative
// dataset path is stored with a "./" prefix so it resolves next to the config file.
func writeDefaultConfig(path, dataset string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	cfg := &config.Config{}
	if dataset != "" {
		if !filepath.IsAbs(dataset) && !strings.HasPrefix(dataset, "./") {
			dataset = "./" + filepath.ToSlash(dataset)
		}
		cfg.Catalog.Path = dataset
	}
	config.ApplyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return config.Save(path, cfg)
}

func printUsage() {
	fmt.Println(`animerec - Anime recommendations from a title catalog

Usage:
  animerec server [flags]                   Start the HTTP server
  animerec filter [flags]                   Filter titles by genre, type, rating, members, keyword
  animerec recommend [flags] <title>...     Recommend titles similar to the given ones
  animerec genres [flags]                   List genres (or --types for title types)
  animerec status [flags]                   Show catalog and lookup cache status
  animerec init [--dataset path]            Write a config file with defaults
  animerec version                          Show version
  animerec help                             Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/animerec/config.yaml)
  --debug            Enable debug logging

Common Flags (filter, recommend, genres, status):
  --config string    Config file path (for direct dataset mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to load the dataset directly.
  --output string    Output format: text or json (default: text)

Filter Flags:
  --genres string          Comma-separated genres; titles must carry all of them
  --types string           Comma-separated title types
  --min-rating, --max-rating float
  --min-members, --max-members float
  --keyword string         Substring of the title name (case-insensitive)
  --sort string            catalog, rating or members (default from config)
  --limit int              Number of results (default from config)
  --enrich                 Fetch images and synopses

Recommend Flags:
  --limit int        Number of recommendations (default from config)
  --enrich           Fetch images and synopses

Examples:
  animerec server
  animerec filter --genres Action,Comedy --min-rating 8
  animerec filter --keyword gintama --output json
  animerec recommend "Shingeki no Kyojin" "Death Note"
  animerec genres --types
  animerec status --server ""`)
}
