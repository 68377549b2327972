// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jdfalk/audiobook-asin/internal/cache"
	"github.com/jdfalk/audiobook-asin/internal/calibre"
	"github.com/jdfalk/audiobook-asin/internal/config"
	"github.com/jdfalk/audiobook-asin/internal/localize"
	"github.com/jdfalk/audiobook-asin/internal/metrics"
	"github.com/jdfalk/audiobook-asin/internal/ratelimit"
	"github.com/jdfalk/audiobook-asin/internal/resolver"
	"github.com/jdfalk/audiobook-asin/internal/sources"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var rootDir string
var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audiobook-asin",
	Short: "Resolve Amazon catalog identifiers for audiobooks",
	Long: `Audiobook ASIN resolves the Amazon catalog identifier (ASIN) for
audiobooks from noisy, possibly localized metadata. It queries the Amazon
storefront, the Audible catalog, and Open Library in priority order, walks
localization and fuzzy title variants, and caches every outcome so repeat
lookups cost nothing.`,
}

// lookupCmd resolves a single book given on the command line.
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve the ASIN for one book",
	Long:  `Resolve the ASIN for a single book described by flags. Exhausting all sources is a reported outcome, not an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		author, _ := cmd.Flags().GetString("author")
		lang, _ := cmd.Flags().GetString("language")
		isbn, _ := cmd.Flags().GetString("isbn")
		series, _ := cmd.Flags().GetString("series")
		refresh, _ := cmd.Flags().GetBool("refresh")
		fuzzy, _ := cmd.Flags().GetBool("fuzzy")
		threshold, _ := cmd.Flags().GetFloat64("fuzzy-threshold")
		names, _ := cmd.Flags().GetStringSlice("sources")

		if err := titleOrISBN(title, isbn); err != nil {
			return err
		}

		r, err := newResolver(names)
		if err != nil {
			return err
		}

		q := localize.BookQuery{
			Title: title, Author: author, Language: lang,
			ISBN: isbn, Series: series,
		}
		res, err := r.Resolve(cmd.Context(), q, resolver.Options{
			Fuzzy: fuzzy, Threshold: threshold, Refresh: refresh, Verbose: verbose,
		})
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

// batchCmd resolves every audio file under the library root.
var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Resolve ASINs for every audiobook in a directory tree",
	Long: `Scan a directory tree for audio files, extract a query from each
file's tags and path, and resolve them with a pool of workers. The cache and
per-source rate limits are shared across the pool.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := config.AppConfig.RootDir
		if len(args) == 1 {
			root = args[0]
		}
		if root == "" {
			return fmt.Errorf("root directory not specified")
		}
		workers, _ := cmd.Flags().GetInt("workers")
		if workers == 0 {
			workers = config.AppConfig.Workers
		}
		refresh, _ := cmd.Flags().GetBool("refresh")
		fuzzy, _ := cmd.Flags().GetBool("fuzzy")
		threshold, _ := cmd.Flags().GetFloat64("fuzzy-threshold")
		names, _ := cmd.Flags().GetStringSlice("sources")

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			go serveMetrics(addr)
		}

		r, err := newResolver(names)
		if err != nil {
			return err
		}

		fmt.Printf("Scanning directory: %s\n", root)
		paths, err := resolver.FindBooks(root)
		if err != nil {
			return fmt.Errorf("scan error: %w", err)
		}
		fmt.Printf("Found %d audiobooks\n", len(paths))

		items := r.ResolveBatch(cmd.Context(), paths, workers, resolver.Options{
			Fuzzy: fuzzy, Threshold: threshold, Refresh: refresh, Verbose: verbose,
		}, true)

		resolved, cached, failed := 0, 0, 0
		for _, it := range items {
			switch {
			case it.Err != nil:
				failed++
				if verbose {
					fmt.Printf("  ERROR %s: %v\n", it.Path, it.Err)
				}
			case it.Result != nil && it.Result.Found():
				resolved++
				if it.Result.FromCache {
					cached++
				}
				fmt.Printf("  %s  %s (%s)\n", it.Result.ASIN, it.Path, it.Result.Source)
			case it.Result != nil:
				fmt.Printf("  --------    %s\n", it.Path)
			}
		}
		fmt.Printf("\nResolved %d of %d (%d from cache, %d errors)\n",
			resolved, len(items), cached, failed)
		return nil
	},
}

// writeCmd resolves one book and writes the identifier into calibre.
var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Resolve an ASIN and store it in a calibre library",
	Long:  `Resolve the ASIN for one book and write it into the matching calibre record's amazon identifier field using calibredb.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		author, _ := cmd.Flags().GetString("author")
		lang, _ := cmd.Flags().GetString("language")
		isbn, _ := cmd.Flags().GetString("isbn")
		bookID, _ := cmd.Flags().GetInt("book-id")
		library, _ := cmd.Flags().GetString("library")
		names, _ := cmd.Flags().GetStringSlice("sources")

		if err := titleOrISBN(title, isbn); err != nil {
			return err
		}

		r, err := newResolver(names)
		if err != nil {
			return err
		}
		res, err := r.Resolve(cmd.Context(), localize.BookQuery{
			Title: title, Author: author, Language: lang, ISBN: isbn,
		}, resolver.Options{Verbose: verbose})
		if err != nil {
			return err
		}
		printResult(res)
		if !res.Found() {
			return nil
		}

		client := &calibre.Client{Library: library}
		if bookID == 0 {
			if title == "" {
				return fmt.Errorf("--book-id is required for an ISBN-only write")
			}
			bookID, err = client.FindBookID(cmd.Context(), title, author)
			if err != nil {
				return err
			}
			if bookID == 0 {
				return fmt.Errorf("no calibre book matches %q", title)
			}
		}
		if err := client.SetASIN(cmd.Context(), bookID, res.ASIN); err != nil {
			return err
		}
		fmt.Printf("Wrote %s to calibre book %d\n", res.ASIN, bookID)
		return nil
	},
}

// cacheCmd groups cache maintenance subcommands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the lookup cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached lookup outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		snap := store.Snapshot()
		fmt.Printf("Cache: %s (%d entries)\n", config.AppConfig.CachePath, len(snap))
		for key, e := range snap {
			id := e.ASIN
			if e.Negative() {
				id = "(negative)"
			}
			fmt.Printf("  %-12s %-14s %s  %s\n", id, e.Source,
				e.Timestamp.Format(time.RFC3339), key)
		}
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop expired negative entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		removed, err := store.PruneExpired()
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d expired entries\n", removed)
		return nil
	},
}

// configCmd groups configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or persist the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config.AppConfig
		fmt.Printf("dir:                %s\n", c.RootDir)
		fmt.Printf("cache_path:         %s\n", c.CachePath)
		fmt.Printf("cache_negative_ttl: %s\n", c.CacheNegativeTTL)
		fmt.Printf("min_source_delay:   %s\n", c.MinSourceDelay)
		fmt.Printf("fuzzy:              %t\n", c.Fuzzy)
		fmt.Printf("fuzzy_threshold:    %.2f\n", c.FuzzyThreshold)
		fmt.Printf("workers:            %d\n", c.Workers)
		fmt.Printf("language:           %s\n", c.Language)
		fmt.Printf("log_level:          %s\n", c.LogLevel)
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the effective configuration next to the cache",
	Long:  `Write the effective configuration (flags, environment, and defaults merged) to a config file next to the cache, so later runs pick it up without flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveConfigToFile(); err != nil {
			return err
		}
		fmt.Printf("Saved configuration to %s\n", config.ConfigFilePath())
		return nil
	},
}

// titleOrISBN checks the minimal lookup input: an ISBN alone is a valid
// query, the bibliographic adapter resolves it directly.
func titleOrISBN(title, isbn string) error {
	if title == "" && isbn == "" {
		return fmt.Errorf("either --title or --isbn is required")
	}
	return nil
}

// printResult renders one lookup outcome for the terminal.
func printResult(res *resolver.LookupResult) {
	if res.Found() {
		origin := string(res.Source)
		if res.FromCache {
			origin = "cache"
		}
		fmt.Printf("ASIN: %s (source: %s, confidence: %.2f, %s)\n",
			res.ASIN, origin, res.Confidence, res.Elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("No ASIN found after %d attempts (%s)\n",
			len(res.Attempts), res.Elapsed.Round(time.Millisecond))
	}
	if verbose {
		for _, a := range res.Attempts {
			fmt.Printf("  [%s] %s -> %s\n", a.Source, a.Variant, a.Outcome)
		}
	}
}

// newResolver builds the resolver with the configured sources in priority
// order, optionally filtered by name.
func newResolver(names []string) (*resolver.Resolver, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	ctl := ratelimit.New(config.AppConfig.MinSourceDelay, ratelimit.DefaultRetryPolicy())

	all := []sources.Source{
		sources.NewAmazonSource(sources.NewHTTPFetcher()),
		sources.NewAudibleSource(),
		sources.NewOpenLibrarySource(),
	}
	if len(names) == 0 {
		return resolver.New(store, ctl, all...), nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var picked []sources.Source
	for _, s := range all {
		if want[string(s.Kind())] {
			picked = append(picked, s)
		}
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("no known sources in %v (valid: amazon, audible, openlibrary)", names)
	}
	return resolver.New(store, ctl, picked...), nil
}

func openStore() (*cache.Store, error) {
	store, err := cache.Open(config.AppConfig.CachePath, config.AppConfig.CacheNegativeTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Printf("Warning: metrics listener failed: %v\n", err)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.audiobook-asin.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", "", "root directory containing audiobooks")
	rootCmd.PersistentFlags().String("cache", "", "path to the lookup cache (default <dir>/.asin-cache.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print per-attempt diagnostics")

	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("cache_path", rootCmd.PersistentFlags().Lookup("cache"))

	for _, c := range []*cobra.Command{lookupCmd, batchCmd, writeCmd} {
		c.Flags().String("language", "", "book language hint (BCP 47 or MARC code)")
		c.Flags().StringSlice("sources", nil, "restrict lookup to these sources (amazon, audible, openlibrary)")
	}
	for _, c := range []*cobra.Command{lookupCmd, batchCmd} {
		c.Flags().Bool("refresh", false, "bypass the cache and re-query sources")
		c.Flags().Bool("fuzzy", false, "append fuzzy title/author variants to the search")
		c.Flags().Float64("fuzzy-threshold", resolver.DefaultThreshold, "minimum match confidence to accept a candidate")
	}
	for _, c := range []*cobra.Command{lookupCmd, writeCmd} {
		c.Flags().String("title", "", "book title as tagged or on disk")
		c.Flags().String("author", "", "book author")
		c.Flags().String("isbn", "", "ISBN for direct identifier lookup")
	}
	lookupCmd.Flags().String("series", "", "series name hint")

	batchCmd.Flags().Int("workers", 0, "number of concurrent lookups (default from config)")
	batchCmd.Flags().String("metrics-addr", "", "expose Prometheus metrics on this address while the batch runs")

	writeCmd.Flags().Int("book-id", 0, "calibre book id (default: search by title/author)")
	writeCmd.Flags().String("library", "", "path to the calibre library")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".audiobook-asin")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()
	if err := config.LoadConfigFromFile(); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
	metrics.Register()
}
