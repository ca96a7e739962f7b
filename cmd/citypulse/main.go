// Package main provides the citypulse terminal client for the Smart City
// Dashboard backend.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/citypulse/citypulse/internal/api"
	"github.com/citypulse/citypulse/internal/config"
	"github.com/citypulse/citypulse/internal/connectivity"
	"github.com/citypulse/citypulse/internal/dashboard"
	"github.com/citypulse/citypulse/internal/export"
	"github.com/citypulse/citypulse/internal/location"
	"github.com/citypulse/citypulse/internal/search"
	"github.com/citypulse/citypulse/internal/telemetry"
	"github.com/citypulse/citypulse/internal/transport"
	"github.com/citypulse/citypulse/internal/view"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const usage = `citypulse - smart city dashboard client

Usage:
  citypulse [flags] <command> [command flags]

Commands:
  watch      live dashboard for one city with auto-refresh
  search     search metrics, alerts and predictions (-i for a live session)
  suggest    print autocomplete suggestions for a query
  metrics    print recent metric readings for one city
  alerts     print the active alerts for one city
  export     export a snapshot or search results as csv/json
  locations  print the available states and cities

Flags:
  -config    path to a YAML config file (optional)
`

// app bundles the wired clients shared by all commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	api    *api.Client
	search *search.Client
}

func main() {
	flags := flag.NewFlagSet("citypulse", flag.ExitOnError)
	configPath := flags.String("config", "", "path to config file")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "citypulse: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("backend", cfg.Backend.BaseURL).
		Msg("starting citypulse")

	ctx := context.Background()
	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "citypulse",
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	httpClient := transport.New(transport.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.RequestTimeout,
		RateLimit: rate.Limit(cfg.Backend.RateLimit),
		Logger:    logger,
	})

	a := &app{
		cfg:    cfg,
		logger: logger,
		api:    api.New(httpClient, logger),
		search: search.NewClient(httpClient, logger),
	}

	var runErr error
	switch args[0] {
	case "watch":
		runErr = a.runWatch(args[1:])
	case "search":
		runErr = a.runSearch(args[1:])
	case "suggest":
		runErr = a.runSuggest(args[1:])
	case "metrics":
		runErr = a.runMetrics(args[1:])
	case "alerts":
		runErr = a.runAlerts(args[1:])
	case "export":
		runErr = a.runExport(args[1:])
	case "locations":
		runErr = a.runLocations(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "citypulse: unknown command %q\n\n", args[0])
		flags.Usage()
		os.Exit(2)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "citypulse: %v\n", runErr)
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "citypulse").
		Logger()
}

func (a *app) runWatch(args []string) error {
	flags := flag.NewFlagSet("watch", flag.ExitOnError)
	state := flags.String("state", "", "state to watch")
	city := flags.String("city", "", "city to watch")
	interval := flags.Duration("refresh", a.cfg.Backend.RefreshInterval, "auto-refresh interval")
	noAuto := flags.Bool("no-auto", false, "disable auto-refresh")
	_ = flags.Parse(args)

	if *state == "" || *city == "" {
		return fmt.Errorf("watch requires -state and -city")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	picker := location.NewPicker(a.api, a.logger)
	if picker.Load(ctx) {
		fmt.Fprintln(os.Stderr, "note: location directory unavailable, using built-in list")
	}
	if err := picker.SelectState(*state); err != nil {
		return err
	}
	if err := picker.SelectCity(*city); err != nil {
		return err
	}

	ctrl := dashboard.New(dashboard.Config{
		Fetcher:        a.api,
		Interval:       *interval,
		RequestTimeout: a.cfg.Backend.RequestTimeout,
		Logger:         a.logger,
		OnUpdate: func(v dashboard.View) {
			fmt.Println()
			view.RenderDashboard(os.Stdout, v)
		},
	})
	defer ctrl.Close()

	monitor := connectivity.New(connectivity.Config{
		Prober:   a.api,
		Interval: *interval,
		Logger:   a.logger,
		OnChange: ctrl.SetOnline,
	})
	go monitor.Run(ctx)

	ctrl.SetAutoRefresh(!*noAuto)
	ctrl.SetLocation(*state, *city)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info().Msg("stopping watch")
	return nil
}

func (a *app) runSearch(args []string) error {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	q := flags.String("q", "", "search query")
	tab := flags.String("tab", search.TabAll, "result tab: all, metrics, alerts, predictions")
	size := flags.Int("size", a.cfg.Search.Size, "maximum results")
	interactive := flags.Bool("i", false, "interactive session with live suggestions")
	filters, bounds := filterFlags(flags)
	_ = flags.Parse(args)

	if *interactive {
		return a.runInteractiveSearch(*tab)
	}

	f, err := buildFilters(filters, bounds)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backend.RequestTimeout)
	defer cancel()

	bundle, err := a.search.Tab(ctx, *tab, *q, f, *size)
	if err != nil {
		return err
	}

	view.RenderResults(os.Stdout, bundle, *tab)
	return nil
}

// runInteractiveSearch drives a search session from stdin: each typed line
// updates the query and shows suggestions after the quiet period, an empty
// line runs the search, ":q" exits.
func (a *app) runInteractiveSearch(tab string) error {
	sess := search.NewSession(search.SessionConfig{
		Searcher:       a.search,
		Debounce:       a.cfg.Search.Debounce,
		SearchSize:     a.cfg.Search.Size,
		SuggestionSize: a.cfg.Search.SuggestionSize,
		RequestTimeout: a.cfg.Backend.RequestTimeout,
		Logger:         a.logger,
	})
	defer sess.Close()

	fmt.Println("type a query for suggestions, press enter on an empty line to search, :q to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); scanner.Scan(); fmt.Print("> ") {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case ":q":
			return nil
		case "":
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backend.RequestTimeout)
			bundle, err := sess.Search(ctx)
			cancel()
			if err != nil {
				fmt.Printf("search failed: %v\n", err)
				continue
			}
			view.RenderResults(os.Stdout, bundle, tab)
		default:
			sess.Type(line)
			// Wait out the quiet period so the suggestions are current.
			time.Sleep(a.cfg.Search.Debounce + 100*time.Millisecond)
			for _, s := range sess.Suggestions() {
				fmt.Println("  " + s)
			}
		}
	}
	return scanner.Err()
}

func (a *app) runMetrics(args []string) error {
	flags := flag.NewFlagSet("metrics", flag.ExitOnError)
	state := flags.String("state", "", "state")
	city := flags.String("city", "", "city")
	limit := flags.Int("limit", 0, "number of recent readings")
	_ = flags.Parse(args)

	if *state == "" || *city == "" {
		return fmt.Errorf("metrics requires -state and -city")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backend.RequestTimeout)
	defer cancel()

	readings, err := a.api.RecentMetrics(ctx, *state, *city, *limit)
	if err != nil {
		return err
	}
	for _, r := range readings {
		fmt.Printf("%s  traffic %5.1f%%  aqi %5.1f  energy %5.1f%%  (%s)\n",
			r.Timestamp.Format(time.RFC3339), r.Traffic, r.AQI, r.Energy, r.Source)
	}
	return nil
}

func (a *app) runAlerts(args []string) error {
	flags := flag.NewFlagSet("alerts", flag.ExitOnError)
	state := flags.String("state", "", "state")
	city := flags.String("city", "", "city")
	_ = flags.Parse(args)

	if *state == "" || *city == "" {
		return fmt.Errorf("alerts requires -state and -city")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backend.RequestTimeout)
	defer cancel()

	alerts, err := a.api.ActiveAlerts(ctx, *state, *city)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("no active alerts")
		return nil
	}
	for _, al := range alerts {
		fmt.Printf("%s %s [%s] %s\n",
			view.SeverityMarker(al.Severity), al.CreatedAt.Format(time.RFC3339), al.Category, al.Message)
	}
	return nil
}

func (a *app) runSuggest(args []string) error {
	flags := flag.NewFlagSet("suggest", flag.ExitOnError)
	q := flags.String("q", "", "query prefix")
	size := flags.Int("size", a.cfg.Search.SuggestionSize, "maximum suggestions")
	_ = flags.Parse(args)

	if strings.TrimSpace(*q) == "" {
		return fmt.Errorf("suggest requires -q")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backend.RequestTimeout)
	defer cancel()

	for _, s := range a.search.Suggestions(ctx, *q, *size) {
		fmt.Println(s)
	}
	return nil
}

func (a *app) runExport(args []string) error {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	state := flags.String("state", "", "state for a snapshot export")
	city := flags.String("city", "", "city for a snapshot export")
	q := flags.String("q", "", "search query for a search export")
	doSearch := flags.Bool("search", false, "export search results instead of a snapshot")
	format := flags.String("format", "csv", "output format: csv or json")
	outPath := flags.String("o", "", "output file (default stdout)")
	filters, bounds := filterFlags(flags)
	_ = flags.Parse(args)

	if *format != "csv" && *format != "json" {
		return fmt.Errorf("unsupported format %q", *format)
	}

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backend.RequestTimeout)
	defer cancel()

	if *doSearch {
		f, err := buildFilters(filters, bounds)
		if err != nil {
			return err
		}
		bundle, err := a.search.Export(ctx, *q, f, *format)
		if err != nil {
			return err
		}
		if *format == "csv" {
			return export.BundleCSV(out, bundle)
		}
		return export.BundleJSON(out, bundle)
	}

	if *state == "" || *city == "" {
		return fmt.Errorf("snapshot export requires -state and -city")
	}
	snap, err := a.api.Dashboard(ctx, *state, *city)
	if err != nil {
		return err
	}
	if *format == "csv" {
		return export.SnapshotCSV(out, snap)
	}
	return export.SnapshotJSON(out, snap)
}

func (a *app) runLocations(args []string) error {
	flags := flag.NewFlagSet("locations", flag.ExitOnError)
	_ = flags.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Backend.RequestTimeout)
	defer cancel()

	picker := location.NewPicker(a.api, a.logger)
	if picker.Load(ctx) {
		fmt.Fprintln(os.Stderr, "note: location directory unavailable, using built-in list")
	}

	dir := picker.Directory()
	for _, state := range dir.States() {
		fmt.Printf("%s: %s\n", state, strings.Join(dir.Cities(state), ", "))
	}
	return nil
}

// filterCSVFlags and filterBoundFlags carry the raw filter flag values until
// Parse has run.
type filterCSVFlags struct {
	cities, states, severities, categories *string
	dateFrom, dateTo                       *string
}

type filterBoundFlags struct {
	trafficMin, trafficMax *string
	aqiMin, aqiMax         *string
	energyMin, energyMax   *string
}

func filterFlags(flags *flag.FlagSet) (filterCSVFlags, filterBoundFlags) {
	csv := filterCSVFlags{
		cities:     flags.String("cities", "", "comma-separated city filter"),
		states:     flags.String("states", "", "comma-separated state filter"),
		severities: flags.String("severities", "", "comma-separated severity filter (low,medium,high)"),
		categories: flags.String("categories", "", "comma-separated category filter (traffic,pollution,energy)"),
		dateFrom:   flags.String("date-from", "", "start date YYYY-MM-DD"),
		dateTo:     flags.String("date-to", "", "end date YYYY-MM-DD"),
	}
	bounds := filterBoundFlags{
		trafficMin: flags.String("traffic-min", "", "minimum traffic percentage"),
		trafficMax: flags.String("traffic-max", "", "maximum traffic percentage"),
		aqiMin:     flags.String("aqi-min", "", "minimum AQI"),
		aqiMax:     flags.String("aqi-max", "", "maximum AQI"),
		energyMin:  flags.String("energy-min", "", "minimum energy percentage"),
		energyMax:  flags.String("energy-max", "", "maximum energy percentage"),
	}
	return csv, bounds
}

func buildFilters(csv filterCSVFlags, bounds filterBoundFlags) (search.Filters, error) {
	f := search.Filters{
		Cities:     splitList(*csv.cities),
		States:     splitList(*csv.states),
		Severities: splitList(*csv.severities),
		Categories: splitList(*csv.categories),
		DateFrom:   *csv.dateFrom,
		DateTo:     *csv.dateTo,
	}

	var err error
	if f.TrafficMin, err = parseBound("traffic-min", *bounds.trafficMin); err != nil {
		return f, err
	}
	if f.TrafficMax, err = parseBound("traffic-max", *bounds.trafficMax); err != nil {
		return f, err
	}
	if f.AQIMin, err = parseBound("aqi-min", *bounds.aqiMin); err != nil {
		return f, err
	}
	if f.AQIMax, err = parseBound("aqi-max", *bounds.aqiMax); err != nil {
		return f, err
	}
	if f.EnergyMin, err = parseBound("energy-min", *bounds.energyMin); err != nil {
		return f, err
	}
	if f.EnergyMax, err = parseBound("energy-max", *bounds.energyMax); err != nil {
		return f, err
	}
	return f, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBound(name, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s value %q", name, raw)
	}
	return &v, nil
}
