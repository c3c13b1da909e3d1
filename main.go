package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"

	"github.com/jgraeger/contentfeeds/internal/config"
	"github.com/jgraeger/contentfeeds/internal/newsroom"
	"github.com/jgraeger/contentfeeds/internal/search"
	"github.com/jgraeger/contentfeeds/internal/store/elastic"
	"github.com/jgraeger/contentfeeds/internal/store/memory"
	"github.com/jgraeger/contentfeeds/internal/store/postgres"
)

const (
	exitError       = 1
	exitClientError = 2
)

var (
	configPath   string
	debugFlag    bool
	metricsFlag  bool
	opFlag       string
	idFlag       string
	regionFlag   string
	acronymFlag  string
	languageFlag string
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.BoolVar(&debugFlag, "debug", false, "enable debug logging to the console")
	flag.BoolVar(&metricsFlag, "metrics", false, "write metrics to stderr on exit")
	flag.StringVar(&opFlag, "op", "news", "operation: upcoming-ical, upcoming, event, news, news-region, programme-news, programme-news-json, uses")
	flag.StringVar(&idFlag, "id", "", "event id for -op event")
	flag.StringVar(&regionFlag, "region", "", "GBIF region for -op news-region")
	flag.StringVar(&acronymFlag, "acronym", "", "programme acronym for -op programme-news[-json]")
	flag.StringVar(&languageFlag, "language", "", "language for -op programme-news[-json]")
}

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitError
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("store", cfg.Store.Type).Msg("opening store")
		return exitError
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	svc := newsroom.New(cfg, store, newsroom.NewMetrics(registry), log)

	out, err := execute(ctx, svc)
	if metricsFlag {
		if werr := writeMetrics(os.Stderr, registry); werr != nil {
			log.Warn().Err(werr).Msg("writing metrics")
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if newsroom.IsClientError(err) {
			return exitClientError
		}
		return exitError
	}

	fmt.Fprint(os.Stdout, out)
	return 0
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default()
	}
	return config.Load(configPath)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var w io.Writer = os.Stderr
	if debugFlag || cfg.Log.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if debugFlag {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func openStore(ctx context.Context, cfg *config.Config) (search.Store, func(), error) {
	switch cfg.Store.Type {
	case config.StorePostgres:
		s, err := postgres.Connect(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreMemory:
		s, err := memory.Load(cfg.Store.Fixtures)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		client := elastic.New(cfg.Store.URL, &http.Client{Timeout: cfg.Store.Timeout})
		return client, func() {}, nil
	}
}

func execute(ctx context.Context, svc *newsroom.Service) (string, error) {
	switch opFlag {
	case "upcoming-ical":
		return svc.UpcomingEventsICal(ctx)
	case "upcoming":
		return svc.UpcomingEventsFeed(ctx)
	case "event":
		return svc.EventICal(ctx, idFlag)
	case "news":
		return svc.News(ctx)
	case "news-region":
		return svc.NewsByRegion(ctx, strings.ToUpper(regionFlag))
	case "programme-news":
		return svc.ProgrammeNews(ctx, acronymFlag, languageFlag)
	case "programme-news-json":
		entries, err := svc.ProgrammeNewsJSON(ctx, acronymFlag, languageFlag)
		if err != nil {
			return "", err
		}
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(entries, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case "uses":
		return svc.DataUses(ctx)
	}

	return "", fmt.Errorf("unknown operation %q", opFlag)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
