package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"fwtonight/internal/calendar"
	"fwtonight/internal/config"
	"fwtonight/internal/fireworks"
	appLog "fwtonight/internal/log"
	"fwtonight/internal/metrics"
	"fwtonight/internal/model"
	"fwtonight/internal/poller"
	"fwtonight/internal/web"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

// flagConfig holds CLI flag values; set ones override the config file.
type flagConfig struct {
	configPath string
	listen     string
	postcode   string
	lat        float64
	lon        float64
	radius     float64
	once       bool

	set map[string]bool
}

func main() {
	appLog.Info("fwtonight starting", "version", Version)

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	applyFlags(conf, flags)
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"postcode", conf.Postcode,
		"max_distance", conf.MaxDistance,
		"base_url", conf.API.BaseURL,
		"timeout", conf.API.Timeout,
		"once", flags.once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	client := fireworks.NewClient(conf.API.BaseURL,
		fireworks.WithTimeout(conf.API.Timeout),
		fireworks.WithUserAgent(userAgent(conf)),
		fireworks.WithMetrics(m),
	)
	defer client.Close()

	pipeline := fireworks.NewPipeline(client)
	query := fireworks.Query{
		Postcode: conf.Postcode,
		Origin:   model.Coordinate{Latitude: conf.Latitude, Longitude: conf.Longitude},
		RadiusKm: conf.MaxDistance,
	}

	if flags.once {
		if err := runOnce(ctx, pipeline, query); err != nil {
			appLog.Error("failed to write result", err)
			client.Close()
			os.Exit(1)
		}
		return
	}

	today := poller.New("today", func(ctx context.Context) model.EventSet {
		return pipeline.FetchToday(ctx, query)
	}, m)
	week := poller.New("week", func(ctx context.Context) model.EventSet {
		return pipeline.FetchWeek(ctx, query)
	}, m)

	loc := calendar.ResolveLocation(conf.Timezone)
	sched, err := poller.NewScheduler(conf.RefreshCron, loc, today, week)
	if err != nil {
		appLog.Error("failed to create scheduler", err)
		client.Close()
		os.Exit(1)
	}
	if err := sched.Start(ctx); err != nil {
		appLog.Error("failed to start scheduler", err)
		client.Close()
		os.Exit(1)
	}
	defer sched.Stop()

	srv := web.NewServer(conf, today, week, m)
	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		cancel()
	}

	appLog.Info("fwtonight exiting")
}

// runOnce fetches both windows once and prints them as JSON.
func runOnce(ctx context.Context, p *fireworks.Pipeline, q fireworks.Query) error {
	out := struct {
		Today model.EventSet `json:"today"`
		Week  model.EventSet `json:"week"`
	}{
		Today: p.FetchToday(ctx, q),
		Week:  p.FetchWeek(ctx, q),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func userAgent(conf *config.Config) string {
	if conf.API.UserAgent != "" {
		return conf.API.UserAgent
	}
	return "fwtonight/" + Version
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/fwtonight/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.postcode, "postcode", "", "4-digit postcode (overrides config if set)")
	flag.Float64Var(&cfg.lat, "lat", 0, "Home latitude (overrides config if set)")
	flag.Float64Var(&cfg.lon, "lon", 0, "Home longitude (overrides config if set)")
	flag.Float64Var(&cfg.radius, "radius", 0, "Search radius in km (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Fetch today and week once, print JSON and exit")

	flag.Parse()

	cfg.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	return cfg
}

func applyFlags(conf *config.Config, f flagConfig) {
	if f.set["listen"] {
		conf.Listen = f.listen
	}
	if f.set["postcode"] {
		conf.Postcode = f.postcode
	}
	if f.set["lat"] {
		conf.Latitude = f.lat
	}
	if f.set["lon"] {
		conf.Longitude = f.lon
	}
	if f.set["radius"] {
		conf.MaxDistance = f.radius
	}
}
