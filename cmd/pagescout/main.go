package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pagescout/pagescout/pkg/agent"
	"github.com/pagescout/pagescout/pkg/app"
	"github.com/pagescout/pagescout/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	maxSteps := flag.Int("max-steps", 0, "step limit for this run (0 = config default)")
	maxPages := flag.Int("max-pages", 0, "page fetch budget for this run (0 = config default)")
	mode := flag.String("mode", "", "strictness mode: minimal, provenance or sku")
	debug := flag.Bool("debug", false, "print tool traces as JSON")
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: pagescout [flags] <prompt>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
	if *debug {
		log = log.Level(zerolog.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runMode, ok := agent.ParseMode(*mode)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	a, closeCache, err := app.Build(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := a.Run(ctx, prompt, agent.RunOptions{MaxSteps: *maxSteps, MaxPagesFetched: *maxPages, Mode: runMode})

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range result.Sources {
			fmt.Printf("- %s (%s)\n", src.Title, src.URL)
		}
	}
	if *debug {
		traces, err := json.MarshalIndent(result.Debug, "", "  ")
		if err == nil {
			fmt.Fprintf(os.Stderr, "\n%s\n", traces)
		}
	}
}
