// Command camfusion-replay runs recorded detector output through the fusion
// engine and prints one JSON decision per frame.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"camfusion/internal/config"
	"camfusion/internal/fusion"
	"camfusion/internal/logger"
	"camfusion/internal/replay"
)

func main() {
	scriptPath := flag.String("script", "", "JSON-lines detector recording")
	outPath := flag.String("out", "", "Decision output file (default stdout)")
	policy := flag.String("policy", "", "Selection policy override: literal or prefer-exact")
	flag.Parse()

	if *scriptPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fusionCfg := cfg.Fusion()
	if *policy != "" {
		p, err := fusion.ParsePolicy(*policy)
		if err != nil {
			log.Fatalf("Invalid -policy: %v", err)
		}
		fusionCfg.Policy = p
	}

	consoleLogger := logger.NewConsole(os.Stderr)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		consoleLogger.SetLevel(level)
	}

	script, err := replay.Load(*scriptPath)
	if err != nil {
		log.Fatalf("Failed to load script: %v", err)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := replay.Run(ctx, script, fusionCfg, out, consoleLogger)
	if err != nil {
		consoleLogger.Error("Replay failed: %v", err)
		os.Exit(1)
	}
	consoleLogger.Info("📊 %d frame(s), %d confirmed", stats.Frames, stats.Confirmed)
}
