package app

import (
	"context"
	"errors"
	"fmt"

	"camfusion/internal/config"
	"camfusion/internal/fusion"
	"camfusion/internal/logger"
	"camfusion/internal/pipeline"
	"camfusion/internal/vision"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	camera    *vision.Camera
	detectors []*vision.CascadeDetector
	display   *vision.Display
	manager   *pipeline.Manager
}

// NewApp opens the camera, loads the cascades and wires the fusion loop.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg.ResetLogs {
		for _, name := range logger.LevelFiles {
			if err := log.CleanLogs(name); err != nil {
				return nil, err
			}
		}
	}

	evaluator, err := fusion.NewEvaluator(cfg.Fusion())
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log}

	cascades := map[fusion.Source]string{
		fusion.Primary:       cfg.PrimaryCascade,
		fusion.RangeFiltered: cfg.RangeCascade,
		fusion.HueSpace:      cfg.HueCascade,
	}
	detectors := make([]pipeline.Detector, 0, len(fusion.Sources))
	for _, src := range fusion.Sources {
		d, err := vision.NewCascadeDetector(src, cascades[src])
		if err != nil {
			a.Close()
			return nil, err
		}
		a.detectors = append(a.detectors, d)
		detectors = append(detectors, d)
	}

	a.camera, err = vision.OpenCamera(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.manager, err = pipeline.NewManager(a.camera, detectors, evaluator, cfg.MaxFPS, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.display = vision.NewDisplay(cfg.WindowTitle, cfg.ShowRaw)

	return a, nil
}

// Run captures and fuses on a background goroutine while the display runs on
// the calling one. It returns when the video ends, ctx is cancelled or the
// window is closed.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("🚀 camfusion")
	if a.config.VideoSource != "" {
		a.logger.Info("📹 Source: %s", a.config.VideoSource)
	} else {
		a.logger.Info("📹 Camera: %d", a.config.CameraID)
	}
	a.logger.Info("🤖 Cascades: %s, %s, %s", a.config.PrimaryCascade, a.config.RangeCascade, a.config.HueCascade)
	a.logger.Info("🎯 Window %d, min sources %d, policy %s", a.config.NumFrames, a.config.NumLimCasc, a.config.SelectionPolicy)

	runErr := make(chan error, 1)
	go func() { runErr <- a.manager.Run(ctx) }()

	if err := a.manager.Deliver(ctx, a.display); errors.Is(err, pipeline.ErrStopped) {
		a.logger.Info("Window closed")
		cancel()
		a.manager.Discard()
	}

	err := <-runErr
	stats := a.manager.Stats()
	a.logger.Info("📊 %d frame(s), %d skipped, %d confirmed", stats.Frames, stats.Skipped, stats.Confirmed)
	if err != nil {
		return fmt.Errorf("fusion loop: %w", err)
	}
	return nil
}

// Close releases the camera, the cascades and the window.
func (a *App) Close() {
	if a.display != nil {
		a.display.Close()
	}
	if a.camera != nil {
		a.camera.Close()
	}
	for _, d := range a.detectors {
		d.Close()
	}
}
