package replay

import (
	"context"
	"fmt"
	"io"

	"camfusion/internal/fusion"
	"camfusion/internal/logger"
	"camfusion/internal/pipeline"
)

// Run plays script through a fresh evaluator built from cfg and writes one
// decision per frame to out.
func Run(ctx context.Context, script Script, cfg fusion.Config, out io.Writer, log *logger.Logger) (pipeline.Stats, error) {
	evaluator, err := fusion.NewEvaluator(cfg)
	if err != nil {
		return pipeline.Stats{}, err
	}
	manager, err := pipeline.NewManager(NewSource(script), Detectors(), evaluator, 0, log)
	if err != nil {
		return pipeline.Stats{}, err
	}

	writer := NewWriter(out)
	runErr := manager.RunSync(ctx, writer)
	if err := writer.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to flush decisions: %w", err)
	}
	return manager.Stats(), runErr
}
