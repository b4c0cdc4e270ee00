package convert

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/tilth/pkg/core"
)

// RunnerState exposes internal state for observability.
type RunnerState struct {
	ExportRoot string     `json:"export_root"`
	OutputRoot string     `json:"output_root"`
	DryRun     bool       `json:"dry_run"`
	Running    bool       `json:"running"`
	Stats      core.Stats `json:"stats"`
}

// State implements introspection.Introspectable.
func (r *Runner) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RunnerState{
		ExportRoot: r.cfg.ExportRoot,
		OutputRoot: r.cfg.OutputRoot,
		DryRun:     r.cfg.DryRun,
		Running:    r.running,
		Stats:      r.stats,
	}
}

// ComponentType implements introspection.Component.
func (r *Runner) ComponentType() string {
	return "converter"
}

var _ introspection.Introspectable = (*Runner)(nil)
var _ introspection.Component = (*Runner)(nil)
