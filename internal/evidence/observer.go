package evidence

import (
	"context"

	"github.com/cupshup/ops-backend/pkg/logger"
	"github.com/cupshup/ops-backend/pkg/metrics"
)

// TelemetryObserver logs each transition and feeds the pipeline metrics.
type TelemetryObserver struct {
	logg    *logger.Logger
	metrics *metrics.PipelineMetrics
}

func NewTelemetryObserver(logg *logger.Logger, m *metrics.PipelineMetrics) *TelemetryObserver {
	if logg == nil {
		logg = logger.Nop()
	}
	return &TelemetryObserver{logg: logg, metrics: m}
}

func (o *TelemetryObserver) OnTransition(ctx context.Context, t Transition) {
	o.metrics.ObserveTransition(t.From.String(), t.To.String())
	if t.From != StageIdle {
		o.metrics.ObserveStage(t.From.String(), t.Spent)
	}

	fields := map[string]any{
		"from":     t.From.String(),
		"to":       t.To.String(),
		"spent_ms": t.Spent.Milliseconds(),
	}
	if t.Err != nil {
		o.metrics.IncFailure(string(t.Err.Kind))
		fields["error_kind"] = string(t.Err.Kind)
		ctx = o.logg.WithFields(ctx, fields)
		if t.Err.Kind == KindValidation || t.Err.Kind == KindNoText {
			o.logg.Warn(ctx, "evidence.failed")
			return
		}
		o.logg.Error(ctx, "evidence.failed", t.Err)
		return
	}

	ctx = o.logg.WithFields(ctx, fields)
	if t.To == StageSucceeded {
		o.logg.Info(ctx, "evidence.succeeded")
		return
	}
	o.logg.Debug(ctx, "evidence.transition")
}
