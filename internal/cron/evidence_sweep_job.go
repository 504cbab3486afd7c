package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/cupshup/ops-backend/pkg/logger"
	"github.com/cupshup/ops-backend/pkg/metrics"
	"github.com/cupshup/ops-backend/pkg/storage/gcs"
	"go.uber.org/multierr"
)

const (
	EvidenceSweepJobName      = "evidence-sweep"
	defaultEvidenceRetention  = 7
	defaultReferenceBatchSize = 500
)

type EvidenceSweepJobParams struct {
	Logger        *logger.Logger
	Objects       evidenceObjects
	Tasks         imageReferences
	Metrics       *metrics.CronJobMetrics
	RetentionDays int
	Prefix        string
	DryRun        bool
	BatchSize     int
}

type evidenceObjects interface {
	ListCreatedBefore(ctx context.Context, prefix string, cutoff time.Time) ([]gcs.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

type imageReferences interface {
	ReferencedImageKeys(ctx context.Context, keys []string) (map[string]struct{}, error)
}

// SweepReport summarises one sweep.
type SweepReport struct {
	Cutoff     time.Time
	Scanned    int
	Referenced int
	Orphaned   int
	Deleted    int
	Failed     int
	DryRun     bool
}

// NewEvidenceSweepJob builds the job that deletes evidence images no task
// record points at once they are older than the retention window. Uploads
// whose persistence step failed end up here.
func NewEvidenceSweepJob(params EvidenceSweepJobParams) (*EvidenceSweepJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Objects == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Tasks == nil {
		return nil, fmt.Errorf("task repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultEvidenceRetention
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReferenceBatchSize
	}
	return &EvidenceSweepJob{
		logg:          params.Logger,
		objects:       params.Objects,
		tasks:         params.Tasks,
		metrics:       params.Metrics,
		retentionDays: retention,
		prefix:        params.Prefix,
		dryRun:        params.DryRun,
		batchSize:     batch,
		now:           time.Now,
	}, nil
}

type EvidenceSweepJob struct {
	logg          *logger.Logger
	objects       evidenceObjects
	tasks         imageReferences
	metrics       *metrics.CronJobMetrics
	retentionDays int
	prefix        string
	dryRun        bool
	batchSize     int
	now           func() time.Time
}

func (j *EvidenceSweepJob) Name() string { return EvidenceSweepJobName }

func (j *EvidenceSweepJob) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}

// Sweep runs one pass and reports what it found. Per-object delete failures
// are aggregated; the pass continues past them.
func (j *EvidenceSweepJob) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{
		Cutoff: j.now().UTC().Add(-time.Duration(j.retentionDays) * 24 * time.Hour),
		DryRun: j.dryRun,
	}

	objects, err := j.objects.ListCreatedBefore(ctx, j.prefix, report.Cutoff)
	if err != nil {
		return report, fmt.Errorf("list evidence objects: %w", err)
	}
	report.Scanned = len(objects)

	var errs error
	for start := 0; start < len(objects); start += j.batchSize {
		end := start + j.batchSize
		if end > len(objects) {
			end = len(objects)
		}
		batch := objects[start:end]

		keys := make([]string, 0, len(batch))
		for _, obj := range batch {
			keys = append(keys, obj.Key)
		}
		referenced, err := j.tasks.ReferencedImageKeys(ctx, keys)
		if err != nil {
			// without the reference set nothing in this batch is safe to delete
			errs = multierr.Append(errs, fmt.Errorf("check references: %w", err))
			report.Failed += len(batch)
			continue
		}

		for _, obj := range batch {
			if _, ok := referenced[obj.Key]; ok {
				report.Referenced++
				continue
			}
			report.Orphaned++
			if j.dryRun {
				continue
			}
			if err := j.objects.Delete(ctx, obj.Key); err != nil {
				errs = multierr.Append(errs, err)
				report.Failed++
				continue
			}
			report.Deleted++
		}
	}

	j.record(report)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         report.Cutoff,
		"retention_days": j.retentionDays,
		"scanned":        report.Scanned,
		"referenced":     report.Referenced,
		"orphaned":       report.Orphaned,
		"deleted":        report.Deleted,
		"failed":         report.Failed,
		"dry_run":        report.DryRun,
	})
	j.logg.Info(logCtx, "evidence.sweep_complete")

	if errs != nil {
		return report, fmt.Errorf("evidence sweep: %d of %d objects failed: %w", report.Failed, report.Scanned, errs)
	}
	return report, nil
}

func (j *EvidenceSweepJob) record(r SweepReport) {
	j.metrics.AddItems(EvidenceSweepJobName, "scanned", r.Scanned)
	j.metrics.AddItems(EvidenceSweepJobName, "referenced", r.Referenced)
	j.metrics.AddItems(EvidenceSweepJobName, "orphaned", r.Orphaned)
	j.metrics.AddItems(EvidenceSweepJobName, "deleted", r.Deleted)
	j.metrics.AddItems(EvidenceSweepJobName, "failed", r.Failed)
}
