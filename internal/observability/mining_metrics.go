package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/typocorpus/internal/batch"
	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

const (
	metricCommitsTotal       = "typocorpus.commits.total"
	metricFilesSkippedTotal  = "typocorpus.files.skipped.total"
	metricRecordsTotal       = "typocorpus.records.total"
	metricRepositoriesTotal  = "typocorpus.repositories.total"
	metricRepositoryDuration = "typocorpus.repository.duration.seconds"

	attrOutcome = "outcome"
	attrReason  = "reason"
	attrStatus  = "status"
)

// durationBucketBoundaries spans quick local repositories up to clones of
// large projects.
var durationBucketBoundaries = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}

// MiningMetrics holds OTel instruments for the mining run. It implements
// batch.Observer.
type MiningMetrics struct {
	commitsTotal       metric.Int64Counter
	filesSkippedTotal  metric.Int64Counter
	recordsTotal       metric.Int64Counter
	repositoriesTotal  metric.Int64Counter
	repositoryDuration metric.Float64Histogram
}

var _ batch.Observer = (*MiningMetrics)(nil)

// NewMiningMetrics creates mining metric instruments from the given meter.
func NewMiningMetrics(mt metric.Meter) (*MiningMetrics, error) {
	b := newMetricBuilder(mt)

	mm := &MiningMetrics{
		commitsTotal:       b.counter(metricCommitsTotal, "Commits processed by outcome", "{commit}"),
		filesSkippedTotal:  b.counter(metricFilesSkippedTotal, "Modified files that contributed no pairs, by reason", "{file}"),
		recordsTotal:       b.counter(metricRecordsTotal, "Accepted commit records", "{record}"),
		repositoriesTotal:  b.counter(metricRepositoriesTotal, "Repositories processed by status", "{repository}"),
		repositoryDuration: b.histogram(metricRepositoryDuration, "Per-repository processing duration in seconds", "s", durationBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return mm, nil
}

// ObserveCommit records one commit outcome. Safe to call on a nil receiver.
func (mm *MiningMetrics) ObserveCommit(ctx context.Context, out mining.Outcome) {
	if mm == nil {
		return
	}

	mm.commitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, out.Skip.Label())))

	if out.Accepted() {
		mm.recordsTotal.Add(ctx, 1)
	}

	for _, file := range out.Files {
		if file.Status == mining.FileOK {
			continue
		}

		mm.filesSkippedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, string(file.Status))))
	}
}

// ObserveRepository records one repository result. Safe to call on a nil receiver.
func (mm *MiningMetrics) ObserveRepository(ctx context.Context, res batch.Result) {
	if mm == nil {
		return
	}

	status := metric.WithAttributes(attribute.String(attrStatus, string(res.Status)))

	mm.repositoriesTotal.Add(ctx, 1, status)
	mm.repositoryDuration.Record(ctx, res.Duration.Seconds(), status)
}
