package ports

import (
	"context"

	"abx/domain/report"
)

// ReportRepository persists computed experiment readouts. Only derived
// results are stored; raw experiment data never passes through this port.
type ReportRepository interface {
	Save(ctx context.Context, readout *report.Readout) error
	GetByID(ctx context.Context, id string) (*report.Readout, error)
	ListByExperiment(ctx context.Context, experiment string, limit int) ([]*report.Readout, error)
}
