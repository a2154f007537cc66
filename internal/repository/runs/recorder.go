package runs

import (
	"context"

	mg "loan_audit/internal/config/connections/mongo"
	"loan_audit/internal/ports"
)

// Recorder journals audit runs into Mongo.
type Recorder struct{ Mongo *mg.Mongo }

func NewRecorder(m *mg.Mongo) *Recorder { return &Recorder{Mongo: m} }

func (r *Recorder) Start(ctx context.Context, runID string) error {
	return UpdateRunStatus(ctx, r.Mongo, runID, StatusRunning)
}

func (r *Recorder) Item(ctx context.Context, runID, stage, status, message string, rows int) {
	LogItem(ctx, r.Mongo, Item{RunID: runID, Stage: stage, Status: status, Message: message, Rows: rows})
}

func (r *Recorder) Finish(ctx context.Context, runID string, out ports.RunOutcome) error {
	return FinishRun(ctx, r.Mongo, runID, out)
}

var _ ports.RunRecorder = (*Recorder)(nil)
