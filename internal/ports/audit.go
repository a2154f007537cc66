package ports

import "context"

type ctxKey string

const CtxRunID ctxKey = "audit_run_id"

// RunIDFrom returns the run id stored in ctx, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(CtxRunID).(string)
	return id
}

// CodeMapping is one row of a code lookup: a source code and what it maps to.
type CodeMapping struct {
	Code  string
	Value string
}

const (
	LookupCollateralTypes = "collateral_types"
	LookupPurposeGroups   = "purpose_groups"
)

// LookupSource supplies the code maps when no mapping file is given.
type LookupSource interface {
	CollateralTypes(ctx context.Context) ([]CodeMapping, error)
	PurposeGroups(ctx context.Context) ([]CodeMapping, error)
}

// LookupWriter replaces the stored content of one code map.
type LookupWriter interface {
	Replace(ctx context.Context, kind string, rows []CodeMapping) (int, error)
}

// InputInfo describes one loaded input file.
type InputInfo struct {
	Slot   string `bson:"slot" json:"slot"`
	Path   string `bson:"path" json:"path"`
	Source string `bson:"source" json:"source"`
	Format string `bson:"format" json:"format"`
	SHA256 string `bson:"sha256" json:"sha256"`
	Rows   int    `bson:"rows" json:"rows"`
	Bytes  int    `bson:"bytes" json:"bytes"`
}

const (
	RunQueued  = "queued"
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"

	ItemWarning = "warning"
	ItemInspect = "inspect"
)

type RunOutcome struct {
	Status    string
	Error     string
	Output    string
	Customers int
	Warnings  int
	Inputs    []InputInfo
}

// RunRecorder persists the progress of one audit run.
type RunRecorder interface {
	Start(ctx context.Context, runID string) error
	Item(ctx context.Context, runID, stage, status, message string, rows int)
	Finish(ctx context.Context, runID string, out RunOutcome) error
}
