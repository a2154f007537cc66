package runs

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	mg "loan_audit/internal/config/connections/mongo"
)

// Store is the record-keeping side of runs used by the HTTP layer.
type Store struct{ Mongo *mg.Mongo }

func NewStore(m *mg.Mongo) *Store { return &Store{Mongo: m} }

func (s *Store) Insert(ctx context.Context, rec Run) (string, error) {
	return InsertRun(ctx, s.Mongo, rec)
}

func (s *Store) Find(ctx context.Context, id string) (Run, error) {
	return FindRunByID(ctx, s.Mongo, id)
}

func (s *Store) Items(ctx context.Context, id string) ([]Item, error) {
	return ListItems(ctx, s.Mongo, id)
}

func (s *Store) List(ctx context.Context, branch string, limit, skip int64) ([]Run, int64, error) {
	filter := bson.M{}
	if branch != "" {
		filter["branch"] = branch
	}
	return ListRuns(ctx, s.Mongo, filter, limit, skip)
}
