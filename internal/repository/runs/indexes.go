package runs

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	mg "loan_audit/internal/config/connections/mongo"
)

func runIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "branch", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
}

func itemIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}
}

// EnsureIndexes creates the indexes the status and listing queries rely on.
func EnsureIndexes(ctx context.Context, m *mg.Mongo) error {
	if m == nil || m.Database == nil {
		return mongo.ErrClientDisconnected
	}
	if _, err := m.Database.Collection(RunsCollection).Indexes().CreateMany(ctx, runIndexes()); err != nil {
		return fmt.Errorf("%s indexes: %w", RunsCollection, err)
	}
	if _, err := m.Database.Collection(RunItemsCollection).Indexes().CreateMany(ctx, itemIndexes()); err != nil {
		return fmt.Errorf("%s indexes: %w", RunItemsCollection, err)
	}
	return nil
}
