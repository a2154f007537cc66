package runs

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mg "loan_audit/internal/config/connections/mongo"
	"loan_audit/internal/ports"
)

const RunItemsCollection = "audit_run_items"

const (
	ItemWarning = ports.ItemWarning
	ItemInspect = ports.ItemInspect
)

type Item struct {
	RunID     string    `bson:"run_id" json:"run_id"`
	Stage     string    `bson:"stage" json:"stage"`
	Status    string    `bson:"status" json:"status"`
	Message   string    `bson:"message" json:"message"`
	Rows      int       `bson:"rows" json:"rows"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func InsertItem(ctx context.Context, m *mg.Mongo, item Item) (*mongo.InsertOneResult, error) {
	if m == nil || m.Client == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	doc := bson.D{
		{Key: "run_id", Value: item.RunID},
		{Key: "stage", Value: item.Stage},
		{Key: "status", Value: item.Status},
		{Key: "message", Value: item.Message},
		{Key: "rows", Value: item.Rows},
		{Key: "created_at", Value: item.CreatedAt},
	}
	return m.Database.Collection(RunItemsCollection).InsertOne(ctx, doc, options.InsertOne())
}

func ListItems(ctx context.Context, m *mg.Mongo, runID string) ([]Item, error) {
	if m == nil || m.Database == nil {
		return nil, mongo.ErrClientDisconnected
	}
	cur, err := m.Database.Collection(RunItemsCollection).Find(ctx, bson.M{"run_id": runID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]Item, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LogItem records an item and only logs when Mongo rejects it; the run itself
// must not fail because its journal did.
func LogItem(ctx context.Context, m *mg.Mongo, item Item) {
	if m == nil || m.Database == nil {
		return
	}
	if _, err := InsertItem(ctx, m, item); err != nil {
		log.Printf("[RUNS][MONGO][ERR] run_id=%s stage=%s status=%s err=%v", item.RunID, item.Stage, item.Status, err)
	}
}
