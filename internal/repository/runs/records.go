package runs

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mg "loan_audit/internal/config/connections/mongo"
	"loan_audit/internal/ports"
)

const RunsCollection = "audit_runs"

const (
	StatusQueued  = ports.RunQueued
	StatusRunning = ports.RunRunning
	StatusDone    = ports.RunDone
	StatusFailed  = ports.RunFailed
)

type Run struct {
	ID             string              `bson:"_id" json:"id"`
	Status         string              `bson:"status" json:"status"`
	Branch         string              `bson:"branch" json:"branch"`
	AuditedRegion  string              `bson:"audited_region" json:"audited_region"`
	AssessmentDate string              `bson:"assessment_date" json:"assessment_date"`
	RequestedBy    string              `bson:"requested_by,omitempty" json:"requested_by,omitempty"`
	Inputs         map[string][]string `bson:"inputs" json:"inputs"`
	Loaded         []ports.InputInfo   `bson:"loaded,omitempty" json:"loaded,omitempty"`
	Output         *string             `bson:"output,omitempty" json:"output,omitempty"`
	Customers      int                 `bson:"customers" json:"customers"`
	Warnings       int                 `bson:"warnings" json:"warnings"`
	Errors         *string             `bson:"errors,omitempty" json:"errors,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
	FinishedAt     *time.Time          `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}

func runDoc(rec Run, now time.Time) bson.D {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.Status == "" {
		rec.Status = StatusQueued
	}
	return bson.D{
		{Key: "_id", Value: rec.ID},
		{Key: "status", Value: rec.Status},
		{Key: "branch", Value: rec.Branch},
		{Key: "audited_region", Value: rec.AuditedRegion},
		{Key: "assessment_date", Value: rec.AssessmentDate},
		{Key: "requested_by", Value: rec.RequestedBy},
		{Key: "inputs", Value: rec.Inputs},
		{Key: "customers", Value: rec.Customers},
		{Key: "warnings", Value: rec.Warnings},
		{Key: "created_at", Value: rec.CreatedAt},
		{Key: "updated_at", Value: now},
	}
}

func InsertRun(ctx context.Context, m *mg.Mongo, rec Run) (string, error) {
	if m == nil || m.Client == nil || m.Database == nil {
		return "", mongo.ErrClientDisconnected
	}
	if rec.ID == "" {
		return "", fmt.Errorf("empty run id")
	}
	if _, err := m.Database.Collection(RunsCollection).InsertOne(ctx, runDoc(rec, time.Now().UTC()), options.InsertOne()); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// byID matches string run ids and, for records created by other tools, ObjectIDs.
func byID(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

func FindRunByID(ctx context.Context, m *mg.Mongo, id string) (Run, error) {
	var out Run
	if m == nil || m.Database == nil {
		return out, mongo.ErrClientDisconnected
	}
	if err := m.Database.Collection(RunsCollection).FindOne(ctx, byID(id)).Decode(&out); err != nil {
		return out, fmt.Errorf("run %s not found: %w", id, err)
	}
	return out, nil
}

func ListRuns(ctx context.Context, m *mg.Mongo, filter bson.M, limit, skip int64) ([]Run, int64, error) {
	if m == nil || m.Database == nil {
		return nil, 0, mongo.ErrClientDisconnected
	}
	coll := m.Database.Collection(RunsCollection)
	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	recs := make([]Run, 0)
	for cur.Next(ctx) {
		var r Run
		if err := cur.Decode(&r); err != nil {
			continue
		}
		recs = append(recs, r)
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		total = int64(len(recs))
	}
	return recs, total, nil
}

func UpdateRunStatus(ctx context.Context, m *mg.Mongo, id, status string) error {
	if m == nil || m.Database == nil {
		return mongo.ErrClientDisconnected
	}
	if id == "" {
		return fmt.Errorf("empty run id")
	}
	if status == "" {
		return fmt.Errorf("empty status")
	}
	return updateRun(ctx, m, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
}

func finishUpdate(out ports.RunOutcome, now time.Time) bson.M {
	set := bson.M{
		"status":      out.Status,
		"customers":   out.Customers,
		"warnings":    out.Warnings,
		"loaded":      out.Inputs,
		"updated_at":  now,
		"finished_at": now,
	}
	if out.Output != "" {
		set["output"] = out.Output
	}
	if out.Error != "" {
		set["errors"] = out.Error
	}
	return bson.M{"$set": set}
}

func FinishRun(ctx context.Context, m *mg.Mongo, id string, out ports.RunOutcome) error {
	if m == nil || m.Database == nil {
		return mongo.ErrClientDisconnected
	}
	if out.Status == "" {
		out.Status = StatusDone
	}
	return updateRun(ctx, m, id, finishUpdate(out, time.Now().UTC()))
}

func updateRun(ctx context.Context, m *mg.Mongo, id string, update bson.M) error {
	res, err := m.Database.Collection(RunsCollection).UpdateOne(ctx, byID(id), update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no audit run found with id %s", id)
	}
	return nil
}
