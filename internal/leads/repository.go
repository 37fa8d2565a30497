package leads

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errRecordNotFound = errors.New("record not found")

// Repository is the CRM store. Implementations return errRecordNotFound (or a
// driver error wrapping it) when an id does not exist.
type Repository interface {
	Create(ctx context.Context, lead Lead) error
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	GetByID(ctx context.Context, id string) (Lead, error)
	UpdateStatus(ctx context.Context, id string, status string, now time.Time) (Lead, error)
	UpdateStage(ctx context.Context, id string, stage string, now time.Time) (Lead, error)
	CountBy(ctx context.Context, field string) (map[string]int64, error)
}

const (
	fieldStatus = "status"
	fieldStage  = "pipeline_stage"
)

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, lead Lead) error {
	_, err := r.col.InsertOne(ctx, lead)
	return err
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, error) {
	query := r.filterToBSON(filter)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Lead, 0)
	for cursor.Next(ctx) {
		var lead Lead
		if err := cursor.Decode(&lead); err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Lead, error) {
	var lead Lead
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&lead); err != nil {
		return Lead{}, translateMongoErr(err)
	}
	return lead, nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, status string, now time.Time) (Lead, error) {
	return r.setField(ctx, id, fieldStatus, status, now)
}

func (r *MongoRepository) UpdateStage(ctx context.Context, id string, stage string, now time.Time) (Lead, error) {
	return r.setField(ctx, id, fieldStage, stage, now)
}

func (r *MongoRepository) setField(ctx context.Context, id, field, value string, now time.Time) (Lead, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			field:        value,
			"updated_at": now,
		},
	}

	var updated Lead
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return Lead{}, translateMongoErr(err)
	}
	return updated, nil
}

func (r *MongoRepository) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Key   string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Key] = row.Count
	}
	return counts, cursor.Err()
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query[fieldStatus] = filter.Status
	}
	if filter.Stage != "" {
		query[fieldStage] = filter.Stage
	}
	if filter.Source != "" {
		query["lead_source"] = filter.Source
	}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}
	return query
}

func translateMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errRecordNotFound
	}
	return err
}
