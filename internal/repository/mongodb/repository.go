package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/couvoir/internal/domain/models"
)

// Repository defines the interface for run storage. Deleting a run removes
// its batches with it; batches never exist outside their run document.
type Repository interface {
	SaveRun(ctx context.Context, run models.Run) (models.Run, error)
	ListRuns(ctx context.Context) ([]models.Run, error)
	GetRun(ctx context.Context, id string) (models.Run, error)
	DeleteRun(ctx context.Context, id string) error
	MarkBatchHatched(ctx context.Context, id string, pos int) (models.Run, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "runs",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveRun inserts a new run document, assigning an id when missing.
func (r *MongoDBRepository) SaveRun(ctx context.Context, run models.Run) (models.Run, error) {
	if run.ID == "" {
		run.ID = primitive.NewObjectID().Hex()
	}

	if _, err := r.collection().InsertOne(ctx, run); err != nil {
		return models.Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs, most recent target date first.
func (r *MongoDBRepository) ListRuns(ctx context.Context) ([]models.Run, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "target_date", Value: -1}})

	cursor, err := r.collection().Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []models.Run
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	return runs, nil
}

// GetRun fetches one run by id.
func (r *MongoDBRepository) GetRun(ctx context.Context, id string) (models.Run, error) {
	var run models.Run
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Run{}, fmt.Errorf("run %s: %w", id, models.ErrRunNotFound)
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("failed to fetch run %s: %w", id, err)
	}
	return run, nil
}

// DeleteRun removes a run and, with it, all its batches.
func (r *MongoDBRepository) DeleteRun(ctx context.Context, id string) error {
	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("run %s: %w", id, models.ErrRunNotFound)
	}
	return nil
}

// MarkBatchHatched sets the completed flag on one batch and returns the
// updated run. Phase stays derived; only the flag is persisted.
func (r *MongoDBRepository) MarkBatchHatched(ctx context.Context, id string, pos int) (models.Run, error) {
	run, err := r.GetRun(ctx, id)
	if err != nil {
		return models.Run{}, err
	}
	if pos < 0 || pos >= len(run.Batches) {
		return models.Run{}, fmt.Errorf("run %s batch %d: %w", id, pos, models.ErrBatchNotFound)
	}

	update := bson.M{"$set": bson.M{fmt.Sprintf("batches.%d.completed", pos): true}}
	if _, err := r.collection().UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return models.Run{}, fmt.Errorf("failed to mark batch hatched: %w", err)
	}

	run.Batches[pos].Completed = true
	return run, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
