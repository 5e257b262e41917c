package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
)

const processedEventsRetention = 7 * 24 * time.Hour

// ProcessedEventsRepository remembers consumed event ids so redeliveries are
// applied once.
type ProcessedEventsRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

type processedEventDoc struct {
	EventID     string    `bson:"_id"`
	ProcessedAt time.Time `bson:"processedAt"`
}

func NewProcessedEventsRepository(m *db.Mongo) (*ProcessedEventsRepository, error) {
	repo := &ProcessedEventsRepository{coll: m.Collection("processed_visit_events"), now: time.Now}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "processedAt", Value: 1}},
		Options: options.Index().
			SetName("processedAt_ttl").
			SetExpireAfterSeconds(int32(processedEventsRetention.Seconds())),
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

// MarkProcessed reports false when eventID was already marked.
func (r *ProcessedEventsRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return false, errors.New("eventID must not be empty")
	}

	_, err := r.coll.InsertOne(ctx, processedEventDoc{EventID: eventID, ProcessedAt: r.now().UTC()})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unmark lets a failed event be applied again on redelivery.
func (r *ProcessedEventsRepository) Unmark(ctx context.Context, eventID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": eventID})
	return err
}
