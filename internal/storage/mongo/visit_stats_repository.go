package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
)

// VisitStatsRepository is the daily visit rollup read model, keyed by link code.
type VisitStatsRepository struct {
	coll *mongo.Collection
}

type visitDailyDoc struct {
	Code    string `bson:"code"`
	Date    string `bson:"date"` // YYYY-MM-DD (UTC)
	Count   int64  `bson:"count"`
	QRCount int64  `bson:"qrCount"`
}

func NewVisitStatsRepository(m *db.Mongo) (*VisitStatsRepository, error) {
	repo := &VisitStatsRepository{coll: m.Collection("visits_daily")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_code_date"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *VisitStatsRepository) IncDaily(ctx context.Context, code string, kind analytics.Kind, at time.Time) error {
	date := analytics.DayOf(at)

	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"code": code, "date": date},
		bson.M{
			"$inc": dailyIncrement(kind),
			"$setOnInsert": bson.M{
				"code": code,
				"date": date,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *VisitStatsRepository) GetDaily(ctx context.Context, code string, from, to time.Time) ([]links.DailyCount, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{
			"code": code,
			"date": bson.M{
				"$gte": analytics.DayOf(from),
				"$lte": analytics.DayOf(to),
			},
		},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []links.DailyCount
	for cur.Next(ctx) {
		var doc visitDailyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, links.DailyCount{
			Date:  doc.Date,
			Count: doc.Count,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func dailyIncrement(kind analytics.Kind) bson.M {
	inc := bson.M{"count": 1}
	if kind == analytics.KindQR {
		inc["qrCount"] = 1
	}
	return inc
}
