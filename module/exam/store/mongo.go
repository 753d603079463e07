package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	exammodel "DriveSync/module/exam/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) coll() *mongo.Collection {
	return s.db.Collection((&exammodel.Exam{}).GetTableName())
}

func (s *MongoStore) GetExam(ctx context.Context, examID string) (*exammodel.Exam, error) {
	var e exammodel.Exam
	err := s.coll().FindOne(ctx, bson.M{exammodel.ExamFieldExamID: examID}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveCriteriumState updates the nested criterium via array filters, so
// the write is a single atomic document update.
func (s *MongoStore) SaveCriteriumState(ctx context.Context, examID, scope, name string, state exammodel.CriteriumState) error {
	res, err := s.coll().UpdateOne(ctx,
		bson.M{exammodel.ExamFieldExamID: examID},
		bson.M{"$set": bson.M{"scopes.$[sc].criteria.$[cr].state": state}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"sc.name": scope},
				bson.M{"cr.name": name},
			},
		}),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("exam %s not found", examID)
	}
	// ModifiedCount==0 just means the same value was written twice
	return nil
}

func (s *MongoStore) MarkExamEnded(ctx context.Context, examID string) error {
	res, err := s.coll().UpdateOne(ctx,
		bson.M{exammodel.ExamFieldExamID: examID},
		bson.M{"$set": bson.M{
			exammodel.ExamFieldStatus:  exammodel.StatusConcluded,
			exammodel.ExamFieldEndedAt: time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("exam %s not found", examID)
	}
	return nil
}
