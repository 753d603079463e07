package store

import (
	"context"
	"errors"
	"time"

	chatmodel "DriveSync/module/chat/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps conversations, messages and receipts in three
// collections. The receipt update leans on $max so the monotonicity
// invariant holds even under concurrent readers.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) convColl() *mongo.Collection {
	return s.db.Collection((&chatmodel.Conversation{}).GetTableName())
}

func (s *MongoStore) msgColl() *mongo.Collection {
	return s.db.Collection((&chatmodel.Message{}).GetTableName())
}

func (s *MongoStore) receiptColl() *mongo.Collection {
	return s.db.Collection((&chatmodel.ReadReceipt{}).GetTableName())
}

func (s *MongoStore) InsertConversation(ctx context.Context, c *chatmodel.Conversation) error {
	_, err := s.convColl().InsertOne(ctx, c)
	return err
}

func (s *MongoStore) GetConversation(ctx context.Context, conversationID string) (*chatmodel.Conversation, error) {
	var c chatmodel.Conversation
	err := s.convColl().FindOne(ctx,
		bson.M{chatmodel.ConversationFieldConversationID: conversationID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) ListConversationsOf(ctx context.Context, user string) ([]*chatmodel.Conversation, error) {
	cur, err := s.convColl().Find(ctx,
		bson.M{chatmodel.ConversationFieldMembers: user},
		options.Find().SetSort(bson.M{chatmodel.ConversationFieldLastMessageAt: -1}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*chatmodel.Conversation
	for cur.Next(ctx) {
		var c chatmodel.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (s *MongoStore) InsertMessage(ctx context.Context, m *chatmodel.Message) error {
	if _, err := s.msgColl().InsertOne(ctx, m); err != nil {
		return err
	}
	// watermark only moves forward, avoids write races on the list order
	_, err := s.convColl().UpdateOne(ctx,
		bson.M{
			chatmodel.ConversationFieldConversationID: m.ConversationID,
			chatmodel.ConversationFieldLastMessageAt:  bson.M{"$lt": m.CreateTime},
		},
		bson.M{"$set": bson.M{chatmodel.ConversationFieldLastMessageAt: m.CreateTime}})
	return err
}

func (s *MongoStore) GetMessage(ctx context.Context, conversationID, messageID string) (*chatmodel.Message, error) {
	var m chatmodel.Message
	err := s.msgColl().FindOne(ctx, bson.M{
		chatmodel.MessageFieldConversationID: conversationID,
		chatmodel.MessageFieldMessageID:      messageID,
	}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MongoStore) ListMessages(ctx context.Context, conversationID string) ([]*chatmodel.Message, error) {
	cur, err := s.msgColl().Find(ctx,
		bson.M{chatmodel.MessageFieldConversationID: conversationID},
		options.Find().SetSort(bson.M{chatmodel.MessageFieldSeq: 1}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*chatmodel.Message
	for cur.Next(ctx) {
		var m chatmodel.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (s *MongoStore) LastMessage(ctx context.Context, conversationID string) (*chatmodel.Message, error) {
	var m chatmodel.Message
	err := s.msgColl().FindOne(ctx,
		bson.M{chatmodel.MessageFieldConversationID: conversationID},
		options.FindOne().SetSort(bson.M{chatmodel.MessageFieldSeq: -1})).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkReadTo: $max keeps the pointer monotonic; a read of an older
// message is a no-op with respect to the pointer.
func (s *MongoStore) MarkReadTo(ctx context.Context, conversationID, user string, seq int64) (int64, error) {
	res := s.receiptColl().FindOneAndUpdate(ctx,
		bson.M{
			chatmodel.ReceiptFieldConversationID: conversationID,
			chatmodel.ReceiptFieldUserID:         user,
		},
		bson.M{
			"$max": bson.M{chatmodel.ReceiptFieldReadSeq: seq},
			"$set": bson.M{chatmodel.ReceiptFieldUpdatedAt: time.Now().UnixMilli()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var out chatmodel.ReadReceipt
	if err := res.Decode(&out); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}
	return out.ReadSeq, nil
}

func (s *MongoStore) GetReadSeq(ctx context.Context, conversationID, user string) (int64, error) {
	var r chatmodel.ReadReceipt
	err := s.receiptColl().FindOne(ctx, bson.M{
		chatmodel.ReceiptFieldConversationID: conversationID,
		chatmodel.ReceiptFieldUserID:         user,
	}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return r.ReadSeq, nil
}
