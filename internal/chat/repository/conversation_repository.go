package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart_cycle_market/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationsCollection mongo collection name
const ConversationsCollection = "conversations"

// ConversationRepository durable conversations and their chat history
type ConversationRepository interface {
	EnsureIndexes(ctx context.Context) error
	FindOrCreate(ctx context.Context, memberA, memberB string) (string, error)
	AppendChat(ctx context.Context, conversationID, recipient string, chat domain.Chat) error
	FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error)
	FindByParticipant(ctx context.Context, memberID string) ([]domain.Conversation, error)
}

type conversationRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoConversationRepository create new mongo conversation repository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection(ConversationsCollection),
		now:  time.Now,
	}
}

// EnsureIndexes unique participant_id, plus participants for listing
func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participant_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_participant_id"),
		},
		{
			Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("participants_updated_at"),
		},
	})
	return err
}

// FindOrCreate upserts on participant_id so both orders and concurrent callers share one document
func (r *conversationRepository) FindOrCreate(ctx context.Context, memberA, memberB string) (string, error) {
	if memberA == memberB {
		return "", domain.ErrSelfConversation
	}

	now := r.now()
	filter := bson.M{"participant_id": domain.ParticipantID(memberA, memberB)}
	update := bson.M{"$setOnInsert": bson.M{
		"participants": domain.SortedParticipants(memberA, memberB),
		"chats":        bson.A{},
		"created_at":   now,
		"updated_at":   now,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race, the winner's document is there now
		err = r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&doc)
	}
	if err != nil {
		return "", fmt.Errorf("find or create conversation: %w", err)
	}

	return doc.ID.Hex(), nil
}

// AppendChat pushes chat when the conversation exists and holds both sender and recipient
func (r *conversationRepository) AppendChat(ctx context.Context, conversationID, recipient string, chat domain.Chat) error {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return domain.ErrConversationNotFound
	}

	filter := bson.M{
		"_id":          oid,
		"participants": bson.M{"$all": bson.A{chat.SentBy, recipient}},
	}
	update := bson.M{
		"$push": bson.M{"chats": chat},
		"$set":  bson.M{"updated_at": chat.Timestamp},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("append chat: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

// FindByID conversation with its full history
func (r *conversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, domain.ErrConversationNotFound
	}

	var c domain.Conversation
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &c, nil
}

// FindByParticipant conversations of memberID, newest activity first, with only the last chat loaded
func (r *conversationRepository) FindByParticipant(ctx context.Context, memberID string) ([]domain.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"chats": bson.M{"$slice": -1}})

	cur, err := r.coll.Find(ctx, bson.M{"participants": memberID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return out, nil
}
