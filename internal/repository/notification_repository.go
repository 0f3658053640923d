package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tunehive.app/backend/internal/model"
	"tunehive.app/backend/pkg/apperror"
)

// notificationTTL is how long a record stays eligible for reads before the
// TTL monitor removes it.
const notificationTTL = 30 * 24 * time.Hour

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	CreateMany(ctx context.Context, notifications []*model.Notification) error
	FindByRecipient(ctx context.Context, recipientID primitive.ObjectID, page, limit int) ([]model.Notification, int64, error)
	FindLike(ctx context.Context, recipientID, senderID primitive.ObjectID, notificationType model.NotificationType, contentField string, contentID primitive.ObjectID) (*model.Notification, error)
	CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, recipientID primitive.ObjectID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{collection: db.Collection("notifications")}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	now := time.Now()
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = now
	notification.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

func (r *mongoNotificationRepository) CreateMany(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, len(notifications))
	for i, n := range notifications {
		n.ID = primitive.NewObjectID()
		n.CreatedAt = now
		n.UpdatedAt = now
		docs[i] = n
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *mongoNotificationRepository) FindByRecipient(ctx context.Context, recipientID primitive.ObjectID, page, limit int) ([]model.Notification, int64, error) {
	filter := bson.M{"recipient_id": recipientID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := int64(page-1) * int64(limit)
	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []model.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// FindLike looks up an existing like notification for the dedup check.
// contentField is the payload field holding the liked content id, e.g.
// "data.post_id". Returns (nil, nil) when no record exists.
func (r *mongoNotificationRepository) FindLike(ctx context.Context, recipientID, senderID primitive.ObjectID, notificationType model.NotificationType, contentField string, contentID primitive.ObjectID) (*model.Notification, error) {
	filter := bson.M{
		"recipient_id": recipientID,
		"sender_id":    senderID,
		"type":         notificationType,
		contentField:   contentID,
	}

	var notification model.Notification
	err := r.collection.FindOne(ctx, filter).Decode(&notification)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *mongoNotificationRepository) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "is_read": false})
}

// MarkAsRead flips is_read for a record the recipient owns. Ownership is
// part of the update filter, so a mismatched user can never race the update.
func (r *mongoNotificationRepository) MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *mongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoNotificationRepository) Delete(ctx context.Context, id, recipientID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "recipient_id": recipientID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *mongoNotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates the recipient listing index and the TTL index that
// expires records 30 days after creation.
func (r *mongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(notificationTTL.Seconds())),
		},
	})
	return err
}
