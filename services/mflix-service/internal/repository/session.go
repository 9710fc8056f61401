package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/model"
)

// SessionRepository defines the operations on the sessions collection.
// A user has at most one session and a token belongs to at most one session.
type SessionRepository interface {
	CreateSession(ctx context.Context, userID, jwt string) (bool, error)
	GetUserSession(ctx context.Context, userID string) (*model.Session, error)
	GetSessionByToken(ctx context.Context, jwt string) (*model.Session, error)
	DeleteUserSessions(ctx context.Context, userID string) (bool, error)
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db     *mongo.Database
	logger *zerolog.Logger
}

// NewSessionMongoRepository creates the session repository and ensures its indexes.
func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	collection := db.Collection(sessionCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "jwt", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db, logger: logger}
}

// CreateSession stores jwt as the active token of userID, replacing any previous token.
// It returns false without touching any document when jwt is already in use.
// The lookup and the write are separate calls; a concurrent writer that slips in between
// is rejected by the unique indexes and reported as false.
func (r *sessionMongoRepository) CreateSession(ctx context.Context, userID, jwt string) (bool, error) {
	if userID == "" || jwt == "" {
		return false, invalidArgument("user id and jwt are required")
	}

	inUse, err := r.GetSessionByToken(ctx, jwt)
	if err != nil {
		return false, err
	}
	if inUse != nil {
		return false, nil
	}

	current, err := r.GetUserSession(ctx, userID)
	if err != nil {
		return false, err
	}

	return r.write(ctx, userID, jwt, current != nil), nil
}

// write replaces the token of the user's session when replace is set and inserts a new
// session otherwise. A write rejected by the unique indexes is reported as false.
func (r *sessionMongoRepository) write(ctx context.Context, userID, jwt string, replace bool) bool {
	collection := r.db.Collection(sessionCollection)

	if replace {
		_, err := collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"jwt": jwt}})
		if err != nil {
			writeFailed(r.logger, sessionCollection, "update", err).Str("user_id", userID).Msg("failed to refresh session")
			return false
		}

		return true
	}

	if _, err := collection.InsertOne(ctx, &model.Session{UserID: userID, JWT: jwt}); err != nil {
		writeFailed(r.logger, sessionCollection, "insert", err).Str("user_id", userID).Msg("failed to create session")
		return false
	}

	return true
}

func (r *sessionMongoRepository) GetUserSession(ctx context.Context, userID string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *sessionMongoRepository) GetSessionByToken(ctx context.Context, jwt string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"jwt": jwt})
}

func (r *sessionMongoRepository) DeleteUserSessions(ctx context.Context, userID string) (bool, error) {
	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		writeFailed(r.logger, sessionCollection, "delete", err).Str("user_id", userID).Msg("failed to delete sessions")
		return false, nil
	}

	return result.DeletedCount > 0, nil
}

func (r *sessionMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Session, error) {
	var session model.Session
	err := r.db.Collection(sessionCollection).FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, storeError("find session", err)
	}

	return &session, nil
}
