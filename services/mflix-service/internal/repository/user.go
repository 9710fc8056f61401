package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/model"
)

// UserRepository defines the account operations on the users collection.
type UserRepository interface {
	// AddUser registers a new account. It fails with ErrDuplicateKey when the email is taken
	// and reports false when the store rejects the write.
	AddUser(ctx context.Context, user *model.User) (bool, error)

	// GetUser returns the account for email, or nil when there is none.
	GetUser(ctx context.Context, email string) (*model.User, error)

	// UpdateUserPreferences replaces the whole preferences map of the account.
	UpdateUserPreferences(ctx context.Context, email string, preferences map[string]any) (bool, error)

	// DeleteUser removes the account and, best effort, all of its sessions.
	DeleteUser(ctx context.Context, email string) (bool, error)
}

const (
	userCollection = "users"

	defaultWriteTimeout = 2500 * time.Millisecond
)

type userMongoRepository struct {
	db           *mongo.Database
	logger       *zerolog.Logger
	writeTimeout time.Duration
}

// NewUserMongoRepository creates the account repository and ensures its indexes.
// writeTimeout bounds how long an account insert waits for majority acknowledgment.
func NewUserMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	writeTimeout time.Duration,
) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	return &userMongoRepository{db: db, logger: logger, writeTimeout: writeTimeout}
}

func (r *userMongoRepository) AddUser(ctx context.Context, user *model.User) (bool, error) {
	if user == nil || user.Email == "" {
		return false, invalidArgument("user email is required")
	}

	existing, err := r.GetUser(ctx, user.Email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, fmt.Errorf("%w: user %q already exists", ErrDuplicateKey, user.Email)
	}

	return r.insert(ctx, user)
}

// insert writes user with majority write concern, bounded by the write timeout.
func (r *userMongoRepository) insert(ctx context.Context, user *model.User) (bool, error) {
	durable := r.db.Collection(userCollection, options.Collection().SetWriteConcern(writeconcern.Majority()))

	writeCtx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if _, err := durable.InsertOne(writeCtx, user); err != nil {
		// Lost the race against a concurrent registration of the same email.
		if mongo.IsDuplicateKeyError(err) {
			return false, fmt.Errorf("%w: user %q already exists", ErrDuplicateKey, user.Email)
		}

		writeFailed(r.logger, userCollection, "insert", err).Str("email", user.Email).Msg("failed to add user")
		return false, nil
	}

	return true, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.Collection(userCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, storeError("find user", err)
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUserPreferences(
	ctx context.Context,
	email string,
	preferences map[string]any,
) (bool, error) {
	if len(preferences) == 0 {
		return false, invalidArgument("user preferences cannot be nil or empty")
	}

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"preferences": stringifyPreferences(preferences)}},
	)
	if err != nil {
		writeFailed(r.logger, userCollection, "update", err).Str("email", email).Msg("failed to update user preferences")
		return false, nil
	}

	return result.MatchedCount > 0, nil
}

func (r *userMongoRepository) DeleteUser(ctx context.Context, email string) (bool, error) {
	result, err := r.db.Collection(userCollection).DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		writeFailed(r.logger, userCollection, "delete", err).Str("email", email).Msg("failed to delete user")
		return false, nil
	}

	if _, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"user_id": email}); err != nil {
		writeFailed(r.logger, sessionCollection, "delete", err).
			Str("user_id", email).
			Msg("failed to delete sessions of deleted user")
	}

	return result.DeletedCount > 0, nil
}

// stringifyPreferences coerces every value to its string form. A nil value becomes "".
func stringifyPreferences(preferences map[string]any) map[string]string {
	out := make(map[string]string, len(preferences))
	for k, v := range preferences {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case fmt.Stringer:
			out[k] = val.String()
		default:
			out[k] = fmt.Sprint(val)
		}
	}

	return out
}
