package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/model"
	"github.com/vasapolrittideah/mflix-api/shared/validator"
)

// CommentRepository defines the operations on the comments collection.
// Mutations are restricted to the comment's owner by comparing emails.
type CommentRepository interface {
	// GetComment returns the comment with id, or nil when there is none.
	GetComment(ctx context.Context, id string) (*model.Comment, error)

	// AddComment inserts comment as given. It returns nil when the store rejects the write.
	AddComment(ctx context.Context, comment *model.Comment) (*model.Comment, error)

	// UpdateComment sets the text of a comment owned by email and stamps its date.
	UpdateComment(ctx context.Context, commentID, text, email string) (bool, error)

	// DeleteComment removes the comment only when both id and owner email match.
	DeleteComment(ctx context.Context, commentID, email string) (bool, error)

	// GetUserComments lists the comments of an existing user, newest first.
	// It returns nil when no account exists for email.
	GetUserComments(ctx context.Context, email string) ([]model.Comment, error)

	// MostActiveCommenters ranks users by number of comments, at most 20 entries.
	MostActiveCommenters(ctx context.Context) ([]model.Critic, error)
}

const (
	commentCollection = "comments"

	criticsLimit = 20
)

type commentMongoRepository struct {
	db        *mongo.Database
	logger    *zerolog.Logger
	users     UserRepository
	validator *validator.Validator
	now       func() time.Time
}

// NewCommentMongoRepository creates the comment repository and ensures its indexes.
// users is used to cross-validate comment owners.
func NewCommentMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	users UserRepository,
) CommentRepository {
	collection := db.Collection(commentCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create comment indexes")
	}

	return &commentMongoRepository{
		db:        db,
		logger:    logger,
		users:     users,
		validator: validator.New(),
		now:       time.Now,
	}
}

// collection decodes ObjectID keys into their hex form, so comments from the mflix dataset
// load into the string ID next to comments created with generated string ids.
func (r *commentMongoRepository) collection() *mongo.Collection {
	return r.db.Collection(
		commentCollection,
		options.Collection().SetBSONOptions(&options.BSONOptions{ObjectIDAsHexString: true}),
	)
}

// commentIDFilter matches id stored either as a string or, when id is a hex ObjectID,
// as the ObjectID itself.
func commentIDFilter(id string) any {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return id
	}

	return bson.M{"$in": bson.A{oid, id}}
}

func (r *commentMongoRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.collection().FindOne(ctx, bson.M{"_id": commentIDFilter(id)}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, storeError("find comment", err)
	}

	return &comment, nil
}

func (r *commentMongoRepository) AddComment(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	if err := r.validateComment(comment); err != nil {
		return nil, err
	}

	// A duplicate _id is a store fault like any other rejected write.
	if _, err := r.collection().InsertOne(ctx, comment); err != nil {
		writeFailed(r.logger, commentCollection, "insert", err).Str("comment_id", comment.ID).Msg("failed to add comment")
		return nil, nil
	}

	return comment, nil
}

func (r *commentMongoRepository) UpdateComment(ctx context.Context, commentID, text, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	if text == "" {
		return false, invalidArgument("comment text is required")
	}

	existing, err := r.GetComment(ctx, commentID)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.Email != email {
		return false, nil
	}

	result, err := r.collection().UpdateOne(
		ctx,
		bson.M{"_id": commentIDFilter(commentID), "email": email},
		bson.M{"$set": bson.M{"text": text, "date": r.now()}},
	)
	if err != nil {
		writeFailed(r.logger, commentCollection, "update", err).Str("comment_id", commentID).Msg("failed to update comment")
		return false, nil
	}

	return result.Acknowledged && result.MatchedCount > 0, nil
}

func (r *commentMongoRepository) DeleteComment(ctx context.Context, commentID, email string) (bool, error) {
	if commentID == "" {
		return false, invalidArgument("comment id is required")
	}

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": commentIDFilter(commentID), "email": email})
	if err != nil {
		writeFailed(r.logger, commentCollection, "delete", err).Str("comment_id", commentID).Msg("failed to delete comment")
		return false, nil
	}

	return result.DeletedCount > 0, nil
}

func (r *commentMongoRepository) GetUserComments(ctx context.Context, email string) ([]model.Comment, error) {
	user, err := r.users.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	cursor, err := r.collection().Find(
		ctx,
		bson.M{"email": email},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, storeError("find user comments", err)
	}

	comments := []model.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, storeError("decode user comments", err)
	}

	return comments, nil
}

// criticRow is the shape produced by mostActiveCommentersPipeline.
type criticRow struct {
	Email string `bson:"email"`
	Count struct {
		Count int `bson:"count"`
	} `bson:"count"`
}

// MostActiveCommenters reads with majority read concern so that the report never
// includes a write that could still be rolled back.
func (r *commentMongoRepository) MostActiveCommenters(ctx context.Context) ([]model.Critic, error) {
	users := r.db.Collection(userCollection, options.Collection().SetReadConcern(readconcern.Majority()))

	cursor, err := users.Aggregate(ctx, mostActiveCommentersPipeline())
	if err != nil {
		return nil, storeError("aggregate critics", err)
	}

	var rows []criticRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, storeError("decode critics", err)
	}

	critics := make([]model.Critic, 0, len(rows))
	for _, row := range rows {
		critics = append(critics, model.Critic{Email: row.Email, CommentCount: row.Count.Count})
	}

	return critics, nil
}

// mostActiveCommentersPipeline counts, for every user, the comments carrying the user's email,
// keeps the top 20 users and unwinds the single element count array. Users without comments
// produce an empty array and disappear in the unwind.
func mostActiveCommentersPipeline() mongo.Pipeline {
	countComments := bson.A{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$email", "$$email"}}}},
		}}},
		bson.D{{Key: "$count", Value: "count"}},
	}

	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: commentCollection},
			{Key: "let", Value: bson.D{{Key: "email", Value: "$email"}}},
			{Key: "pipeline", Value: countComments},
			{Key: "as", Value: "count"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: criticsLimit}},
		{{Key: "$project", Value: bson.D{{Key: "name", Value: 0}, {Key: "password", Value: 0}}}},
		{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$count"}}}},
	}
}

func (r *commentMongoRepository) validateComment(comment *model.Comment) error {
	if comment == nil {
		return invalidArgument("comment is required")
	}

	if err := r.validator.Struct(comment); err != nil {
		return invalidArgument("%s", err.Error())
	}

	return nil
}
