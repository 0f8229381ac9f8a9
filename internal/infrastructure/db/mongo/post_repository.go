package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/postboard/blog-api/internal/core/domain"
	"github.com/postboard/blog-api/internal/core/ports"
)

// PostRepository implements ports.PostRepository using MongoDB.
type PostRepository struct {
	col      *mongo.Collection
	accounts *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		col:      db.Collection(collectionPosts),
		accounts: db.Collection(collectionAccounts),
	}
}

type postDoc struct {
	ID       string    `bson:"_id"`
	Title    string    `bson:"title"`
	Content  string    `bson:"content"`
	AuthorID string    `bson:"author_id"`
	PubDate  time.Time `bson:"pub_date"`
}

func (d postDoc) toDomain() (*domain.Post, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", d.ID, err)
	}
	author, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("post %q author: %w", d.ID, err)
	}
	return &domain.Post{
		ID:       id,
		Title:    d.Title,
		Content:  d.Content,
		AuthorID: author,
		PubDate:  d.PubDate,
	}, nil
}

// Create inserts a new post document.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, postDoc{
		ID:       p.ID.String(),
		Title:    p.Title,
		Content:  p.Content,
		AuthorID: p.AuthorID.String(),
		PubDate:  p.PubDate.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc postDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return doc.toDomain()
}

// List returns posts newest first. An author email filter is resolved to the
// ids of every account whose email contains it; no match yields an empty page.
func (r *PostRepository) List(ctx context.Context, f ports.ListPostsFilter) ([]*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.AuthorEmail != "" {
		ids, err := r.authorIDs(ctx, f.AuthorEmail)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []*domain.Post{}, nil
		}
		filter["author_id"] = bson.M{"$in": ids}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "pub_date", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	out := make([]*domain.Post, 0, len(docs))
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PostRepository) authorIDs(ctx context.Context, email string) ([]string, error) {
	cur, err := r.accounts.Find(ctx, emailContains(email), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	defer cur.Close(ctx)

	var authors []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &authors); err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// emailContains matches accounts whose email contains s literally.
func emailContains(s string) bson.M {
	return bson.M{"email": primitive.Regex{Pattern: regexp.QuoteMeta(s)}}
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes used by listing and cascade deletes.
func (r *PostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "pub_date", Value: -1}}},
	})
	return err
}
