package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/postboard/blog-api/internal/core/domain"
)

const (
	collectionAccounts = "accounts"
	collectionPosts    = "posts"
)

// AccountRepository implements ports.AccountRepository using MongoDB.
// Documents are keyed by the account UUID in its string form.
type AccountRepository struct {
	col   *mongo.Collection
	posts *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		col:   db.Collection(collectionAccounts),
		posts: db.Collection(collectionPosts),
	}
}

type accountDoc struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash"`
	FirstName    string     `bson:"first_name,omitempty"`
	LastName     string     `bson:"last_name,omitempty"`
	BirthDate    *time.Time `bson:"birth_date,omitempty"`
	IsActive     bool       `bson:"is_active"`
	IsSuperuser  bool       `bson:"is_superuser"`
	IsVerified   bool       `bson:"is_verified"`
	CreatedAt    time.Time  `bson:"created_at"`
}

func toAccountDoc(a *domain.Account) accountDoc {
	return accountDoc{
		ID:           a.ID.String(),
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		BirthDate:    a.BirthDate,
		IsActive:     a.IsActive,
		IsSuperuser:  a.IsSuperuser,
		IsVerified:   a.IsVerified,
		CreatedAt:    a.CreatedAt.UTC(),
	}
}

func (d accountDoc) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", d.ID, err)
	}
	return &domain.Account{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		BirthDate:    d.BirthDate,
		IsActive:     d.IsActive,
		IsSuperuser:  d.IsSuperuser,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt,
	}, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain()
}

// Create inserts a new account. The unique email index turns a concurrent
// duplicate registration into domain.ErrAccountExists.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toAccountDoc(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	created := *a
	return &created, nil
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toAccountDoc(a)
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrAccountNotFound
	}
	updated := *a
	return &updated, nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"password_hash": hash}},
	)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes the account's posts, then the account itself.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.posts.DeleteMany(ctx, bson.M{"author_id": id.String()}); err != nil {
		return fmt.Errorf("delete account posts: %w", err)
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}

	out := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		a, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
