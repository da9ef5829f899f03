package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrRecordNotFound is returned by the Find methods when no row matches.
var ErrRecordNotFound = gorm.ErrRecordNotFound

const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a unique index violation from either
// supported driver.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Store is the persistent store for users, posts and comments.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Comments() CommentRepository
	// WithTransaction runs fn inside a single transaction. Any error returned by
	// fn rolls back every operation performed through tx.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ViewQuery narrows and pages an enriched listing.
type ViewQuery struct {
	// Author filters on the joined author username when not empty.
	Author string
	// PostID restricts comment listings to one post when not zero.
	PostID uint
	Offset int
	// Limit of zero returns every matching row.
	Limit int
	// OldestFirst flips the default most-recent-first ordering.
	OldestFirst bool
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a gorm backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *gormStore) Posts() PostRepository {
	return &postRepository{db: s.db}
}

func (s *gormStore) Comments() CommentRepository {
	return &commentRepository{db: s.db}
}

// WithTransaction executes fn within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}

func applyPaging(q *gorm.DB, query ViewQuery) *gorm.DB {
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	return q
}
