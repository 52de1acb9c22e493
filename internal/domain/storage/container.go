package storage

import (
	"context"
	"fmt"

	"goomer/internal/domain/reviews"
	"goomer/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Container struct {
	Reviews reviews.Store
	Users   users.Store
}

func NewMongoContainer(db *mongo.Database) *Container {
	return &Container{
		Reviews: reviews.NewMongoRepository(db),
		Users:   users.NewMongoRepository(db),
	}
}

func NewPostgresContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Reviews: reviews.NewPostgresRepository(db),
		Users:   users.NewRepository(db),
	}
}

func NewMemoryContainer() *Container {
	return &Container{
		Reviews: reviews.NewMemoryRepository(),
		Users:   users.NewMemoryRepository(),
	}
}

// EnsureSchema creates tables and indexes. Safe to call on every start.
func (c *Container) EnsureSchema(ctx context.Context) error {
	if err := c.Reviews.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("reviews schema: %w", err)
	}
	if err := c.Users.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("users schema: %w", err)
	}
	return nil
}
