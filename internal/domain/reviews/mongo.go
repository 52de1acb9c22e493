package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"userId"`
	RestaurantName string             `bson:"restaurantName"`
	Address        string             `bson:"address"`
	City           string             `bson:"city"`
	Ratings        Ratings            `bson:"ratings"`
	Price          float64            `bson:"price"`
	Comment        string             `bson:"comment"`
	Images         []string           `bson:"images"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d reviewDocument) toReview() Review {
	r := Review{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		RestaurantName: d.RestaurantName,
		Address:        d.Address,
		City:           d.City,
		Ratings:        d.Ratings,
		Price:          d.Price,
		Comment:        d.Comment,
		Images:         d.Images,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
	normalizeImages(&r)
	return r
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection("reviews")}
}

// EnsureSchema creates the indexes backing the listing sort and the owner filter.
func (r *MongoRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create review indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, review *Review) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	now := Now()
	normalizeImages(review)
	doc := reviewDocument{
		ID:             primitive.NewObjectID(),
		UserID:         review.UserID,
		RestaurantName: review.RestaurantName,
		Address:        review.Address,
		City:           review.City,
		Ratings:        review.Ratings,
		Price:          review.Price,
		Comment:        review.Comment,
		Images:         review.Images,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	review.ID = doc.ID.Hex()
	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var doc reviewDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}

	review := doc.toReview()
	return &review, nil
}

func (r *MongoRepository) GetPaginated(ctx context.Context, q Query) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	filter := bson.M{}
	if q.UserID != "" {
		filter["userId"] = q.UserID
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	p := q.Pagination
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	out := make([]Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toReview())
	}

	p.ComputeMeta(int(total))
	return &Page{Reviews: out, Pagination: p}, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, u Update) (*Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{}
	if u.RestaurantName != nil {
		set["restaurantName"] = *u.RestaurantName
	}
	if u.Address != nil {
		set["address"] = *u.Address
	}
	if u.City != nil {
		set["city"] = *u.City
	}
	if u.Ratings != nil {
		if u.Ratings.Food != nil {
			set["ratings.food"] = *u.Ratings.Food
		}
		if u.Ratings.Service != nil {
			set["ratings.service"] = *u.Ratings.Service
		}
		if u.Ratings.Environment != nil {
			set["ratings.environment"] = *u.Ratings.Environment
		}
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Comment != nil {
		set["comment"] = *u.Comment
	}

	update := bson.M{"$max": bson.M{"updatedAt": Now()}}
	if len(set) > 0 {
		update["$set"] = set
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc reviewDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	review := doc.toReview()
	return &review, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
