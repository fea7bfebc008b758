package checkout

import (
	"context"
	"errors"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// MongoStore implements the checkout ports against MongoDB. Reservation
// correctness relies on per-document atomicity of the conditional update;
// no multi-document transaction is used.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) FindByRef(ctx context.Context, ref string) (models.Product, bool, error) {
	var filter bson.M
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		filter = bson.M{"_id": id}
	} else if legacyID, err := strconv.Atoi(ref); err == nil {
		filter = bson.M{"id": legacyID}
	} else {
		return models.Product{}, false, nil
	}

	var product models.Product
	err := s.db.Collection("products").FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, err
	}
	return product, true, nil
}

func (s *MongoStore) Reserve(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	res, err := s.db.Collection("products").UpdateOne(ctx,
		bson.M{
			"_id":   id,
			"stock": bson.M{"$gte": qty},
		},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) Release(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := s.db.Collection("products").UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": qty}},
	)
	return err
}

func (s *MongoStore) Insert(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (s *MongoStore) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"cart": []models.CartItem{}}},
	)
	return err
}
