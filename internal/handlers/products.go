package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

/*
GET /api/products
- category, search, featured filters
- pagination applied only when page + limit are both present
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		filter := bson.M{}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		if featured := strings.TrimSpace(c.Query("featured")); featured != "" {
			filter["featured"] = featured == "true"
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		pageStr := c.Query("page")
		limitStr := c.Query("limit")

		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}

			findOptions.
				SetSkip((page - 1) * limit).
				SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, products)
	}
}

// GetProduct resolves a single product by the generated key first and the
// legacy numeric key second.
func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, found, err := findProductByRef(ctx, db, c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !found {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		product.InStock = product.Stock > 0
		c.JSON(http.StatusOK, product)
	}
}

// GetCategories lists the distinct categories present in the catalog.
func GetCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/categories"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		values, err := db.Collection("products").Distinct(ctx, "category", bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		categories := make([]string, 0, len(values))
		for _, v := range values {
			if s, ok := v.(string); ok && s != "" {
				categories = append(categories, s)
			}
		}

		c.JSON(http.StatusOK, categories)
	}
}

func findProductByRef(ctx context.Context, db *mongo.Database, ref string) (models.Product, bool, error) {
	var filter bson.M
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		filter = bson.M{"_id": id}
	} else if legacyID, err := strconv.Atoi(ref); err == nil {
		filter = bson.M{"id": legacyID}
	} else {
		return models.Product{}, false, nil
	}

	var product models.Product
	err := db.Collection("products").FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, err
	}
	return product, true, nil
}

// normalizeProductDocument tolerates legacy seeded documents whose numeric
// fields were stored with mixed BSON types.
func normalizeProductDocument(raw bson.M) (models.Product, error) {
	if val, ok := raw["stock"]; ok {
		raw["stock"] = toInt(val)
	} else {
		raw["stock"] = 0
	}

	if val, ok := raw["id"]; ok {
		raw["id"] = toInt(val)
	}

	if val, ok := raw["featured"]; ok {
		switch typed := val.(type) {
		case string:
			raw["featured"] = typed == "true"
		case bool:
			// already bool, keep as is
		default:
			raw["featured"] = false
		}
	} else {
		raw["featured"] = false
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}

	p.InStock = p.Stock > 0

	return p, nil
}

func toInt(val interface{}) int {
	switch typed := val.(type) {
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case int:
		return typed
	default:
		return 0
	}
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		product, err := normalizeProductDocument(raw)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
