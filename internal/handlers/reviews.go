package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type createReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

// CreateReview appends a review and recomputes the product's rating as the
// arithmetic mean of all review ratings. One review per user per product.
func CreateReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/:id/reviews"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req createReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

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

		if hasReviewFrom(product.Reviews, identity.UserID) {
			respondWithError(c, http.StatusConflict, route, "product already reviewed")
			return
		}

		review := models.Review{
			User:      identity.UserID,
			Name:      identity.Name,
			Rating:    req.Rating,
			Comment:   req.Comment,
			CreatedAt: time.Now(),
		}

		// The filter re-checks for a concurrent duplicate: the append only
		// matches while no review from this user exists. The count and mean
		// are derived from the stored array in the same update, so two
		// concurrent reviewers cannot overwrite each other's aggregate.
		update := mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"reviews": bson.M{"$concatArrays": bson.A{
					bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
					bson.A{bson.M{"$literal": review}},
				}},
			}}},
			{{Key: "$set", Value: bson.M{
				"numReviews": bson.M{"$size": "$reviews"},
				"rating":     bson.M{"$round": bson.A{bson.M{"$avg": "$reviews.rating"}, 2}},
				"updatedAt":  time.Now(),
			}}},
		}
		res, err := db.Collection("products").UpdateOne(ctx,
			bson.M{
				"_id":          product.ID,
				"reviews.user": bson.M{"$ne": identity.UserID},
			},
			update,
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusConflict, route, "product already reviewed")
			return
		}

		log.Println("[REVIEW] [INFO] review added for product:", product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"message": "review added"})
	}
}

func hasReviewFrom(reviews []models.Review, userID primitive.ObjectID) bool {
	for _, r := range reviews {
		if r.User == userID {
			return true
		}
	}
	return false
}

// meanRating is the simple arithmetic mean rounded to two decimals, not
// weighted or decayed.
func meanRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*100) / 100
}
