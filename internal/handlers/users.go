package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

/* =========================
   CART / WISHLIST CACHE
   The server-side cart and wishlist are a per-user cache synced from the
   client; checkout reads the submitted cart, never this cache.
========================= */

type syncCartRequest struct {
	Items []syncCartItem `json:"items" binding:"required"`
}

type syncCartItem struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// SyncCart replaces the user's cart cache with the submitted state.
func SyncCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/users/me/cart"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req syncCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		cart := make([]models.CartItem, 0, len(req.Items))
		for _, item := range req.Items {
			productID, err := primitive.ObjectIDFromHex(item.Product)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid product reference")
				return
			}
			cart = append(cart, models.CartItem{
				Product:  productID,
				Quantity: item.Quantity,
			})
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": identity.UserID},
			bson.M{"$set": bson.M{"cart": cart, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"cart": cart})
	}
}

// AddToWishlist adds a product reference to the user's wishlist set.
func AddToWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/me/wishlist/:productId"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, found, err := findProductByRef(ctx, db, c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !found {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": identity.UserID},
			bson.M{
				"$addToSet": bson.M{"wishlist": product.ID},
				"$set":      bson.M{"updatedAt": time.Now()},
			},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "added to wishlist"})
	}
}

// RemoveFromWishlist removes a product reference from the wishlist set.
func RemoveFromWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/users/me/wishlist/:productId"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product reference")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": identity.UserID},
			bson.M{
				"$pull": bson.M{"wishlist": productID},
				"$set":  bson.M{"updatedAt": time.Now()},
			},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
	}
}

/* =========================
   ADMIN USER MANAGEMENT
========================= */

func GetUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("users").Find(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, users)
	}
}

type adminUpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func UpdateUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/users/:id"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req adminUpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if name := strings.TrimSpace(req.Name); name != "" {
			update["name"] = name
		}
		if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
			update["email"] = email
		}
		if req.Role != "" {
			if req.Role != models.RoleUser && req.Role != models.RoleAdmin {
				respondWithError(c, http.StatusBadRequest, route, "invalid role")
				return
			}
			update["role"] = req.Role
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err = db.Collection("users").FindOneAndUpdate(ctx,
			bson.M{"_id": userID},
			bson.M{"$set": update},
			mongoAfterUpdate(),
		).Decode(&user)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		log.Println("[USER] [INFO] user updated by admin:", user.Email)
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUser removes the account. Past orders keep their user reference,
// which dangles from then on; there is no cascade.
func DeleteUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/users/:id"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("users").DeleteOne(ctx, bson.M{"_id": userID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		log.Println("[USER] [INFO] user deleted:", userID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "user removed"})
	}
}
