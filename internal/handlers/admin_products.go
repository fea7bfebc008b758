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

	"storefront/internal/models"
)

type createProductRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	Price         float64  `json:"price" binding:"required,gte=0"`
	OriginalPrice float64  `json:"originalPrice"`
	Category      string   `json:"category" binding:"required"`
	Image         string   `json:"image" binding:"required"`
	Images        []string `json:"images"`
	Brand         string   `json:"brand"`
	Tags          []string `json:"tags"`
	Featured      bool     `json:"featured"`
	Stock         int      `json:"stock" binding:"gte=0"`
}

type updateProductRequest struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Price         *float64  `json:"price"`
	OriginalPrice *float64  `json:"originalPrice"`
	Category      *string   `json:"category"`
	Image         *string   `json:"image"`
	Images        *[]string `json:"images"`
	Brand         *string   `json:"brand"`
	Tags          *[]string `json:"tags"`
	Featured      *bool     `json:"featured"`
	Stock         *int      `json:"stock"`
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		now := time.Now()
		product := models.Product{
			Name:          strings.TrimSpace(req.Name),
			Description:   req.Description,
			Price:         req.Price,
			OriginalPrice: req.OriginalPrice,
			Category:      req.Category,
			Image:         req.Image,
			Images:        req.Images,
			Brand:         req.Brand,
			Tags:          req.Tags,
			Featured:      req.Featured,
			Stock:         req.Stock,
			Reviews:       []models.Review{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			log.Println("[PRODUCT] [ERROR] create failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		log.Println("[PRODUCT] [INFO] product created:", product.Name)
		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if req.Name != nil {
			update["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			update["description"] = *req.Description
		}
		if req.Price != nil {
			if *req.Price < 0 {
				respondWithError(c, http.StatusBadRequest, route, "price must not be negative")
				return
			}
			update["price"] = *req.Price
		}
		if req.OriginalPrice != nil {
			update["originalPrice"] = *req.OriginalPrice
		}
		if req.Category != nil {
			update["category"] = *req.Category
		}
		if req.Image != nil {
			update["image"] = *req.Image
		}
		if req.Images != nil {
			update["images"] = *req.Images
		}
		if req.Brand != nil {
			update["brand"] = *req.Brand
		}
		if req.Tags != nil {
			update["tags"] = *req.Tags
		}
		if req.Featured != nil {
			update["featured"] = *req.Featured
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondWithError(c, http.StatusBadRequest, route, "stock must not be negative")
				return
			}
			update["stock"] = *req.Stock
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

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(ctx,
			bson.M{"_id": product.ID},
			bson.M{"$set": update},
			mongoAfterUpdate(),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updated.InStock = updated.Stock > 0
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
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

		if _, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": product.ID}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[PRODUCT] [INFO] product deleted:", product.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "product removed"})
	}
}
