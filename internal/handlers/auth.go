package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type RegisterRequest struct {
	Name     string             `json:"name" binding:"required"`
	Email    string             `json:"email" binding:"required,email"`
	Password string             `json:"password" binding:"required,min=6"`
	Phone    string             `json:"phone"`
	Gender   string             `json:"gender"`
	DOB      string             `json:"dob"`
	Address  models.UserAddress `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileResponse struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Email    string               `json:"email"`
	Phone    string               `json:"phone,omitempty"`
	Gender   string               `json:"gender,omitempty"`
	DOB      string               `json:"dob,omitempty"`
	Address  models.UserAddress   `json:"address"`
	Role     string               `json:"role"`
	Wishlist []primitive.ObjectID `json:"wishlist"`
	Cart     []models.CartItem    `json:"cart"`
}

func Register(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			log.Println("[AUTH] [ERROR] register db error:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			log.Println("[AUTH] [ERROR] register email exists:", email)
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		now := time.Now()
		user := models.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			Phone:        strings.TrimSpace(req.Phone),
			Gender:       req.Gender,
			DOB:          req.DOB,
			Address:      req.Address,
			Role:         models.RoleUser,
			Wishlist:     []primitive.ObjectID{},
			Cart:         []models.CartItem{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		id, _ := res.InsertedID.(primitive.ObjectID)
		token, err := issueAccessToken(id, name, email, models.RoleUser, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] register token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, gin.H{
			"id":    id.Hex(),
			"name":  name,
			"email": email,
			"role":  models.RoleUser,
			"token": token,
		})
	}
}

func Login(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials:", email)
			respondWithError(c, http.StatusUnauthorized, route, "invalid email or password")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials:", email)
			respondWithError(c, http.StatusUnauthorized, route, "invalid email or password")
			return
		}

		token, err := issueAccessToken(user.ID, user.Name, user.Email, user.Role, jwtSecret, accessTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", email)
		c.JSON(http.StatusOK, gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
			"token": token,
		})
	}
}

func GetProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/profile"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": identity.UserID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusOK, profileResponse{
			ID:       user.ID.Hex(),
			Name:     user.Name,
			Email:    user.Email,
			Phone:    user.Phone,
			Gender:   user.Gender,
			DOB:      user.DOB,
			Address:  user.Address,
			Role:     user.Role,
			Wishlist: user.Wishlist,
			Cart:     user.Cart,
		})
	}
}

type updateProfileRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Phone    string              `json:"phone"`
	Gender   string              `json:"gender"`
	DOB      string              `json:"dob"`
	Address  *models.UserAddress `json:"address"`
}

func UpdateProfile(db *mongo.Database, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/profile"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req updateProfileRequest
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
		if phone := strings.TrimSpace(req.Phone); phone != "" {
			update["phone"] = phone
		}
		if req.Gender != "" {
			update["gender"] = req.Gender
		}
		if req.DOB != "" {
			update["dob"] = req.DOB
		}
		if req.Address != nil {
			update["address"] = req.Address
		}
		if password := strings.TrimSpace(req.Password); password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
				return
			}
			update["passwordHash"] = string(hash)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOneAndUpdate(ctx,
			bson.M{"_id": identity.UserID},
			bson.M{"$set": update},
			mongoAfterUpdate(),
		).Decode(&user)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		token, err := issueAccessToken(user.ID, user.Name, user.Email, user.Role, jwtSecret, accessTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] profile updated:", user.Email)
		c.JSON(http.StatusOK, gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
			"token": token,
		})
	}
}

func issueAccessToken(userID primitive.ObjectID, name, email, role, secret string, accessTTL time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"name":   name,
		"email":  email,
		"role":   role,
		"exp":    time.Now().Add(accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
