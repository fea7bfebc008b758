package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

type createOrderItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" binding:"required"`
	ShippingAddress models.ShippingAddress   `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                   `json:"paymentMethod" binding:"required"`
}

// payOrderRequest carries the gateway confirmation for card payments.
// Cash-on-delivery settlements send an empty body; a receipt id is
// generated server-side.
type payOrderRequest struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"updateTime"`
	EmailAddress string `json:"emailAddress"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateOrder runs the checkout workflow and returns the full persisted
// order on success.
func CreateOrder(db *mongo.Database, svc *checkout.Service, feed *OrderFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		input := checkout.PlaceOrderInput{
			Items:           make([]checkout.LineInput, 0, len(req.Items)),
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, checkout.LineInput{
				Ref:      item.Product,
				Quantity: item.Quantity,
			})
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, err := svc.PlaceOrder(ctx, identity.UserID, input)
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		log.Println("[ORDER] [INFO] order created for user:", identity.UserID.Hex())
		feed.Broadcast(order)
		c.JSON(http.StatusCreated, order)
	}
}

// GetMyOrders lists the requesting user's orders, newest first.
func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/mine"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx,
			bson.M{"user": identity.UserID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

// GetOrder returns one order. Owners see their own orders; admins see any.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		order, ok := loadOrder(c, db, route)
		if !ok {
			return
		}

		if order.User != identity.UserID && !identity.IsAdmin() {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// paymentResultFor builds the payment record for an order. Card payments
// must reference the gateway confirmation; cash-on-delivery settlements
// get a generated receipt id.
func paymentResultFor(order models.Order, req payOrderRequest) (models.PaymentResult, error) {
	if req.ID == "" {
		if order.PaymentMethod != models.PaymentMethodCOD {
			return models.PaymentResult{}, errors.New("payment confirmation id required")
		}
		return models.PaymentResult{
			ID:     "cod_" + uuid.NewString(),
			Status: "settled",
		}, nil
	}
	if req.Status == "" {
		return models.PaymentResult{}, errors.New("payment confirmation status required")
	}
	return models.PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.EmailAddress,
	}, nil
}

// PayOrder records a payment confirmation referencing the payment intent
// and advances the order.
func PayOrder(db *mongo.Database, feed *OrderFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/pay"
		defer handlePanic(c, route)

		identity, ok := middleware.IdentityFrom(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req payOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondValidationError(c, err)
			return
		}

		order, ok := loadOrder(c, db, route)
		if !ok {
			return
		}

		if order.User != identity.UserID && !identity.IsAdmin() {
			respondWithError(c, http.StatusForbidden, route, "forbidden")
			return
		}

		result, err := paymentResultFor(order, req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err := checkout.MarkPaid(&order, result, time.Now().UTC()); err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		if !persistOrderStatus(c, db, route, &order) {
			return
		}

		log.Println("[ORDER] [INFO] order paid:", order.ID.Hex())
		feed.Broadcast(order)
		c.JSON(http.StatusOK, order)
	}
}

// DeliverOrder marks a paid order delivered.
func DeliverOrder(db *mongo.Database, feed *OrderFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/deliver"
		defer handlePanic(c, route)

		order, ok := loadOrder(c, db, route)
		if !ok {
			return
		}

		if err := checkout.MarkDelivered(&order, time.Now().UTC()); err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		if !persistOrderStatus(c, db, route, &order) {
			return
		}

		log.Println("[ORDER] [INFO] order delivered:", order.ID.Hex())
		feed.Broadcast(order)
		c.JSON(http.StatusOK, order)
	}
}

// UpdateOrderStatus moves an order along the lifecycle chain, including
// cancellation.
func UpdateOrderStatus(db *mongo.Database, feed *OrderFeed) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/status"
		defer handlePanic(c, route)

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !checkout.ValidStatus(req.Status) {
			respondWithError(c, http.StatusBadRequest, route, "unknown status")
			return
		}

		order, ok := loadOrder(c, db, route)
		if !ok {
			return
		}

		if err := checkout.AdvanceStatus(&order, req.Status, time.Now().UTC()); err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		if !persistOrderStatus(c, db, route, &order) {
			return
		}

		log.Println("[ORDER] [INFO] order status updated:", order.ID.Hex(), "->", order.Status)
		feed.Broadcast(order)
		c.JSON(http.StatusOK, order)
	}
}

// GetOrders lists all orders for the admin panel, newest first.
func GetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, orders)
	}
}

func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}

		log.Println("[ORDER] [INFO] order deleted:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

func loadOrder(c *gin.Context, db *mongo.Database, route string) (models.Order, bool) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid id")
		return models.Order{}, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var order models.Order
	err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respondWithError(c, http.StatusNotFound, route, "order not found")
		return models.Order{}, false
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return models.Order{}, false
	}
	return order, true
}

// persistOrderStatus writes back only the mutable status fields; the line
// item snapshots and totals stay untouched after creation.
func persistOrderStatus(c *gin.Context, db *mongo.Database, route string, order *models.Order) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	_, err := db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": order.ID},
		bson.M{"$set": bson.M{
			"status":        order.Status,
			"isPaid":        order.IsPaid,
			"paidAt":        order.PaidAt,
			"paymentResult": order.PaymentResult,
			"isDelivered":   order.IsDelivered,
			"deliveredAt":   order.DeliveredAt,
			"updatedAt":     order.UpdatedAt,
		}},
	)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return false
	}
	return true
}

func respondCheckoutError(c *gin.Context, route string, err error) {
	var validationErr checkout.ValidationError
	if errors.As(err, &validationErr) {
		respondWithError(c, http.StatusBadRequest, route, validationErr.Msg)
		return
	}

	var notFoundErr checkout.ProductNotFoundError
	if errors.As(err, &notFoundErr) {
		log.Printf("[%s] returning error %d: %s", route, http.StatusNotFound, notFoundErr.Error())
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":   "product not found",
			"product": notFoundErr.Ref,
		})
		return
	}

	var stockErr checkout.InsufficientStockError
	if errors.As(err, &stockErr) {
		log.Printf("[%s] returning error %d: %s", route, http.StatusConflict, stockErr.Error())
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
		return
	}

	var transitionErr checkout.TransitionError
	if errors.As(err, &transitionErr) {
		respondWithError(c, http.StatusConflict, route, transitionErr.Error())
		return
	}

	log.Printf("[%s] checkout failed: %v", route, err)
	respondWithError(c, http.StatusInternalServerError, route, "db error")
}
