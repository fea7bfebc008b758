package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle states. Status only moves forward along this chain;
// cancelled is reachable from any pre-delivered state.
const (
	OrderStatusCreated    = "created"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCard = "card"
	PaymentMethodCOD  = "cod"
)

// OrderItem is an immutable snapshot of a product line at purchase time.
// Price is the unit price charged, decoupled from the live product price.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	LegacyID int                `bson:"id,omitempty" json:"legacyId,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
	Price    float64            `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// ShippingAddress is the delivery destination captured with the order.
type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// PaymentResult records the external payment confirmation that marked the
// order paid. ID references the payment intent.
type PaymentResult struct {
	ID           string `bson:"id" json:"id"`
	Status       string `bson:"status" json:"status"`
	UpdateTime   string `bson:"updateTime,omitempty" json:"updateTime,omitempty"`
	EmailAddress string `bson:"emailAddress,omitempty" json:"emailAddress,omitempty"`
}

// Order is the persisted order document. Items and totals are immutable
// after creation; only the status fields and timestamps mutate. User may
// dangle after an admin deletes the account — orders are never cascaded.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentResult   *PaymentResult     `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	ItemsPrice      float64            `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice        float64            `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice   float64            `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
