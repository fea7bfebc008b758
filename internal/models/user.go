package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserAddress is the default address kept on the user profile.
type UserAddress struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// CartItem is one product/quantity pair in the user's cart cache.
type CartItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// User is the account document. The embedded wishlist and cart are a
// convenience cache synced from the client; orders never read from them.
// PasswordHash is a bcrypt hash and is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"passwordHash" json:"-"`
	Phone        string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender       string               `bson:"gender,omitempty" json:"gender,omitempty"`
	DOB          string               `bson:"dob,omitempty" json:"dob,omitempty"`
	Address      UserAddress          `bson:"address,omitempty" json:"address"`
	Role         string               `bson:"role" json:"role"`
	Wishlist     []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	Cart         []CartItem           `bson:"cart" json:"cart"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}
