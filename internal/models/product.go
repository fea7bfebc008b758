package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a single customer review embedded in a product document.
// One review per user per product.
type Review struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Product is the catalog document. LegacyID carries the human-assigned
// numeric key of seeded products; new products only get the ObjectID.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LegacyID      int                `bson:"id,omitempty" json:"legacyId,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Category      string             `bson:"category" json:"category"`
	Image         string             `bson:"image" json:"image"`
	Images        []string           `bson:"images,omitempty" json:"images,omitempty"`
	Brand         string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Tags          []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Featured      bool               `bson:"featured" json:"featured"`
	Stock         int                `bson:"stock" json:"stock"`
	InStock       bool               `bson:"-" json:"inStock"`
	Rating        float64            `bson:"rating" json:"rating"`
	NumReviews    int                `bson:"numReviews" json:"numReviews"`
	Reviews       []Review           `bson:"reviews" json:"reviews"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
