package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestMeanRating(t *testing.T) {
	cases := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"no reviews", nil, 0},
		{"single review", []int{4}, 4},
		{"simple mean", []int{5, 3}, 4},
		{"rounded to two decimals", []int{5, 4, 4}, 4.33},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]models.Review, 0, len(tc.ratings))
			for _, r := range tc.ratings {
				reviews = append(reviews, models.Review{Rating: r})
			}
			if got := meanRating(reviews); got != tc.want {
				t.Fatalf("meanRating(%v) = %v, want %v", tc.ratings, got, tc.want)
			}
		})
	}
}

func TestHasReviewFrom(t *testing.T) {
	reviewer := primitive.NewObjectID()
	other := primitive.NewObjectID()
	reviews := []models.Review{
		{User: reviewer, Rating: 5},
	}

	if !hasReviewFrom(reviews, reviewer) {
		t.Fatal("expected existing reviewer to be detected")
	}
	if hasReviewFrom(reviews, other) {
		t.Fatal("unexpected match for a user without a review")
	}
	if hasReviewFrom(nil, reviewer) {
		t.Fatal("empty review list should never match")
	}
}
