package handlers

import (
	"log"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

type createPaymentIntentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// SetStripeKey configures the Stripe client credential. The stripe SDK
// holds the key in a package global, so this must happen before the
// server starts serving requests.
func SetStripeKey(secretKey string) {
	stripe.Key = secretKey
}

// CreatePaymentIntent opens a card payment intent with the external
// payment service and returns the client-opaque confirmation secret. The
// cash-on-delivery path never calls this. The Stripe API key must be set
// once at startup via SetStripeKey before any request arrives.
func CreatePaymentIntent() gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payment/create-payment-intent"
		defer handlePanic(c, route)

		var req createPaymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		params := &stripe.PaymentIntentParams{
			// Stripe expects the amount in cents.
			Amount:   stripe.Int64(int64(math.Round(req.Amount * 100))),
			Currency: stripe.String(string(stripe.CurrencyUSD)),
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
		}

		intent, err := paymentintent.New(params)
		if err != nil {
			log.Println("[PAYMENT] [ERROR] payment intent creation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "payment intent creation failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"clientSecret": intent.ClientSecret,
		})
	}
}

// GetPaymentConfig exposes the publishable key the client needs to open
// the card form.
func GetPaymentConfig(publishableKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"publishableKey": publishableKey,
		})
	}
}
