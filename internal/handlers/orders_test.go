package handlers

import (
	"strings"
	"testing"

	"storefront/internal/models"
)

func TestPaymentResultForCardRequiresConfirmation(t *testing.T) {
	order := models.Order{PaymentMethod: models.PaymentMethodCard}

	if _, err := paymentResultFor(order, payOrderRequest{}); err == nil {
		t.Fatal("expected error for card payment without confirmation id")
	}
	if _, err := paymentResultFor(order, payOrderRequest{ID: "pi_1"}); err == nil {
		t.Fatal("expected error for confirmation without status")
	}

	result, err := paymentResultFor(order, payOrderRequest{ID: "pi_1", Status: "succeeded"})
	if err != nil {
		t.Fatalf("valid card confirmation rejected: %v", err)
	}
	if result.ID != "pi_1" || result.Status != "succeeded" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPaymentResultForCODGeneratesReceipt(t *testing.T) {
	order := models.Order{PaymentMethod: models.PaymentMethodCOD}

	result, err := paymentResultFor(order, payOrderRequest{})
	if err != nil {
		t.Fatalf("cod settlement rejected: %v", err)
	}
	if !strings.HasPrefix(result.ID, "cod_") || len(result.ID) <= len("cod_") {
		t.Fatalf("expected generated receipt id, got %q", result.ID)
	}
	if result.Status != "settled" {
		t.Fatalf("expected settled status, got %q", result.Status)
	}

	second, err := paymentResultFor(order, payOrderRequest{})
	if err != nil {
		t.Fatalf("second cod settlement rejected: %v", err)
	}
	if second.ID == result.ID {
		t.Fatal("receipt ids must be unique per settlement")
	}
}
