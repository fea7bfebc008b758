package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func performRequest(handler gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, *Identity) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()

	var captured *Identity
	r := gin.New()
	r.GET("/probe", handler, func(c *gin.Context) {
		if identity, ok := IdentityFrom(c); ok {
			captured = &identity
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w, captured
}

func TestRequireUserMissingToken(t *testing.T) {
	w, _ := performRequest(RequireUser(testSecret), "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireUserMalformedHeader(t *testing.T) {
	w, _ := performRequest(RequireUser(testSecret), "Token abc")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireUserExpiredToken(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   "user",
		"exp":    time.Now().Add(-time.Minute).Unix(),
	})

	w, _ := performRequest(RequireUser(testSecret), "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestRequireUserInjectsIdentity(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, jwt.MapClaims{
		"userId": userID.Hex(),
		"name":   "Ada",
		"email":  "ada@example.com",
		"role":   "user",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	w, identity := performRequest(RequireUser(testSecret), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if identity == nil {
		t.Fatal("identity not injected")
	}
	if identity.UserID != userID || identity.Role != "user" || identity.Email != "ada@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.IsAdmin() {
		t.Fatal("user role must not be admin")
	}
}

func TestRequireAdminRejectsUserRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": primitive.NewObjectID().Hex(),
		"role":   "user",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	w, _ := performRequest(RequireAdmin(testSecret), "Bearer "+token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdminAcceptsAdminRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": primitive.NewObjectID().Hex(),
		"role":   "admin",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	w, identity := performRequest(RequireAdmin(testSecret), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if identity == nil || !identity.IsAdmin() {
		t.Fatalf("expected admin identity, got %+v", identity)
	}
}
