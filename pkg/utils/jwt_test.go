package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pontis/backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	ConfigureJWT("unit-test-secret", 1)

	user := &models.User{
		Email:    "marc@pontis.test",
		Username: "marc",
		Role:     models.UserRoleUser,
	}
	user.ID = uuid.New()

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if claims.Email != user.Email || claims.Username != user.Username {
		t.Fatalf("claims do not match the user: %+v", claims)
	}
	if claims.Role != models.UserRoleUser {
		t.Fatalf("expected role USER, got %s", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	ConfigureJWT("unit-test-secret", 1)

	if _, err := ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("expected an error for a malformed token")
	}
}

func TestValidateTokenRejectsTamperedSignature(t *testing.T) {
	ConfigureJWT("unit-test-secret", 1)

	user := &models.User{Email: "marc@pontis.test", Username: "marc", Role: models.UserRoleUser}
	user.ID = uuid.New()

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected a three-part JWT, got %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := ValidateToken(tampered); err == nil {
		t.Fatalf("expected an error for a tampered signature")
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	ConfigureJWT("first-secret", 1)

	user := &models.User{Email: "marc@pontis.test", Username: "marc", Role: models.UserRoleUser}
	user.ID = uuid.New()

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	ConfigureJWT("second-secret", 1)
	defer ConfigureJWT("first-secret", 1)

	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("expected an error for a token signed with another secret")
	}
}
