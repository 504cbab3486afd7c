package auth

import (
	"testing"
	"time"

	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var testCfg = config.JWTConfig{Secret: "secret", Issuer: "https://auth.cupshup.test", Audience: "authenticated"}

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims AccessTokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func baseClaims(role enums.Role) AccessTokenClaims {
	now := time.Now()
	return AccessTokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    testCfg.Issuer,
			Audience:  jwt.ClaimStrings{testCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestParseAccessTokenVendor(t *testing.T) {
	vendorID := uuid.New()
	claims := baseClaims(enums.RoleVendor)
	claims.VendorID = &vendorID

	parsed, err := ParseAccessToken(testCfg, sign(t, testCfg.Secret, jwt.SigningMethodHS256, claims))
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if parsed.Role != enums.RoleVendor {
		t.Fatalf("unexpected role %s", parsed.Role)
	}
	if parsed.VendorID == nil || *parsed.VendorID != vendorID {
		t.Fatalf("vendor id not preserved")
	}
	userID, err := parsed.UserID()
	if err != nil || userID.String() != claims.Subject {
		t.Fatalf("unexpected user id %s err=%v", userID, err)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	expired := baseClaims(enums.RoleCupShup)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noVendor := baseClaims(enums.RoleVendor)

	noClient := baseClaims(enums.RoleClient)

	badRole := baseClaims(enums.Role("admin"))

	wrongAudience := baseClaims(enums.RoleCupShup)
	wrongAudience.Audience = jwt.ClaimStrings{"anon"}

	badSubject := baseClaims(enums.RoleCupShup)
	badSubject.Subject = "not-a-uuid"

	cases := map[string]string{
		"wrong secret":   sign(t, "other", jwt.SigningMethodHS256, baseClaims(enums.RoleCupShup)),
		"wrong method":   sign(t, testCfg.Secret, jwt.SigningMethodHS512, baseClaims(enums.RoleCupShup)),
		"expired":        sign(t, testCfg.Secret, jwt.SigningMethodHS256, expired),
		"vendor no id":   sign(t, testCfg.Secret, jwt.SigningMethodHS256, noVendor),
		"client no id":   sign(t, testCfg.Secret, jwt.SigningMethodHS256, noClient),
		"unknown role":   sign(t, testCfg.Secret, jwt.SigningMethodHS256, badRole),
		"wrong audience": sign(t, testCfg.Secret, jwt.SigningMethodHS256, wrongAudience),
		"bad subject":    sign(t, testCfg.Secret, jwt.SigningMethodHS256, badSubject),
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAccessToken(testCfg, token); err == nil {
				t.Fatalf("expected %s token to be rejected", name)
			}
		})
	}
}

func TestParseAccessTokenRequiresSecret(t *testing.T) {
	if _, err := ParseAccessToken(config.JWTConfig{}, "x"); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}

func TestParseAccessTokenSkipsUnsetIssuer(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret"}
	claims := baseClaims(enums.RoleCupShup)
	claims.Issuer = "someone-else"
	claims.Audience = nil
	if _, err := ParseAccessToken(cfg, sign(t, cfg.Secret, jwt.SigningMethodHS256, claims)); err != nil {
		t.Fatalf("issuer/audience should not be enforced when unset: %v", err)
	}
}
