package auth

import (
	"errors"
	"fmt"

	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ParseAccessToken validates the JWT string and returns typed claims. Issuer and
// audience are enforced only when configured.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}

	if err := validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func validateClaims(claims *AccessTokenClaims) error {
	if _, err := claims.UserID(); err != nil {
		return fmt.Errorf("invalid subject: %w", err)
	}
	if !claims.Role.IsValid() {
		return fmt.Errorf("invalid role %q", claims.Role)
	}
	switch claims.Role {
	case enums.RoleVendor:
		if claims.VendorID == nil {
			return errors.New("vendor tokens must carry vendor_id")
		}
	case enums.RoleClient:
		if claims.ClientID == nil {
			return errors.New("client tokens must carry client_id")
		}
	}
	return nil
}
