package accounts

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type idTokenClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
	Email string `json:"email,omitempty"`
}

// verifyIDToken checks the HS256 signature made with the client secret, the
// audience, the expiry and the nonce.
func verifyIDToken(raw, clientID, clientSecret, nonce string) (idTokenClaims, error) {
	var claims idTokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return []byte(clientSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return idTokenClaims{}, fmt.Errorf("id token signature is invalid")
		}
		return idTokenClaims{}, fmt.Errorf("id token is invalid: %w", err)
	}

	if claims.Nonce != nonce {
		return idTokenClaims{}, fmt.Errorf("id token nonce does not match")
	}
	return claims, nil
}
