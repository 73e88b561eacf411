package bank

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OAuth state is only considered fresh for 15 minutes, checked at callback
// time.
const stateTTL = 15 * time.Minute

type stateClaims struct {
	BuildingID int64 `json:"building_id"`
	UserID     int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// stateCodec signs and validates the ephemeral OAuth state blob carried
// through the aggregator redirect. The blob is an HS256 JWT over
// {buildingId, userId, timestamp}; nothing is persisted server-side.
type stateCodec struct {
	secret []byte
	now    func() time.Time
}

func (c *stateCodec) Encode(buildingID, userID int64) (string, error) {
	claims := stateClaims{
		BuildingID: buildingID,
		UserID:     userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return signed, nil
}

// Decode validates the signature and freshness of a state blob. A malformed
// or tampered blob yields a validation error; a stale one an expiry error.
func (c *stateCodec) Decode(state string) (buildingID, userID int64, err error) {
	var claims stateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, 0, newError(CodeValidation, "invalid oauth state")
	}
	if claims.IssuedAt == nil {
		return 0, 0, newError(CodeValidation, "invalid oauth state")
	}
	if c.now().Sub(claims.IssuedAt.Time) > stateTTL {
		return 0, 0, newError(CodeExpired, "oauth state expired, restart the bank connection")
	}
	return claims.BuildingID, claims.UserID, nil
}
