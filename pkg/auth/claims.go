package auth

import (
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Role        *enums.Role
	Affiliation *enums.Affiliation
	Staff       bool
}

// AccessTokenClaims represents the typed JWT presented by clients. Role
// and Affiliation are optional: a token without them is still valid and
// resolves anonymous pricing.
type AccessTokenClaims struct {
	UserID      uuid.UUID          `json:"user_id"`
	Role        *enums.Role        `json:"role,omitempty"`
	Affiliation *enums.Affiliation `json:"affiliation,omitempty"`
	Staff       bool               `json:"staff,omitempty"`
	jwt.RegisteredClaims
}
