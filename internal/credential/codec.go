package credential

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sketchroom/go-sketchroom/internal/types"
)

// Kind selects the expiry window of a minted credential.
type Kind int

const (
	KindRegistered Kind = iota
	KindGuest
)

const (
	registeredTTL = 7 * 24 * time.Hour
	guestTTL      = 24 * time.Hour
)

// Claims is the decoded form of a session credential.
type Claims struct {
	Subject   string
	Name      string
	Anonymous bool
	IssuedAt  int64
	ExpiresAt int64
}

// jwtClaims is the wire shape of the signed token format.
type jwtClaims struct {
	Name      string `json:"name"`
	Anonymous bool   `json:"isAnonymous"`
	jwt.RegisteredClaims
}

// plainPayload is the self-describing fallback format: a bare base64
// encoding of this JSON object, no signature. Older clients minted guest
// tokens this way, so the decoder accepts it transparently.
type plainPayload struct {
	Sub       string `json:"sub"`
	Name      string `json:"name"`
	Anonymous bool   `json:"isAnonymous"`
	Exp       int64  `json:"exp"`
	Iat       int64  `json:"iat"`
}

// Codec encodes and decodes session credentials. The zero value is not
// usable; construct with NewCodec.
type Codec struct {
	signingKey []byte
	now        func() time.Time
}

func NewCodec(signingKey []byte) *Codec {
	return &Codec{
		signingKey: signingKey,
		now:        time.Now,
	}
}

// SetClock overrides the codec's time source. Intended for tests.
func (c *Codec) SetClock(now func() time.Time) {
	c.now = now
}

// TTL returns the expiry window for a credential kind.
func TTL(kind Kind) time.Duration {
	if kind == KindGuest {
		return guestTTL
	}
	return registeredTTL
}

// Encode mints a signed token for user with the kind-appropriate expiry.
func (c *Codec) Encode(subjectID, name string, anonymous bool, kind Kind) (string, error) {
	now := c.now()
	claims := jwtClaims{
		Name:      name,
		Anonymous: anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL(kind))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.signingKey)
}

// Decode parses a token into its claims. It attempts the signed compact
// format first and falls back to the plain base64 payload encoding. Any
// malformed input yields nil; Decode never returns an error because callers
// must treat "cannot decode" identically to "invalid".
//
// Expiry is deliberately not checked here. Decode answers "what does this
// token say", IsValid answers "is it still good".
func (c *Codec) Decode(token string) *Claims {
	var jc jwtClaims
	_, err := jwt.ParseWithClaims(token, &jc, func(t *jwt.Token) (any, error) {
		return c.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err == nil {
		claims := &Claims{
			Subject:   jc.Subject,
			Name:      jc.Name,
			Anonymous: jc.Anonymous,
		}
		if jc.IssuedAt != nil {
			claims.IssuedAt = jc.IssuedAt.Unix()
		}
		if jc.ExpiresAt != nil {
			claims.ExpiresAt = jc.ExpiresAt.Unix()
		}
		return claims
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil
	}

	var pp plainPayload
	if err := json.Unmarshal(raw, &pp); err != nil {
		return nil
	}
	if pp.Sub == "" || pp.Exp == 0 {
		return nil
	}

	return &Claims{
		Subject:   pp.Sub,
		Name:      pp.Name,
		Anonymous: pp.Anonymous,
		IssuedAt:  pp.Iat,
		ExpiresAt: pp.Exp,
	}
}

// IsValid reports whether token decodes and has not yet expired.
func (c *Codec) IsValid(token string) bool {
	claims := c.Decode(token)
	if claims == nil {
		return false
	}
	return c.now().Unix() < claims.ExpiresAt
}

// User extracts the identity a token was issued to, or nil if the token
// cannot be decoded.
func (c *Codec) User(token string) *types.User {
	claims := c.Decode(token)
	if claims == nil {
		return nil
	}
	return &types.User{
		ID:        claims.Subject,
		Name:      claims.Name,
		Anonymous: claims.Anonymous,
	}
}
