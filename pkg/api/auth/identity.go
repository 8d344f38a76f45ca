package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"curbdb/pkg/telemetry"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

// maxIdentityLen bounds caller ids taken from headers or tokens.
const maxIdentityLen = 128

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidToken     = errors.New("invalid token")
	ErrIdentityTooLong  = errors.New("identity too long")
)

// Identity is an authenticated caller and the key it presented, if any.
type Identity struct {
	ID  string
	Key string
}

// Claims are the bearer token claims. Subject is the caller id.
type Claims struct {
	Key string `json:"key,omitempty"`
	jwt.RegisteredClaims
}

// creates an HMAC signature for a user ID
func CreateHMACSignature(userID, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier checks HMAC-signed identity headers and HS256 bearer tokens.
type Verifier struct {
	signingKeys []string
	jwtSecret   []byte
}

func NewVerifier(signingKeys []string, jwtSecret string) *Verifier {
	v := &Verifier{signingKeys: append([]string{}, signingKeys...)}
	if jwtSecret != "" {
		v.jwtSecret = []byte(jwtSecret)
	}
	return v
}

// verifies a user ID against its HMAC signature using the configured keys
func (v *Verifier) VerifyHMACSignature(userID, signature string) bool {
	for _, k := range v.signingKeys {
		expected := CreateHMACSignature(userID, k)
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return true
		}
	}
	return false
}

// IssueToken signs a bearer token for id, valid for ttl.
func (v *Verifier) IssueToken(id, key string, ttl time.Duration) (string, error) {
	if v.jwtSecret == nil {
		return "", errors.New("jwt secret not configured")
	}
	claims := &Claims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.jwtSecret)
}

// ValidateToken parses and validates a bearer token.
func (v *Verifier) ValidateToken(raw string) (*Claims, error) {
	if v.jwtSecret == nil {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve extracts the caller from the request. ok is false when the request
// carries no credentials; err is set when credentials are present but bad.
func (v *Verifier) Resolve(ctx *fasthttp.RequestCtx) (id Identity, ok bool, err error) {
	tr := telemetry.Track("auth.resolve")
	defer tr.Finish()

	if authz := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization"))); authz != "" {
		raw, found := strings.CutPrefix(authz, "Bearer ")
		if !found {
			return id, false, ErrInvalidToken
		}
		claims, err := v.ValidateToken(strings.TrimSpace(raw))
		if err != nil {
			return id, false, err
		}
		id = Identity{ID: claims.Subject, Key: claims.Key}
	} else {
		userID := strings.TrimSpace(string(ctx.Request.Header.Peek("X-User-ID")))
		sig := strings.TrimSpace(string(ctx.Request.Header.Peek("X-User-Signature")))
		if userID == "" && sig == "" {
			return id, false, nil
		}
		tr.Mark("verify_signature")
		if userID == "" || sig == "" || !v.VerifyHMACSignature(userID, sig) {
			return id, false, ErrInvalidSignature
		}
		id = Identity{ID: userID, Key: strings.TrimSpace(string(ctx.Request.Header.Peek("X-User-Key")))}
	}
	if len(id.ID) > maxIdentityLen {
		return Identity{}, false, ErrIdentityTooLong
	}
	return id, true, nil
}
