package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
)

// tokenClaims is the wire shape of the identity provider's tokens.
type tokenClaims struct {
	jwt.RegisteredClaims

	Email string `json:"email"`

	// Role arrives in the provider's custom claim namespace. Empty or
	// unknown values fall back to viewer.
	Role string `json:"custom:role"`
}

// TokenVerifier validates bearer tokens and extracts trusted Claims.
//
// Production deployments verify against the identity provider's JWKS
// endpoint (NewJWKSVerifier); tests inject a static jwt.Keyfunc.
type TokenVerifier struct {
	keyfunc jwt.Keyfunc
	leeway  time.Duration
	issuer  string
}

// JWKSVerifierConfig contains configuration for JWKS-backed verification.
type JWKSVerifierConfig struct {
	// JWKSURL is the identity provider's JWKS endpoint.
	JWKSURL string

	// RefreshInterval is how often keys are refreshed in the background.
	RefreshInterval time.Duration

	// Leeway is the clock-skew tolerance applied to time-based claims.
	Leeway time.Duration

	// Issuer, when non-empty, is enforced against the token's iss claim.
	Issuer string
}

// NewJWKSVerifier creates a TokenVerifier that fetches and caches signing
// keys from the identity provider's JWKS endpoint.
//
// The first fetch is tolerant of an unreachable endpoint so the server
// can start while the provider is still coming up; verification simply
// fails until keys arrive.
func NewJWKSVerifier(ctx context.Context, cfg JWKSVerifierConfig) (*TokenVerifier, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}

	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("failed to refresh JWKS from %s: %v", cfg.JWKSURL, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("failed to create keyfunc: %w", err)
	}

	return &TokenVerifier{
		keyfunc: k.Keyfunc,
		leeway:  cfg.Leeway,
		issuer:  cfg.Issuer,
	}, nil
}

// NewStaticVerifier creates a TokenVerifier around a fixed jwt.Keyfunc.
// Used by tests and by deployments with a pre-shared verification key.
func NewStaticVerifier(kf jwt.Keyfunc, leeway time.Duration, issuer string) *TokenVerifier {
	return &TokenVerifier{keyfunc: kf, leeway: leeway, issuer: issuer}
}

// Verify parses and validates a bearer token and returns the trusted
// claims. The subject claim is required; the role defaults to viewer
// when absent or unrecognized.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var tc tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &tc, v.keyfunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if tc.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	role := Role(tc.Role)
	if !role.Valid() {
		role = RoleViewer
	}

	return &Claims{
		UserID: tc.Subject,
		Email:  tc.Email,
		Role:   role,
	}, nil
}
