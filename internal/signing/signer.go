// Package signing produces the two RS256 JWTs every authenticated Registry
// exchange needs: a short-lived bearer token proving operator identity and a
// per-request integrity signature binding the request body digest to the
// signer.
package signing

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rentrihub/internal/certstore"
	"rentrihub/pkg/domain"
	dErrors "rentrihub/pkg/domain-errors"
	"rentrihub/pkg/requestcontext"
)

// DefaultTokenTTL keeps the replay window under a minute while tolerating
// clock skew against the Registry.
const DefaultTokenTTL = 55 * time.Second

// expiryMargin is how close to expiry a cached token may be before it is
// considered stale and re-signed.
const expiryMargin = 5 * time.Second

// ErrSigningConfigurationMissing means the certificate, key, or issuer could
// not be resolved. Fatal and non-retryable for the calling operation.
var ErrSigningConfigurationMissing = dErrors.New(dErrors.CodeConfiguration, "signing material is missing or unparseable")

// Audience returns the JWT audience for a Registry environment.
func Audience(env domain.Environment) string {
	if env == domain.EnvProduction {
		return "rentri"
	}
	return "rentridemo"
}

// Signer builds signed tokens from operator certificates. The token cache is
// injected so deployments choose between in-process and Redis-backed sharing.
type Signer struct {
	cache  TokenCache
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Signer.
type Option func(*Signer)

// WithTTL overrides the bearer token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Signer) { s.ttl = ttl }
}

func NewSigner(cache TokenCache, logger *slog.Logger, opts ...Option) *Signer {
	s := &Signer{cache: cache, ttl: DefaultTokenTTL, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BearerToken returns a signed authorization token for the certificate,
// reusing a cached one until it is within the safety margin of expiry.
func (s *Signer) BearerToken(ctx context.Context, cert *certstore.OperatorCertificate) (string, error) {
	audience := Audience(cert.Environment)
	key := CacheKey{CertificateID: cert.ID, Audience: audience}
	now := requestcontext.Now(ctx)

	if cached, ok := s.cache.Get(ctx, key); ok && now.Before(cached.ExpiresAt.Add(-expiryMargin)) {
		return cached.Value, nil
	}

	expiresAt := now.Add(s.ttl)
	signed, err := s.sign(cert, jwt.MapClaims{
		"jti": uuid.NewString(),
		"aud": audience,
		"iss": cert.CFOperatore,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": expiresAt.Unix(),
	})
	if err != nil {
		return "", err
	}

	s.cache.Set(ctx, key, CachedToken{Value: signed, ExpiresAt: expiresAt})
	return signed, nil
}

// IntegritySignature returns a signed attestation binding the content digest
// and content type of an outgoing request body. Never cached: every body
// differs.
func (s *Signer) IntegritySignature(ctx context.Context, cert *certstore.OperatorCertificate, digest, contentType string) (string, error) {
	now := requestcontext.Now(ctx)
	return s.sign(cert, jwt.MapClaims{
		"jti": uuid.NewString(),
		"aud": Audience(cert.Environment),
		"iss": cert.CFOperatore,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"signed_headers": []map[string]string{
			{"digest": digest},
			{"content-type": contentType},
		},
	})
}

func (s *Signer) sign(cert *certstore.OperatorCertificate, claims jwt.MapClaims) (string, error) {
	if cert == nil || cert.CFOperatore == "" {
		return "", ErrSigningConfigurationMissing
	}

	privateKey, err := parsePrivateKey(cert.PrivateKeyPEM)
	if err != nil {
		s.logger.Error("unusable private key",
			slog.String("certificate_id", cert.ID.String()),
			slog.String("error", err.Error()))
		return "", ErrSigningConfigurationMissing
	}

	x5c, err := certChainX5C(cert.CertificatePEM)
	if err != nil || len(x5c) == 0 {
		return "", ErrSigningConfigurationMissing
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	// The certificate chain rides in the header so the Registry can verify
	// the signer without separate key distribution.
	token.Header["x5c"] = x5c
	token.Header["typ"] = "JWT"

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeConfiguration, "sign token", err)
	}
	return signed, nil
}

func parsePrivateKey(keyPEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, ErrSigningConfigurationMissing
	}

	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if rsaKey, ok := parsed.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, ErrSigningConfigurationMissing
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// certChainX5C converts a PEM certificate chain into the ordered DER-base64
// list the x5c header expects, leaf first.
func certChainX5C(chainPEM string) ([]string, error) {
	var x5c []string
	rest := []byte(chainPEM)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		x5c = append(x5c, base64.StdEncoding.EncodeToString(block.Bytes))
	}
	if len(x5c) == 0 {
		return nil, ErrSigningConfigurationMissing
	}
	return x5c, nil
}
