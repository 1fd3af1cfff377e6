package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrMissingOrgID         = errors.New("missing organisation ID in token")
	ErrOrgIDMismatch        = errors.New("organisation ID mismatch between token and URL")
)

// AuthService defines the interface for authentication operations. The
// abstraction keeps HTTP handling and token validation separately testable.
type AuthService interface {
	// ValidateRequest extracts and validates a bearer JWT from the request's
	// Authorization header. Returns the validated claims and the raw token.
	ValidateRequest(r *http.Request) (*Claims, string, error)

	// RequireOrgID validates that the claims contain an organisation ID.
	RequireOrgID(claims *Claims) error

	// ValidateOrgIDMatch ensures the URL organisation ID matches the token's.
	// If urlOrgID is empty, validation is skipped.
	ValidateOrgIDMatch(claims *Claims, urlOrgID string) error
}

type authService struct {
	jwksClient JWKSClientInterface
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client.
func NewAuthService(jwksClient JWKSClientInterface, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger,
	}
}

var _ AuthService = (*authService)(nil)

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, "", ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return nil, "", ErrInvalidAuthFormat
	}

	claims, err := s.jwksClient.ValidateToken(parts[1])
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return nil, "", err
	}

	return claims, parts[1], nil
}

func (s *authService) RequireOrgID(claims *Claims) error {
	if claims.OrgID == "" {
		return ErrMissingOrgID
	}
	return nil
}

func (s *authService) ValidateOrgIDMatch(claims *Claims, urlOrgID string) error {
	if urlOrgID != "" && claims.OrgID != urlOrgID {
		s.logger.Warn("Organisation ID mismatch",
			zap.String("url_org_id", urlOrgID),
			zap.String("token_org_id", claims.OrgID))
		return ErrOrgIDMismatch
	}
	return nil
}
