package authtoken

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the profile asserted by a verified Google ID token.
type GoogleIdentity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// IDTokenVerifier verifies third party ID tokens from the mobile app.
type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (*GoogleIdentity, error)
}

// GoogleVerifier validates Google ID tokens against the OAuth client id.
type GoogleVerifier struct {
	audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{audience: strings.TrimSpace(clientID), validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	if v.audience == "" {
		return nil, errors.New("google client id is not configured")
	}
	payload, err := v.validate(ctx, token, v.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := &GoogleIdentity{
		Subject:   payload.Subject,
		Email:     claimString(payload.Claims, "email"),
		Name:      claimString(payload.Claims, "name"),
		AvatarURL: claimString(payload.Claims, "picture"),
	}
	if identity.Email == "" {
		return nil, ErrInvalidToken
	}
	return identity, nil
}

func claimString(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}
