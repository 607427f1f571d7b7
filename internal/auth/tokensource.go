package auth

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the service to the oauth2.TokenSource interface, for
// callers that want to drive a stock oauth2 transport with cached tokens.
// The context bounds every token acquisition made through the source.
func (s *Service) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, service: s}
}

type tokenSource struct {
	ctx     context.Context
	service *Service
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	tok, err := t.service.token(t.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: tok.Token,
		TokenType:   "Bearer",
		Expiry:      tok.ExpiresAt,
	}, nil
}
