package server

import (
	"context"
	"time"

	auth "github.com/goliatone/go-market-auth"
	"github.com/goliatone/go-market-auth/otp"
	"github.com/goliatone/go-market-auth/repository"
)

// Sessions issues tokens for phones that passed verification
type Sessions struct {
	users    *repository.Users
	tokens   *auth.TokenService
	activity auth.ActivitySink
}

var _ otp.SessionIssuer = (*Sessions)(nil)

func NewSessions(users *repository.Users, tokens *auth.TokenService, activity auth.ActivitySink) *Sessions {
	return &Sessions{
		users:    users,
		tokens:   tokens,
		activity: auth.NormalizeActivitySink(activity),
	}
}

// IssueSession signs a token for the user owning phone with their stored role
func (s *Sessions) IssueSession(ctx context.Context, phone string) (string, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if !user.IsPhoneVerified() {
		return "", auth.ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Role, 0)
	if err != nil {
		return "", err
	}

	_ = s.activity.Record(ctx, auth.ActivityEvent{
		EventType:  auth.ActivityEventLoginSuccess,
		Subject:    user.ID.String(),
		Role:       user.Role,
		OccurredAt: time.Now(),
	})
	return token, nil
}
