package auth

import (
	"context"
	"fmt"
	"strings"

	"financas/internal/core"
	"financas/internal/gateway"
)

// Static resolves tokens from a fixed table. Signing out is a no-op.
type Static struct {
	users map[string]core.User
}

var _ gateway.Authenticator = Static{}

func NewStatic(users map[string]core.User) Static {
	return Static{users: users}
}

// ParseStaticTokens reads "token=user_id[:email]" entries separated by
// commas, e.g. "dev-token=u1:dev@example.com,other=u2".
func ParseStaticTokens(list string) (map[string]core.User, error) {
	users := map[string]core.User{}
	for entry := range strings.SplitSeq(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, rest, ok := strings.Cut(entry, "=")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return nil, fmt.Errorf("static token entry %q: want token=user_id[:email]", entry)
		}
		id, email, _ := strings.Cut(rest, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("static token entry %q: empty user id", entry)
		}
		users[token] = core.User{ID: id, Email: strings.TrimSpace(email)}
	}
	return users, nil
}

func (s Static) CurrentUser(_ context.Context, token string) (core.User, error) {
	u, ok := s.users[token]
	if !ok || token == "" {
		return core.User{}, gateway.ErrUnauthorized
	}
	return u, nil
}

func (s Static) SignOut(ctx context.Context, token string) error {
	_, err := s.CurrentUser(ctx, token)
	return err
}
