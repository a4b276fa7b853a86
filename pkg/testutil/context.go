package testutil

import (
	"net/http"

	id "graminsetu/pkg/domain"
	"graminsetu/pkg/requestcontext"
)

// WithIdentity stamps a user id and role onto the request context,
// simulating what the auth middleware does for authenticated requests.
// An invalid user id is silently ignored.
func WithIdentity(req *http.Request, userID, role string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if role != "" {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}
