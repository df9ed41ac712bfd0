package interceptors

import "context"

// Caller is the authenticated principal behind a request. SessionToken is the bearer token the
// request was resolved from; it doubles as the session's id.
type Caller struct {
	UserID       string
	SessionToken string
}

type callerKey struct{}

// WithIdentity attaches the caller resolved by the auth interceptor. A later call replaces it.
func WithIdentity(ctx context.Context, userID, sessionToken string) context.Context {
	return context.WithValue(ctx, callerKey{}, Caller{UserID: userID, SessionToken: sessionToken})
}

// CallerFrom returns the caller attached by WithIdentity.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// GetUserID returns the caller's user id. ok is false on unauthenticated requests.
func GetUserID(ctx context.Context) (string, bool) {
	c, ok := CallerFrom(ctx)
	return c.UserID, ok
}

// GetSessionID returns the token of the session the caller authenticated with.
func GetSessionID(ctx context.Context) (string, bool) {
	c, ok := CallerFrom(ctx)
	return c.SessionToken, ok
}
