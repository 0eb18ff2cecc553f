package testutil

import (
	"net/http"
	"time"

	id "casefile/pkg/domain"
	"casefile/pkg/requestcontext"
)

// WithActor injects an authenticated actor into the request context,
// simulating what the auth middleware does after validating a token.
func WithActor(req *http.Request, actor id.ActorID) *http.Request {
	return req.WithContext(requestcontext.WithActorID(req.Context(), actor))
}

// WithRequestTime pins the request-scoped clock so transition timestamps are
// deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
