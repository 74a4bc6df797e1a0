package testutil

import (
	"net/http"

	"altguard/pkg/requestcontext"
)

// WithModerator marks the request as authenticated by moderatorID, as the admin
// auth middleware would.
func WithModerator(req *http.Request, moderatorID string) *http.Request {
	return req.WithContext(requestcontext.WithModeratorID(req.Context(), moderatorID))
}

// WithClientMetadata sets the source address and user agent the metadata middleware
// would derive.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}
