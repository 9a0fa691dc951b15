package testutil

import (
	"net/http"

	id "assetd/pkg/domain"
	"assetd/pkg/requestcontext"
)

// WithCaller puts an authenticated caller on the request context, as
// RequireCaller would. Invalid account ids leave the request unchanged.
func WithCaller(req *http.Request, account string) *http.Request {
	caller, err := id.ParseAccountID(account)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithRequestID tags the request context with a request id.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
