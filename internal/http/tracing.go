package http

import (
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// WithTracing opens an X-Ray segment named service around every request.
func WithTracing(service string, h http.Handler) http.Handler {
	return xray.Handler(xray.NewFixedSegmentNamer(service), h)
}
