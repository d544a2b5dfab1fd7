// Package fluenthttp exposes the client builder.
package fluenthttp

import (
	"github.com/adamwoolhether/fluenthttp/client"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// NewRequest returns a request builder bound to a shared client with
// default settings.
func NewRequest() *client.Builder {
	return client.NewBuilder(nil)
}
