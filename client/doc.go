// Package client builds and sends HTTP requests, wrapping every outcome
// in a uniform [Result].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithBaseURL("https://api.example.com/v1/"),
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//	)
//
// A [Config] loaded with [LoadConfig] or [ConfigFromEnv] can be turned
// into a Client with [BuildFromConfig].
//
// # Making Requests
//
// A [Builder] accumulates one request through chained calls and sends it
// in one of several modes:
//
//	res, err := client.SendAs[User](ctx, c.NewRequest().
//		Get("users/42").
//		AddQueryParameters(map[string]string{"expand": "teams"}).
//		SetHeader("Accept", "application/json"))
//	if err != nil {
//		// invalid builder usage, nothing was sent
//	}
//	if !res.IsSuccess() {
//		// res.StatusCode, res.Message and res.Err describe the failure
//	}
//
// The error return reports misuse only. Network faults, unexpected status
// codes, cancellation and decoding faults are reported in the [Result].
//
// # Modes
//
//   - [Builder.Send]: the raw [http.Response], body buffered.
//   - [Builder.SendString] and [Builder.SendBytes]: the whole body.
//   - [SendAs]: the body decoded from JSON.
//   - [Builder.SendStream]: the body as an open stream.
//   - [Builder.SendLines]: a [LineStream] yielding lines as they arrive.
//   - [Builder.SendFile]: the body written to disk, see [WithChecksum].
//
// Results holding a resource must be released with [Result.Close].
//
// # Descriptors
//
// [Builder.Build] returns an immutable [Request] that can be sent any
// number of times with the Client's Do methods.
package client
