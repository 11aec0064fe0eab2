package goSession

import "net/http"

// Transport defines a public type used by goSession APIs.
//
// Transport adapts a [Client] into an http.RoundTripper so any plain
// *http.Client gains bearer attachment and single-flight refresh-and-replay.
type Transport struct {
	Client *Client
}

// RoundTrip describes the roundtrip operation and its observable behavior.
//
// RoundTrip may return an error when input validation, dependency calls, or security checks fail.
// RoundTrip does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t == nil || t.Client == nil {
		return nil, ErrClientNotReady
	}
	return t.Client.Do(req.Context(), req)
}

// HTTPClient returns an *http.Client that routes every request through the
// session client's authenticated path.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Transport: &Transport{Client: c}}
}
