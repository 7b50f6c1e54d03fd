package esplora

import "net/http"

// HTTPDoer is satisfied by *http.Client. The client passed in must be safe
// for concurrent use and should carry the per-call timeout.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
