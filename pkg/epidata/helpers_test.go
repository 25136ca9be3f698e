package epidata

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// recordingTransport answers every request with a fixed envelope and
// remembers what it was sent.
type recordingTransport struct {
	mu      sync.Mutex
	queries []url.Values
	env     *Envelope
	err     error
}

func (t *recordingTransport) Get(_ context.Context, _ string, query url.Values) (*Envelope, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries = append(t.queries, query)
	return t.env, t.err
}

func (t *recordingTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queries)
}

func (t *recordingTransport) last() url.Values {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queries) == 0 {
		return nil
	}
	return t.queries[len(t.queries)-1]
}

func successEnvelope() *Envelope {
	one := ResultSuccess
	return &Envelope{Result: &one, Message: "success", Epidata: []byte(`[]`)}
}

// await waits for one response or gives up after a few seconds.
func await(ch <-chan Response) (Response, bool) {
	select {
	case r := <-ch:
		return r, true
	case <-time.After(5 * time.Second):
		return Response{}, false
	}
}
