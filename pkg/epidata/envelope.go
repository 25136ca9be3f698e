package epidata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result codes carried in the envelope's "result" field.
const (
	ResultSuccess   = 1  // rows returned
	ResultTruncated = 2  // rows returned, but the server capped the row count
	ResultUnknown   = 0  // client-side sentinel: no usable response
	ResultFailure   = -1 // server rejected the request
	ResultNoResults = -2 // request was valid but matched nothing
)

// UnknownErrorMessage is the message paired with ResultUnknown.
const UnknownErrorMessage = "unknown error"

// Envelope is the decoded JSON body returned by the API.
type Envelope struct {
	Result  *int            `json:"result"`
	Message string          `json:"message"`
	Epidata json.RawMessage `json:"epidata"`
}

// Completion receives the outcome of a dispatched request. It is invoked
// exactly once per request, on the dispatcher goroutine.
type Completion func(result int, message string, epidata json.RawMessage)

// Response is the normalized outcome of one request.
type Response struct {
	Result  int             `json:"result"`
	Message string          `json:"message"`
	Epidata json.RawMessage `json:"epidata"`
}

// OK reports whether the server returned rows.
func (r Response) OK() bool {
	return r.Result == ResultSuccess || r.Result == ResultTruncated
}

// Decode unmarshals the epidata payload into v.
func (r Response) Decode(v any) error {
	if len(r.Epidata) == 0 {
		return fmt.Errorf("%w: empty epidata (result %d: %s)", ErrDecode, r.Result, r.Message)
	}
	if err := json.Unmarshal(r.Epidata, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// unknownResponse is the soft-failure triple.
func unknownResponse() Response {
	return Response{Result: ResultUnknown, Message: UnknownErrorMessage}
}

// normalize maps a decoded envelope onto a Response. A nil envelope or a
// missing result yields the unknown-error sentinel.
func (e *Envelope) normalize() Response {
	if e == nil || e.Result == nil {
		return unknownResponse()
	}
	payload := e.Epidata
	if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		payload = nil
	}
	return Response{Result: *e.Result, Message: e.Message, Epidata: payload}
}

// Collect returns a Completion that forwards its outcome to the returned
// channel. The channel is buffered so the dispatcher never blocks on it.
func Collect() (Completion, <-chan Response) {
	ch := make(chan Response, 1)
	done := func(result int, message string, epidata json.RawMessage) {
		ch <- Response{Result: result, Message: message, Epidata: epidata}
	}
	return done, ch
}
