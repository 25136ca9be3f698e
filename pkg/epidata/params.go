package epidata

import (
	"net/url"
	"strconv"
)

// Params is the query parameter set for one request. It always carries
// the "source" key naming the data stream.
type Params map[string]string

// NewParams starts a parameter set for the given data source.
func NewParams(source string) Params {
	return Params{"source": source}
}

// Source returns the data source tag.
func (p Params) Source() string { return p["source"] }

// Set stores a scalar value as-is.
func (p Params) Set(key, value string) Params {
	p[key] = value
	return p
}

// SetInt stores an integer scalar.
func (p Params) SetInt(key string, value int) Params {
	p[key] = strconv.Itoa(value)
	return p
}

// SetList stores an encoded list. Empty lists are skipped.
func (p Params) SetList(key string, l List) Params {
	if len(l) == 0 {
		return p
	}
	p[key] = l.Encode()
	return p
}

// SetOptional stores value only when it is non-empty.
func (p Params) SetOptional(key, value string) Params {
	if value != "" {
		p[key] = value
	}
	return p
}

// SetOptionalInt stores *value only when it is non-nil.
func (p Params) SetOptionalInt(key string, value *int) Params {
	if value != nil {
		p[key] = strconv.Itoa(*value)
	}
	return p
}

// Values converts the set into url.Values for query encoding.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}
