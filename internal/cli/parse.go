package cli

import (
	"strconv"
	"strings"

	"github.com/okian/epidata/pkg/epidata"
)

// parseList turns a flag value such as "nat,hhs1" or "201440-201501,201510"
// into a List. A token with exactly one dash and text on both sides is a
// range: integer when both ends parse as integers, string otherwise.
// Anything else, including "-3", is a scalar. Blank tokens are dropped.
func parseList(s string) epidata.List {
	var out epidata.List
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, parseItem(tok))
	}
	return out
}

func parseItem(tok string) epidata.Item {
	if strings.Count(tok, "-") != 1 {
		return scalar(tok)
	}
	from, to, _ := strings.Cut(tok, "-")
	if from == "" || to == "" {
		return scalar(tok)
	}
	a, errA := strconv.Atoi(from)
	b, errB := strconv.Atoi(to)
	if errA == nil && errB == nil {
		return epidata.NewRange(a, b)
	}
	return epidata.NewRange(from, to)
}

// scalar keeps integers numeric so they render without leading zeros
// being reinterpreted; everything else is sent verbatim.
func scalar(tok string) epidata.Item {
	if n, err := strconv.Atoi(tok); err == nil && strconv.Itoa(n) == tok {
		return epidata.Scalar(n)
	}
	return epidata.Scalar(tok)
}
