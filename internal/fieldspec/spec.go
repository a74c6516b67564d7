// Package fieldspec resolves the numeric system, talkgroup, and frequency
// values of a recording from its watch configuration.
//
// A configured value is either a literal integer or a regular expression
// whose first capture group extracts the number from the recording path.
// Resolution is a pure function of the spec and the path.
package fieldspec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPattern reports a configured pattern that failed to compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrNotNumeric reports a pattern whose substitution did not start with an integer.
	ErrNotNumeric = errors.New("value is not numeric")
	// ErrUnset reports a field with no usable configuration.
	ErrUnset = errors.New("value not configured")
)

// Kind tags the variant held by a Spec.
type Kind int

const (
	KindUnset Kind = iota
	KindLiteral
	KindPattern
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindPattern:
		return "pattern"
	case KindInvalid:
		return "invalid"
	default:
		return "unset"
	}
}

// Spec describes how one numeric field of a call is obtained.
type Spec struct {
	kind    Kind
	value   int
	pattern *regexp.Regexp
	raw     string
	err     error
}

// Literal returns a spec that always resolves to value.
func Literal(value int) Spec { return Spec{kind: KindLiteral, value: value} }

// Unset returns a spec that never resolves.
func Unset() Spec { return Spec{kind: KindUnset} }

// Pattern compiles expr into a pattern spec. Compile failures and expressions
// without a capture group yield an invalid spec.
func Pattern(expr string) Spec {
	source, flags := stripDelimiters(expr)
	var inline string
	for _, flag := range "ims" {
		if strings.ContainsRune(flags, flag) {
			inline += string(flag)
		}
	}
	if inline != "" {
		source = "(?" + inline + ")" + source
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return Spec{kind: KindInvalid, raw: expr, err: err}
	}
	if re.NumSubexp() < 1 {
		return Spec{kind: KindInvalid, raw: expr, err: errors.New("pattern has no capture group")}
	}
	return Spec{kind: KindPattern, pattern: re, raw: expr}
}

// Parse turns a decoded configuration value into a Spec. Integers become
// literals, strings become patterns, anything else is unset.
func Parse(raw any) Spec {
	if n, ok := integer(raw); ok {
		return Literal(n)
	}
	if s, ok := raw.(string); ok {
		return Pattern(s)
	}
	return Unset()
}

// Kind reports the variant held by s.
func (s Spec) Kind() Kind { return s.kind }

// Err returns the compile error of an invalid spec.
func (s Spec) Err() error { return s.err }

func (s Spec) String() string {
	switch s.kind {
	case KindLiteral:
		return strconv.Itoa(s.value)
	case KindPattern, KindInvalid:
		return s.raw
	default:
		return ""
	}
}

// Resolve produces the numeric value of spec for the recording at path.
//
// A pattern replaces its first match in path with capture group 1 and parses
// the leading base-10 integer of the result, so text outside the match is
// kept and only digits at the start count.
func Resolve(spec Spec, path string) (int, error) {
	switch spec.kind {
	case KindLiteral:
		return spec.value, nil
	case KindPattern:
		loc := spec.pattern.FindStringSubmatchIndex(path)
		replaced := path
		if loc != nil {
			var group string
			if loc[2] >= 0 {
				group = path[loc[2]:loc[3]]
			}
			replaced = path[:loc[0]] + group + path[loc[1]:]
		}
		n, ok := leadingInt(replaced)
		if !ok {
			return 0, fmt.Errorf("%q from %q: %w", replaced, spec.raw, ErrNotNumeric)
		}
		return n, nil
	case KindInvalid:
		return 0, fmt.Errorf("%q: %w: %v", spec.raw, ErrInvalidPattern, spec.err)
	default:
		return 0, ErrUnset
	}
}

// ParseFrequency returns the configured frequency in Hz. Absent, zero, and
// non-numeric values yield nil.
func ParseFrequency(raw any) *int {
	n, ok := integer(raw)
	if !ok {
		s, isString := raw.(string)
		if !isString {
			return nil
		}
		if n, ok = leadingInt(strings.TrimSpace(s)); !ok {
			return nil
		}
	}
	if n == 0 {
		return nil
	}
	return &n
}

func integer(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case uint64:
		if v <= math.MaxInt {
			return int(v), true
		}
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
		if v == math.Trunc(v) && v >= math.MinInt && v < math.MaxInt {
			return int(v), true
		}
	}
	return 0, false
}

// leadingInt parses an optionally signed run of decimal digits after leading
// whitespace, ignoring whatever follows.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// stripDelimiters accepts the /source/flags notation operators copy from
// other scanner tools and returns the bare expression with its flags.
func stripDelimiters(expr string) (string, string) {
	if len(expr) < 2 || expr[0] != '/' {
		return expr, ""
	}
	last := strings.LastIndexByte(expr, '/')
	if last == 0 {
		return expr, ""
	}
	flags := expr[last+1:]
	if strings.Trim(flags, "gimsuy") != "" {
		return expr, ""
	}
	return expr[1:last], flags
}
