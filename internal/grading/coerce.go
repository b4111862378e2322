package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoercionError reports a payload that does not fit its question kind.
type CoercionError struct {
	Reason string
	Value  interface{}
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("answer %s", e.Reason)
}

// DecodePayload decodes a raw JSON answer keeping numbers as json.Number.
// An absent or null payload decodes to nil.
func DecodePayload(raw json.RawMessage) (interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, &CoercionError{Reason: "is not valid JSON"}
	}
	return v, nil
}

func firstElement(raw interface{}) (interface{}, error) {
	if list, ok := raw.([]interface{}); ok {
		if len(list) == 0 {
			return nil, &CoercionError{Reason: "must not be empty", Value: raw}
		}
		return list[0], nil
	}
	return raw, nil
}

func coerceInteger(raw interface{}) (interface{}, error) {
	v, err := firstElement(raw)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, &CoercionError{Reason: "must be an integer", Value: x}
		}
		return n, nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, &CoercionError{Reason: "must be an integer", Value: x.String()}
		}
		return wholeNumber(f, x.String())
	case float64:
		return wholeNumber(x, x)
	}
	return nil, &CoercionError{Reason: "must be an integer", Value: v}
}

// wholeNumber accepts f only when it is integral and fits in an int64.
func wholeNumber(f float64, shown interface{}) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, &CoercionError{Reason: "must be an integer", Value: shown}
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, &CoercionError{Reason: "is out of range", Value: shown}
	}
	return int64(f), nil
}

func coerceFloat(raw interface{}) (interface{}, error) {
	v, err := firstElement(raw)
	if err != nil {
		return nil, err
	}
	var f float64
	switch x := v.(type) {
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	default:
		err = fmt.Errorf("unsupported type %T", v)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &CoercionError{Reason: "must be a number", Value: v}
	}
	return f, nil
}

// asString renders scalars the way they were submitted.
func asString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	}
	return "", false
}

func asStrings(v interface{}) ([]string, bool) {
	list, ok := v.([]interface{})
	if !ok {
		s, ok := asString(v)
		if !ok {
			return nil, false
		}
		return []string{s}, true
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := asString(item)
		if !ok {
			return nil, false
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, true
}
