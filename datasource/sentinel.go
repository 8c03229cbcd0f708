package datasource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// sentinelRule is how an endpoint signals success in its JSON body.
// The provider is not consistent across endpoints.
type sentinelRule int

const (
	// "cod" must be the number 200 (current weather)
	codNumber200 sentinelRule = iota
	// "cod" must be the string "200" (forecast, time machine)
	codString200
	// "cod" must be missing or falsy (air pollution, one call)
	codAbsent
)

// checkSentinel applies rule to body and returns nil on success. Any failure,
// including a body that is not a JSON object, is reported with kind.
func checkSentinel(body []byte, endpoint string, rule sentinelRule, kind ErrorKind) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return &APIError{Kind: kind, Endpoint: endpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	cod, present := fields["cod"]
	var ok bool
	switch rule {
	case codNumber200:
		var n float64
		ok = present && !isJSONString(cod) && json.Unmarshal(cod, &n) == nil && n == 200
	case codString200:
		var s string
		ok = present && isJSONString(cod) && json.Unmarshal(cod, &s) == nil && s == "200"
	case codAbsent:
		ok = !present || !truthy(cod)
	}
	if ok {
		return nil
	}

	apiErr := &APIError{Kind: kind, Endpoint: endpoint, Code: rawText(cod)}
	if msg, found := fields["message"]; found {
		apiErr.Message = rawText(msg)
	}
	return apiErr
}

func isJSONString(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '"'
}

// truthy follows the usual dynamic-language reading of a JSON value
func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`, "[]", "{}":
		return false
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n != 0
	}
	return true
}

// rawText renders a JSON scalar without quotes
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
