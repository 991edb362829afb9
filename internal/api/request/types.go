package request

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UpsertRequest is the request body for POST /auth/upsert
type UpsertRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SubmitRequest is the request body for POST /submit
type SubmitRequest struct {
	YourName string         `json:"yourName"`
	TimeMs   NumberOrString `json:"timeMs"`
}

// RenameRequest is the request body for POST /rename
type RenameRequest struct {
	ID       Number `json:"id"`
	YourName string `json:"yourName"`
}

// DeleteRequest is the request body for POST /delete
type DeleteRequest struct {
	ID Number `json:"id"`
}

// Number is a JSON number field. Missing or non-numeric values decode to NaN
// so validation can reject them with a field-specific error.
type Number struct {
	value float64
	set   bool
}

// UnmarshalJSON accepts only JSON numbers
func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Number{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*n = Number{}
		return nil
	}
	*n = Number{value: v, set: true}
	return nil
}

// Float returns the value, or NaN when absent or not a number
func (n Number) Float() float64 {
	if !n.set {
		return math.NaN()
	}
	return n.value
}

// NumberOrString is a numeric field that may also arrive as a numeric string
type NumberOrString struct {
	Number
}

// UnmarshalJSON accepts JSON numbers and strings holding a number
func (n *NumberOrString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			n.Number = Number{}
			return nil
		}
		n.Number = Number{value: v, set: true}
		return nil
	}
	return n.Number.UnmarshalJSON(b)
}
