package request

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequestTimeMs(t *testing.T) {
	cases := map[string]float64{
		`{"timeMs": 1234.5}`: 1234.5,
		`{"timeMs": "812"}`:  812,
		`{"timeMs": " 42 "}`: 42,
		`{"timeMs": "abc"}`:  math.NaN(),
		`{"timeMs": null}`:   math.NaN(),
		`{"timeMs": true}`:   math.NaN(),
		`{"yourName": "x"}`:  math.NaN(),
		`{"timeMs": [1, 2]}`: math.NaN(),
	}

	for body, want := range cases {
		t.Run(body, func(t *testing.T) {
			var req SubmitRequest
			require.NoError(t, json.Unmarshal([]byte(body), &req))

			got := req.TimeMs.Float()
			if math.IsNaN(want) {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestIDMustBeANumber(t *testing.T) {
	var req DeleteRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id": "1700000000000"}`), &req))
	assert.True(t, math.IsNaN(req.ID.Float()))

	require.NoError(t, json.Unmarshal([]byte(`{"id": 1700000000000}`), &req))
	assert.Equal(t, float64(1700000000000), req.ID.Float())
}

func TestRenameRequestFields(t *testing.T) {
	var req RenameRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id": 7.5, "yourName": "Zed"}`), &req))

	assert.Equal(t, 7.5, req.ID.Float())
	assert.Equal(t, "Zed", req.YourName)
}
