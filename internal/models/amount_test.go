package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShare_AmountForms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		body string
		want float64
	}{
		{`{"plant_name":"fern","amount":3}`, 3},
		{`{"plant_name":"fern","amount":2.5}`, 2.5},
		{`{"plant_name":"fern","amount":"3"}`, 3},
		{`{"plant_name":"fern","amount":" 1.25 "}`, 1.25},
		{`{"plant_name":"fern","amount":null}`, 0},
		{`{"plant_name":"fern"}`, 0},
	}
	for _, tt := range tests {
		var sh Share
		require.NoError(t, json.Unmarshal([]byte(tt.body), &sh), tt.body)
		assert.Equal(t, tt.want, sh.Amount, tt.body)
		assert.Equal(t, "fern", sh.PlantName, tt.body)
	}
}

func TestShare_AmountRejected(t *testing.T) {
	t.Parallel()
	for _, body := range []string{
		`{"amount":""}`,
		`{"amount":"three"}`,
		`{"amount":"NaN"}`,
		`{"amount":"Inf"}`,
		`{"amount":true}`,
		`{"amount":[1]}`,
	} {
		var sh Share
		assert.Error(t, json.Unmarshal([]byte(body), &sh), body)
	}
}

func TestShare_ReactFormBody(t *testing.T) {
	t.Parallel()
	body := `{"amount":"3","shared_by":"","description":"cuttings","plant_name":"fern","is_available_now":true,"date":"2024-05-01"}`

	var sh Share
	require.NoError(t, json.Unmarshal([]byte(body), &sh))
	assert.Equal(t, Share{
		PlantName:      "fern",
		Amount:         3,
		Description:    "cuttings",
		IsAvailableNow: true,
		Date:           "2024-05-01",
	}, sh)

	out, err := json.Marshal(sh)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"amount":3`)
}

func TestRequest_AmountForms(t *testing.T) {
	t.Parallel()
	var rq Request
	require.NoError(t, json.Unmarshal([]byte(`{"plant_name":"calathea","amount":"2","notes":"any"}`), &rq))
	assert.Equal(t, 2.0, rq.Amount)
	assert.Equal(t, "any", rq.Notes)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"x"}`), &rq))
}
