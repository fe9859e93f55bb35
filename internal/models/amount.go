package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// looseFloat decodes a JSON number or a numeric string such as "3". Web form
// inputs post amounts as strings.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("amount %q is not a number", s)
		}
		*f = looseFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*f = looseFloat(v)
	return nil
}

func (s *Share) UnmarshalJSON(b []byte) error {
	type plain Share
	aux := struct {
		*plain
		Amount looseFloat `json:"amount"`
	}{plain: (*plain)(s), Amount: looseFloat(s.Amount)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Amount = float64(aux.Amount)
	return nil
}

func (r *Request) UnmarshalJSON(b []byte) error {
	type plain Request
	aux := struct {
		*plain
		Amount looseFloat `json:"amount"`
	}{plain: (*plain)(r), Amount: looseFloat(r.Amount)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Amount = float64(aux.Amount)
	return nil
}
