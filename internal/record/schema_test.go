package record

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Validate(t *testing.T) {
	s, ok := Lookup(TypeMatch)
	require.True(t, ok)

	got, err := s.Validate(map[string]any{
		"teamA":  "Nexus",
		"teamB":  "Rivals",
		"game":   "valorant",
		"date":   "2026-06-01T18:00:00Z",
		"scoreA": float64(13),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(13), got["scoreA"])
	assert.Equal(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC), got["date"])

	tests := []struct {
		name    string
		payload map[string]any
		patch   bool
	}{
		{"missing required", map[string]any{"teamA": "Nexus"}, false},
		{"unknown field", map[string]any{"color": "red"}, true},
		{"reserved field", map[string]any{"tenantId": "t2"}, true},
		{"bad type", map[string]any{"scoreA": "many"}, true},
		{"fractional int", map[string]any{"scoreA": 1.5}, true},
		{"int overflow", map[string]any{"scoreA": 1e20}, true},
		{"int underflow", map[string]any{"scoreA": -1e19}, true},
		{"int NaN", map[string]any{"scoreA": math.NaN()}, true},
		{"int infinity", map[string]any{"scoreA": math.Inf(1)}, true},
		{"clear required", map[string]any{"teamA": nil}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Validate(tt.payload, tt.patch)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	cleared, err := s.Validate(map[string]any{"venue": nil}, true)
	require.NoError(t, err)
	v, present := cleared["venue"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestSchema_ValidateRejectsNonFiniteDecimals(t *testing.T) {
	s, ok := Lookup(TypeWallet)
	require.True(t, ok)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := s.Validate(map[string]any{"balance": v}, true)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "balance %v", v)
	}

	got, err := s.Validate(map[string]any{"balance": 12.5}, true)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got["balance"].(decimal.Decimal)))
}

func TestKind_CoerceAndText(t *testing.T) {
	tests := []struct {
		kind Kind
		in   any
		want string
	}{
		{KindString, "hello", "hello"},
		{KindInt, "42", "42"},
		{KindInt, float64(7), "7"},
		{KindBool, "t", "true"},
		{KindBool, false, "false"},
		{KindDecimal, "10.50", "10.5"},
		{KindDecimal, json.Number("3.25"), "3.25"},
		{KindTime, "2026-03-01 12:00:00+00", "2026-03-01T12:00:00Z"},
		{KindTime, "2026-03-01", "2026-03-01T00:00:00Z"},
		{KindStrings, []any{"twitch", "x"}, `["twitch","x"]`},
		{KindStrings, `["yt"]`, `["yt"]`},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			v, err := tt.kind.Coerce(tt.in)
			require.NoError(t, err)
			text, err := tt.kind.Text(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}

	_, err := KindBool.Coerce("maybe")
	assert.Error(t, err)
	_, err = KindStrings.Coerce([]any{1})
	assert.Error(t, err)
}

func TestRecord_MarshalJSON(t *testing.T) {
	r := &Record{
		ID:       "w1",
		TenantID: "t1",
		Type:     TypeWallet,
		Fields:   map[string]any{"name": "Main", "balance": decimal.RequireFromString("5.25")},
	}
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "w1", m["id"])
	assert.Equal(t, "t1", m["tenantId"])
	assert.Equal(t, "wallet", m["recordType"])
	assert.Equal(t, "Main", m["name"])
	assert.Equal(t, "5.25", m["balance"])
	_, hasCreated := m["createdAt"]
	assert.False(t, hasCreated)
}

func TestRegistry(t *testing.T) {
	types := Types()
	assert.Len(t, types, 9)
	for _, s := range Schemas() {
		assert.NotEmpty(t, s.Table)
		assert.Len(t, s.Columns(), len(s.Fields))
	}
	w, _ := Lookup(TypeWallet)
	p := w.Placeholder("t1")
	assert.True(t, p.Synthetic)
	assert.Equal(t, "usd", p.Fields["currency"])
}
