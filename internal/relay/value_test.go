package relay

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-scratch/internal/core"
)

func decodeValue(t *testing.T, raw string) Value {
	t.Helper()
	var v Value
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestValueAccessors(t *testing.T) {
	tests := []struct {
		raw     string
		float   float64
		floatOK bool
		integer int
		intOK   bool
		text    string
		textOK  bool
		truthy  bool
		nullish bool
	}{
		{raw: `3`, float: 3, floatOK: true, integer: 3, intOK: true, truthy: true},
		{raw: `2.5`, float: 2.5, floatOK: true, truthy: true},
		{raw: `"7"`, float: 7, floatOK: true, integer: 7, intOK: true, text: "7", textOK: true, truthy: true},
		{raw: `" 1.25 "`, float: 1.25, floatOK: true, text: " 1.25 ", textOK: true, truthy: true},
		{raw: `"abc"`, text: "abc", textOK: true, truthy: true},
		{raw: `""`, textOK: true},
		{raw: `0`, floatOK: true, intOK: true},
		{raw: `2147483647`, float: math.MaxInt32, floatOK: true, integer: math.MaxInt32, intOK: true, truthy: true},
		{raw: `1e300`, float: 1e300, floatOK: true, truthy: true},
		{raw: `-1e12`, float: -1e12, floatOK: true, truthy: true},
		{raw: `true`, truthy: true},
		{raw: `false`},
		{raw: `null`, nullish: true},
		{raw: `{"a":1}`, truthy: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := decodeValue(t, tt.raw)

			f, ok := v.Float()
			assert.Equal(t, tt.floatOK, ok, "Float ok")
			assert.Equal(t, tt.float, f)

			n, ok := v.Integer()
			assert.Equal(t, tt.intOK, ok, "Integer ok")
			assert.Equal(t, tt.integer, n)

			s, ok := v.Text()
			assert.Equal(t, tt.textOK, ok, "Text ok")
			assert.Equal(t, tt.text, s)

			assert.Equal(t, tt.truthy, v.Truthy())
			assert.Equal(t, tt.nullish, v.IsNull())
		})
	}
}

func TestValueMarshal(t *testing.T) {
	data, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b,omitzero"`
		C Value `json:"c"`
	}{A: Int(4), C: Str("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":4,"c":"x"}`, string(data))

	assert.True(t, Num(math.NaN()).IsNull())
	assert.Equal(t, `null`, mustMarshal(t, Value{}))
}

func TestFirst(t *testing.T) {
	got, ok := First(Value{}, decodeValue(t, `null`), Int(2), Int(3)).Integer()
	assert.True(t, ok)
	assert.Equal(t, 2, got)
	assert.True(t, First().IsNull())
}

func TestTileResultsLenient(t *testing.T) {
	var p AutoBetResultPayload
	raw := `{"results":[{"row":0,"col":1,"contentKey":"bell"},7,"x",{"row":"2","col":2,"result":"star"},{"row":1.5,"col":0}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Len(t, p.Results, 3)

	pos, ok := p.Results[0].Position()
	require.True(t, ok)
	assert.Equal(t, core.Pos(0, 1), pos)
	assert.Equal(t, core.ContentKey("bell"), p.Results[0].Content())

	pos, ok = p.Results[1].Position()
	require.True(t, ok)
	assert.Equal(t, core.Pos(2, 2), pos)
	assert.Equal(t, core.ContentKey("star"), p.Results[1].Content(), "falls back to result")

	_, ok = p.Results[2].Position()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"results":{"row":0}}`), &p))
	assert.Empty(t, p.Results)
}

func TestNewMessage(t *testing.T) {
	assert.JSONEq(t, `{}`, string(NewMessage(TypeCashout, nil).Payload))
	assert.JSONEq(t, `{}`, string(NewMessage(TypeCashout, func() {}).Payload))

	msg := NewMessage(TypeManualSelection, SelectionPayload{Row: Int(1), Col: Int(2)})
	assert.JSONEq(t, `{"type":"game:manual-selection","payload":{"row":1,"col":2}}`, mustMarshal(t, msg))

	var sel SelectionPayload
	assert.True(t, msg.Decode(&sel))
	assert.False(t, Message{Type: TypeBetResult}.Decode(&sel))
	assert.False(t, Message{Type: TypeBetResult, Payload: []byte(`[`)}.Decode(&sel))
}

func TestIsInbound(t *testing.T) {
	assert.True(t, IsInbound(TypeStartBet))
	assert.True(t, IsInbound(TypeProfitTotal))
	assert.False(t, IsInbound(TypeBet))
	assert.False(t, IsInbound("unknown"))
}

func TestIsControl(t *testing.T) {
	assert.True(t, IsControl(TypeControlMines))
	assert.True(t, IsControl(TypeControlStopOnLoss))
	assert.False(t, IsControl(TypeBet))
	assert.False(t, IsControl(TypeStartBet))
}

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
