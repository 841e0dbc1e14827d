package marker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	tcs := []struct {
		desc string
		in   string
		kind Kind
		out  string
	}{
		{desc: "absent", in: "", kind: Empty, out: "null"},
		{desc: "null", in: "null", kind: Empty, out: "null"},
		{desc: "integer", in: "42", kind: Integer, out: "42"},
		{desc: "max uint64", in: "18446744073709551615", kind: Integer, out: "18446744073709551615"},
		{desc: "negative integer", in: "-3", kind: Token, out: "-3"},
		{desc: "float", in: "1.5", kind: Token, out: "1.5"},
		{desc: "string", in: `"12:34"`, kind: Token, out: `"12:34"`},
		{desc: "object", in: `{ "b": 1, "a": [1, 2] }`, kind: Token, out: `{"a":[1,2],"b":1}`},
		{desc: "array", in: `["x", 7]`, kind: Token, out: `["x",7]`},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			m, err := FromJSON([]byte(tc.in))
			require.NoError(t, err)
			require.Equal(t, tc.kind, m.Kind())

			out, err := json.Marshal(m)
			require.NoError(t, err)
			require.Equal(t, tc.out, string(out))

			var back Marker
			require.NoError(t, json.Unmarshal(out, &back))
			require.True(t, m.Equal(back))
		})
	}
}

func TestFromJSON_Malformed(t *testing.T) {
	_, err := FromJSON([]byte("{nope"))
	require.Error(t, err)
}

func TestFromValue(t *testing.T) {
	require.True(t, FromValue(nil).IsEmpty())
	require.Equal(t, Uint(7), FromValue(json.Number("7")))
	require.Equal(t, Uint(7), FromValue(float64(7)))
	require.Equal(t, Uint(7), FromValue(int64(7)))
	require.Equal(t, Uint(7), FromValue(json.RawMessage("7")))
	require.Equal(t, Token, FromValue(int64(-7)).Kind())
	require.Equal(t, Token, FromValue(float64(7.25)).Kind())
	require.Equal(t, Token, FromValue("7").Kind())
	require.Equal(t, `"7"`, FromValue("7").String())
	require.Equal(t, Token, FromValue(map[string]any{"seq": "1::2"}).Kind())
}

func TestTokenOf(t *testing.T) {
	m, err := TokenOf("tokenA")
	require.NoError(t, err)
	require.Equal(t, Token, m.Kind())

	n, err := TokenOf(12)
	require.NoError(t, err)
	require.True(t, n.IsNumeric())

	e, err := TokenOf(nil)
	require.NoError(t, err)
	require.True(t, e.IsEmpty())
}

func TestMarker_Uint64(t *testing.T) {
	v, err := Uint(50).Uint64()
	require.NoError(t, err)
	require.EqualValues(t, 50, v)

	_, err = FromValue("50").Uint64()
	require.ErrorIs(t, err, ErrNotNumeric)

	_, err = Marker{}.Uint64()
	require.ErrorIs(t, err, ErrNotNumeric)
}

func TestMarker_Equal(t *testing.T) {
	require.True(t, Marker{}.Equal(Marker{}))
	require.True(t, Uint(5).Equal(Uint(5)))
	require.False(t, Uint(5).Equal(Uint(6)))
	require.False(t, Uint(5).Equal(FromValue("5")))
	require.False(t, Uint(0).Equal(Marker{}))
	require.True(t, FromValue("tokenA").Equal(FromValue("tokenA")))
	require.False(t, FromValue("tokenA").Equal(FromValue("tokenB")))
}

func TestMarker_Compare(t *testing.T) {
	c, err := Uint(100).Compare(Uint(50))
	require.NoError(t, err)
	require.Equal(t, 1, c)

	c, err = Uint(50).Compare(Uint(100))
	require.NoError(t, err)
	require.Equal(t, -1, c)

	c, err = Uint(50).Compare(Uint(50))
	require.NoError(t, err)
	require.Equal(t, 0, c)

	_, err = Uint(50).Compare(FromValue("tokenB"))
	require.ErrorIs(t, err, ErrNotOrdered)
	_, err = FromValue("tokenA").Compare(FromValue("tokenB"))
	require.ErrorIs(t, err, ErrNotOrdered)
	_, err = Marker{}.Compare(Uint(1))
	require.ErrorIs(t, err, ErrNotOrdered)
}

func TestMarker_Value(t *testing.T) {
	require.Nil(t, Marker{}.Value())
	require.Equal(t, uint64(9), Uint(9).Value())
	require.Equal(t, json.RawMessage(`"abc"`), FromValue("abc").Value())
}
