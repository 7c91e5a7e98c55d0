package query

import (
	"testing"

	"github.com/leapstack-labs/druidql/pkg/serde"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONAny_Decode(t *testing.T) {
	tests := []struct {
		input string
		want  JSONAny
	}{
		{`42`, AnyInt(42)},
		{`-7`, AnyInt(-7)},
		{`3.5`, AnyFloat(3.5)},
		{`1e3`, AnyFloat(1000)},
		{`2.0`, AnyFloat(2)},
		{`"42"`, AnyString("42")},
		{`"hello"`, AnyString("hello")},
		{`true`, AnyBool(true)},
		{`false`, AnyBool(false)},
		{`9223372036854775808`, AnyFloat(9223372036854775808)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got JSONAny
			require.NoError(t, serde.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONAny_DecodeRejectsComposites(t *testing.T) {
	var v JSONAny
	assert.Error(t, serde.Unmarshal([]byte(`[1]`), &v))
	assert.Error(t, serde.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestJSONAny_RoundTrip(t *testing.T) {
	values := []JSONAny{
		AnyFloat(2), AnyFloat(-0.25), AnyFloat(1e-9), AnyFloat(3e22),
		AnyInt(0), AnyInt(1 << 40), AnyString("x"), AnyString("12"), AnyBool(true),
	}
	for _, v := range values {
		data, err := serde.Marshal(v)
		require.NoError(t, err)

		var got JSONAny
		require.NoError(t, serde.Unmarshal(data, &got), "decode %s", data)
		assert.Equal(t, v, got, "round trip of %s", data)
	}
}

func TestJSONAny_Encode(t *testing.T) {
	data, err := serde.Marshal([]JSONAny{AnyFloat(2), AnyInt(2), AnyString("2"), AnyBool(false), {}})
	require.NoError(t, err)
	assert.Equal(t, `[2.0,2,"2",false,null]`, string(data))
}

func TestJSONAny_Accessors(t *testing.T) {
	i, ok := AnyInt(5).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(5), i)

	_, ok = AnyInt(5).Float()
	assert.False(t, ok)

	s, ok := AnyString("a").Str()
	assert.True(t, ok)
	assert.Equal(t, "a", s)

	assert.Equal(t, KindBoolean, AnyBool(true).Kind())
	assert.Equal(t, 1.5, AnyFloat(1.5).Value())
	assert.Nil(t, JSONAny{}.Value())
	assert.Equal(t, "2.0", AnyFloat(2).String())
}

func TestJSONNumber(t *testing.T) {
	var n JSONNumber
	require.NoError(t, serde.Unmarshal([]byte(`10`), &n))
	assert.Equal(t, NumberInt(10), n)
	assert.Equal(t, 10.0, n.Float())

	require.NoError(t, serde.Unmarshal([]byte(`0.5`), &n))
	assert.Equal(t, NumberFloat(0.5), n)

	assert.Error(t, serde.Unmarshal([]byte(`"10"`), &n))
	assert.Error(t, serde.Unmarshal([]byte(`true`), &n))

	data, err := serde.Marshal(NumberFloat(10))
	require.NoError(t, err)
	assert.Equal(t, `10.0`, string(data))
}

func TestJSONNumber_MatchesJSONAny(t *testing.T) {
	tests := []struct {
		n JSONNumber
		v JSONAny
	}{
		{NumberInt(3), AnyInt(3)},
		{NumberInt(-42), AnyInt(-42)},
		{NumberFloat(0.25), AnyFloat(0.25)},
		{NumberFloat(1e30), AnyFloat(1e30)},
	}
	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			assert.Equal(t, tt.v, tt.n.any())
			assert.Equal(t, tt.v.String(), tt.n.String())

			got, err := serde.Marshal(tt.n)
			require.NoError(t, err)
			want, err := serde.Marshal(tt.v)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))

			var decoded JSONAny
			require.NoError(t, serde.Unmarshal(got, &decoded))
			assert.Equal(t, tt.v, decoded)
		})
	}
}
