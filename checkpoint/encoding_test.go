package checkpoint

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/viant/syncpoint/marker"
	"github.com/viant/syncpoint/seqset"
)

var noTimestamp = EncodeConfig{}

func TestSerialize(t *testing.T) {
	tcs := []struct {
		desc  string
		setup func(c *Checkpoint)
		want  string
	}{
		{
			desc:  "empty",
			setup: func(*Checkpoint) {},
			want:  `{}`,
		},
		{
			desc:  "contiguous",
			setup: func(c *Checkpoint) { c.CompletedRange(1, 5) },
			want:  `{"local":4}`,
		},
		{
			desc: "sparse",
			setup: func(c *Checkpoint) {
				c.CompletedRange(5, 8)
			},
			want: `{"localCompleted":[0,1,5,3]}`,
		},
		{
			desc: "sparse with prefix",
			setup: func(c *Checkpoint) {
				c.CompletedRange(1, 4)
				c.CompletedSequence(9)
			},
			want: `{"local":3,"localCompleted":[0,4,9,1]}`,
		},
		{
			desc: "numeric remote",
			setup: func(c *Checkpoint) {
				c.SetRemoteMinSequence(marker.Uint(50))
			},
			want: `{"remote":50}`,
		},
		{
			desc: "token remote",
			setup: func(c *Checkpoint) {
				c.SetRemoteMinSequence(marker.FromValue(map[string]any{"seq": "12:34"}))
			},
			want: `{"remote":{"seq":"12:34"}}`,
		},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			c := New()
			tc.setup(c)
			data, err := c.Serialize(noTimestamp)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(data))
			require.NoError(t, Validate(data))
		})
	}
}

func TestSerialize_Timestamp(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1700000000, 999_000_000))
	c := New()
	data, err := c.Serialize(EncodeConfig{WriteTimestamp: true, Clock: clock})
	require.NoError(t, err)
	require.JSONEq(t, `{"time":1700000000}`, string(data))

	data, err = c.Serialize(DefaultEncodeConfig())
	require.NoError(t, err)
	require.Contains(t, string(data), `"time":`)
}

func TestDeserialize_Legacy(t *testing.T) {
	c := Parse([]byte(`{"local": 4}`))
	require.Equal(t, []seqset.Range{{First: 0, Last: 5}}, c.Completed().Ranges())
	require.EqualValues(t, 4, c.LocalMinSequence())
	require.True(t, c.Remote().IsEmpty())
}

func TestDeserialize_LegacyEdges(t *testing.T) {
	c := Parse([]byte(`{"local": 18446744073709551615}`))
	require.Equal(t, []seqset.Range{{First: 0, Last: math.MaxUint64}}, c.Completed().Ranges(), "clamped")

	for _, in := range []string{`{"local": 4.7}`, `{"local": -3}`, `{"local": "4"}`} {
		c := Parse([]byte(in))
		require.Equal(t, []seqset.Range{{First: 0, Last: 1}}, c.Completed().Ranges(), in)
		require.Zero(t, c.LocalMinSequence(), in)
	}
}

func TestDeserialize_Sparse(t *testing.T) {
	c := Parse([]byte(`{"localCompleted": [0,1,5,3], "remote": 50, "time": 1700000000}`))
	require.Equal(t, []seqset.Range{{First: 0, Last: 1}, {First: 5, Last: 8}}, c.Completed().Ranges())
	require.Zero(t, c.LocalMinSequence())
	require.Equal(t, marker.Uint(50), c.Remote())
}

func TestDeserialize_ResetsPreviousState(t *testing.T) {
	c := New()
	c.CompletedRange(1, 100)
	c.AddPendingSequence(200)
	c.SetRemoteMinSequence(marker.Uint(9))

	c.Deserialize([]byte(`{"local": 2}`))
	require.Equal(t, []seqset.Range{{First: 0, Last: 3}}, c.Completed().Ranges())
	require.Zero(t, c.LastChecked())
	require.True(t, c.Remote().IsEmpty())
}

func TestDeserialize_Malformed(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	for _, in := range []string{`{"local": 4`, `[1,2,3]`, `42`, `"text"`} {
		c := Parse([]byte(in), WithLogger(zap.New(core)))
		require.Equal(t, []seqset.Range{{First: 0, Last: 1}}, c.Completed().Ranges(), in)
		require.True(t, c.Remote().IsEmpty(), in)
	}
	require.Equal(t, 4, logs.FilterMessage("unparseable checkpoint").Len())

	empty := Parse(nil, WithLogger(zap.New(core)))
	require.Zero(t, empty.LocalMinSequence())
	require.Equal(t, 4, logs.Len(), "absent document is not an error")
}

func TestDeserialize_BestEffortPairs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	c := Parse([]byte(`{"localCompleted": [0,1,5,3,20]}`), WithLogger(logger))
	require.Equal(t, []seqset.Range{{First: 0, Last: 1}, {First: 5, Last: 8}}, c.Completed().Ranges())

	c = Parse([]byte(`{"localCompleted": [0,1,5,0,9,2]}`), WithLogger(logger))
	require.Equal(t, []seqset.Range{{First: 0, Last: 1}, {First: 9, Last: 11}}, c.Completed().Ranges())

	c = Parse([]byte(`{"localCompleted": [0,1,"x",2,7,1]}`), WithLogger(logger))
	require.Equal(t, []seqset.Range{{First: 0, Last: 1}, {First: 7, Last: 8}}, c.Completed().Ranges())

	c = Parse([]byte(`{"localCompleted": [0,1,18446744073709551610,100]}`), WithLogger(logger))
	require.Equal(t, 2, c.Completed().RangesCount())

	require.Equal(t, 3, logs.Len())
}

func TestDeserialize_NotAnArrayFallsBackToLegacy(t *testing.T) {
	c := Parse([]byte(`{"localCompleted": "nope", "local": 6}`))
	require.Equal(t, []seqset.Range{{First: 0, Last: 7}}, c.Completed().Ranges())
}

func TestRoundTrip(t *testing.T) {
	c := New(WithLogger(zaptest.NewLogger(t)))
	c.CompletedRange(1, 40)
	for _, seq := range []seqset.Sequence{3, 17, 18, 39, 45, 60} {
		c.AddPendingSequence(seq)
	}
	c.CompletedSequence(45)
	c.CompletedRange(50, 55)

	for _, remote := range []marker.Marker{
		{},
		marker.Uint(1 << 63),
		marker.FromValue("opaque-token"),
		marker.FromValue(map[string]any{"a": []any{1, "b"}}),
	} {
		c.SetRemoteMinSequence(remote)
		data, err := c.Serialize(DefaultEncodeConfig())
		require.NoError(t, err)

		got := Parse(data, WithLogger(zaptest.NewLogger(t)))
		require.True(t, c.Completed().Equal(got.Completed()), "%s vs %s", c.Completed(), got.Completed())
		require.True(t, c.Remote().Equal(got.Remote()))
		require.Equal(t, c.LocalMinSequence(), got.LocalMinSequence())
	}
}

func TestValidate(t *testing.T) {
	tcs := []struct {
		desc string
		data string
		fail bool
	}{
		{desc: "empty object", data: `{}`},
		{desc: "full", data: `{"time":1,"local":3,"localCompleted":[0,4,9,1],"remote":"x"}`},
		{desc: "not json", data: `{`, fail: true},
		{desc: "not an object", data: `[]`, fail: true},
		{desc: "negative local", data: `{"local":-1}`, fail: true},
		{desc: "fractional local", data: `{"local":1.5}`, fail: true},
		{desc: "odd pairs", data: `{"localCompleted":[0,1,5]}`, fail: true},
		{desc: "zero length", data: `{"localCompleted":[0,1,5,0]}`, fail: true},
		{desc: "null remote", data: `{"remote":null}`, fail: true},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			err := Validate([]byte(tc.data))
			if tc.fail {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
