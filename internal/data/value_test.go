package data

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectLookupCamelCaseFallback(t *testing.T) {
	obj := Object{"classId": Int(2), "name": String("Lyra")}

	v, ok := obj.Lookup("class_id")
	require.True(t, ok)
	assert.Equal(t, Int(2), v)

	assert.Equal(t, int64(2), obj.Int("class_id", 0))
	assert.Equal(t, "Lyra", obj.String("name", ""))
	assert.Equal(t, int64(7), obj.Int("missing", 7))
	assert.Equal(t, "fallback", obj.String("class_id", "fallback"), "wrong type falls back")
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"actor_id":        "actorId",
		"character_index": "characterIndex",
		"name":            "name",
		"tile_id":         "tileId",
	}
	for in, want := range tests {
		assert.Equal(t, want, CamelCase(in), in)
	}
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"n":    1,
		"f":    float64(3),
		"s":    "x",
		"list": []any{true, nil},
		"keys": map[any]any{1: "one"},
	})
	require.NoError(t, err)

	obj := v.(Object)
	assert.Equal(t, Int(1), obj["n"])
	assert.Equal(t, Int(3), obj["f"])
	assert.Equal(t, String("x"), obj["s"])
	assert.Equal(t, List{Bool(true), Null{}}, obj["list"])
	assert.Equal(t, Object{"1": String("one")}, obj["keys"])
}

func TestFromAnyRejectsFractions(t *testing.T) {
	_, err := FromAny([]any{1.25})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[0]")
}

func TestFromAnyRejectsOutOfRangeFloats(t *testing.T) {
	for _, f := range []float64{math.Pow(2, 63), 1e19, -1e19, math.Inf(1), math.NaN()} {
		_, err := FromAny(f)
		assert.Error(t, err, "%v", f)
	}

	v, err := FromAny(float64(-1 << 63))
	require.NoError(t, err)
	assert.Equal(t, Int(math.MinInt64), v)

	v, err = FromAny(float64(1 << 53))
	require.NoError(t, err)
	assert.Equal(t, Int(1<<53), v)
}

func TestUnmarshalRoundTrip(t *testing.T) {
	orig := Object{
		"switches": Object{"7": Bool(true)},
		"party":    List{Int(1), Int(2)},
		"name":     String("Arion"),
		"none":     Null{},
	}
	b, err := MarshalCanonical(orig)
	require.NoError(t, err)

	got, err := UnmarshalObject(b)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestUnmarshalRejectsFloats(t *testing.T) {
	_, err := Unmarshal([]byte(`{"hp": 1.5}`))
	require.Error(t, err)
}

func TestUnmarshalObjectRejectsScalars(t *testing.T) {
	_, err := UnmarshalObject(json.RawMessage(`42`))
	require.Error(t, err)
}

func TestSizeGrowsWithContent(t *testing.T) {
	small := Object{"a": Int(1)}
	big := Object{"a": Int(1), "data": make(Bytes, 4096)}
	assert.Greater(t, Size(big), Size(small)+4096)
	assert.Equal(t, int64(0), Size(nil))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Object{"list": List{Int(1)}, "blob": Bytes{1}}
	cp := Clone(orig).(Object)
	cp["list"].(List)[0] = Int(9)
	cp["blob"].(Bytes)[0] = 9

	assert.Equal(t, Int(1), orig["list"].(List)[0])
	assert.Equal(t, byte(1), orig["blob"].(Bytes)[0])
}
