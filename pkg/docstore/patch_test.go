package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactKeepsSentinels(t *testing.T) {
	var missing *string
	data := Data{
		"a":       nil,
		"b":       "value",
		"c":       missing,
		"created": ServerTimestamp,
		"nested":  Data{"x": nil, "y": 2},
	}

	out := Compact(data)
	assert.NotContains(t, out, "a")
	assert.NotContains(t, out, "c")
	assert.Equal(t, "value", out["b"])
	assert.True(t, IsServerTimestamp(out["created"]))
	assert.Equal(t, Data{"y": 2}, out["nested"])
}

func TestApplyUpdateDottedFieldsAndSentinels(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	existing := Data{
		"enrollmentInfo": Data{"status": "enrolled", "enrollmentDate": now},
		"students":       []interface{}{"u1", "u2"},
	}

	out := ApplyUpdate(existing, Data{
		"enrollmentInfo.status":         "pending",
		"enrollmentInfo.enrollmentDate": DeleteField,
		"updatedAt":                     ServerTimestamp,
		"students":                      ArrayRemove("u1"),
	}, now)

	info := out["enrollmentInfo"].(map[string]interface{})
	assert.Equal(t, "pending", info["status"])
	_, hasDate := info["enrollmentDate"]
	assert.False(t, hasDate)
	assert.Equal(t, now, out["updatedAt"])
	assert.Equal(t, []interface{}{"u2"}, out["students"])

	// the input is never mutated
	assert.Equal(t, "enrolled", existing["enrollmentInfo"].(map[string]interface{})["status"])
}

func TestArrayUnionIsIdempotent(t *testing.T) {
	now := time.Now()
	out := ApplyUpdate(Data{"students": []interface{}{"u1"}}, Data{"students": ArrayUnion("u1", "u2")}, now)
	out = ApplyUpdate(out, Data{"students": ArrayUnion("u2")}, now)
	assert.Equal(t, []interface{}{"u1", "u2"}, out["students"])
}

func TestApplyMergeDeep(t *testing.T) {
	out := ApplyMerge(Data{"a": Data{"x": 1, "y": 2}, "keep": true}, Data{"a": Data{"y": 3, "z": DeleteField}}, time.Now())
	assert.Equal(t, Data{"x": 1, "y": 3}, out["a"])
	assert.Equal(t, true, out["keep"])
}

func TestMatchesNumericAndArray(t *testing.T) {
	data := Data{"info": Data{"yearLevel": float64(1)}, "students": []interface{}{"u1"}}
	assert.True(t, Matches(data, []Filter{Where("info.yearLevel", 1)}))
	assert.True(t, Matches(data, []Filter{ArrayContains("students", "u1")}))
	assert.False(t, Matches(data, []Filter{ArrayContains("students", "u9")}))
	assert.False(t, Matches(data, []Filter{Where("info.missing", "x")}))
}

func TestSplitDocPath(t *testing.T) {
	collection, id, err := SplitDocPath("students/u1/enrollment/AY2526")
	require.NoError(t, err)
	assert.Equal(t, "students/u1/enrollment", collection)
	assert.Equal(t, "AY2526", id)

	_, _, err = SplitDocPath("students/u1/enrollment")
	assert.Error(t, err)
	assert.Equal(t, "students/u1", ParentOf("students/u1/enrollment"))
	assert.Equal(t, "", ParentOf("enrollments"))
}
