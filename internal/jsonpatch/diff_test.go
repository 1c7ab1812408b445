package jsonpatch

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want []Op
	}{
		{"equal", `{"a":1}`, `{"a":1}`, nil},
		{"replace scalar", `{"status":"Request"}`, `{"status":"Active"}`,
			[]Op{{Op: "replace", Path: "/status", Value: "Active"}}},
		{"add and remove keys in order", `{"b":1,"z":2}`, `{"a":3,"b":1}`,
			[]Op{{Op: "remove", Path: "/z"}, {Op: "add", Path: "/a", Value: float64(3)}}},
		{"array growth", `{"logs":[1]}`, `{"logs":[1,2,3]}`,
			[]Op{{Op: "add", Path: "/logs/1", Value: float64(2)}, {Op: "add", Path: "/logs/2", Value: float64(3)}}},
		{"array shrink from tail", `[1,2,3]`, `[1]`,
			[]Op{{Op: "remove", Path: "/2"}, {Op: "remove", Path: "/1"}}},
		{"null to object", `{"dossier":null}`, `{"dossier":{"cisCode":"CIS-1"}}`,
			[]Op{{Op: "replace", Path: "/dossier", Value: map[string]interface{}{"cisCode": "CIS-1"}}}},
		{"escaped key", `{"a/b":1}`, `{"a/b":2}`,
			[]Op{{Op: "replace", Path: "/a~1b", Value: float64(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(decode(t, tt.a), decode(t, tt.b), ""))
		})
	}
}

func TestDiffBothIsSymmetric(t *testing.T) {
	a := decode(t, `{"items":[{"id":"1"}],"status":"Request"}`)
	b := decode(t, `{"items":[{"id":"1"},{"id":"2"}],"status":"Active"}`)

	fwd, bwd := DiffBoth(a, b, "")

	assert.Equal(t, Diff(a, b, ""), fwd)
	assert.Equal(t, Diff(b, a, ""), bwd)
}

func TestOpMarshalKeepsNullValue(t *testing.T) {
	raw, err := json.Marshal([]Op{replace("/resCode", nil), remove("/logs/0")})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"op":"replace","path":"/resCode","value":null},{"op":"remove","path":"/logs/0"}]`, string(raw))
}
