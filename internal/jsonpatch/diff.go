// Package jsonpatch computes RFC 6902 patches between two generic JSON
// documents, as produced by unmarshalling into interface{}.
package jsonpatch

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

type Op struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// MarshalJSON always writes value for add and replace, even when it is null.
func (o Op) MarshalJSON() ([]byte, error) {
	if o.Op == "remove" {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{o.Op, o.Path})
	}
	return json.Marshal(struct {
		Op    string      `json:"op"`
		Path  string      `json:"path"`
		Value interface{} `json:"value"`
	}{o.Op, o.Path, o.Value})
}

// Diff returns the operations that turn a into b. Object keys are visited in
// sorted order so equal inputs always give the same patch.
func Diff(a, b interface{}, path string) []Op {
	fwd, _ := DiffBoth(a, b, path)
	return fwd
}

// DiffBoth returns the forward (a to b) and backward (b to a) patches in one pass.
func DiffBoth(a, b interface{}, path string) (fwd, bwd []Op) {
	if a == nil && b == nil {
		return nil, nil
	}
	if a == nil || b == nil {
		return []Op{replace(path, b)}, []Op{replace(path, a)}
	}

	aMap, aIsMap := a.(map[string]interface{})
	bMap, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		return diffObjects(aMap, bMap, path)
	}

	aArr, aIsArr := a.([]interface{})
	bArr, bIsArr := b.([]interface{})
	if aIsArr && bIsArr {
		return diffArrays(aArr, bArr, path)
	}

	if aIsMap || bIsMap || aIsArr || bIsArr || !reflect.DeepEqual(a, b) {
		return []Op{replace(path, b)}, []Op{replace(path, a)}
	}
	return nil, nil
}

func diffObjects(a, b map[string]interface{}, path string) (fwd, bwd []Op) {
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			child := path + "/" + escapeKey(k)
			fwd = append(fwd, remove(child))
			bwd = append(bwd, add(child, a[k]))
		}
	}
	for _, k := range sortedKeys(b) {
		child := path + "/" + escapeKey(k)
		av, inA := a[k]
		if !inA {
			fwd = append(fwd, add(child, b[k]))
			bwd = append(bwd, remove(child))
			continue
		}
		f, r := DiffBoth(av, b[k], child)
		fwd = append(fwd, f...)
		bwd = append(bwd, r...)
	}
	return fwd, bwd
}

// diffArrays compares positionally. Removals run from the tail so indices
// stay valid while the patch is applied.
func diffArrays(a, b []interface{}, path string) (fwd, bwd []Op) {
	common := min(len(a), len(b))
	for i := 0; i < common; i++ {
		f, r := DiffBoth(a[i], b[i], path+"/"+strconv.Itoa(i))
		fwd = append(fwd, f...)
		bwd = append(bwd, r...)
	}

	for i := len(a) - 1; i >= common; i-- {
		fwd = append(fwd, remove(path+"/"+strconv.Itoa(i)))
	}
	for i := common; i < len(b); i++ {
		fwd = append(fwd, add(path+"/"+strconv.Itoa(i), b[i]))
	}

	for i := len(b) - 1; i >= common; i-- {
		bwd = append(bwd, remove(path+"/"+strconv.Itoa(i)))
	}
	for i := common; i < len(a); i++ {
		bwd = append(bwd, add(path+"/"+strconv.Itoa(i), a[i]))
	}
	return fwd, bwd
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func replace(path string, value interface{}) Op { return Op{Op: "replace", Path: path, Value: value} }

func add(path string, value interface{}) Op { return Op{Op: "add", Path: path, Value: value} }

func remove(path string) Op { return Op{Op: "remove", Path: path} }

// escapeKey escapes a JSON Pointer reference token (RFC 6901).
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
