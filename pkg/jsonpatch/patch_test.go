// Copyright 2025 Certen Protocol

package jsonpatch

import (
	"testing"

	"github.com/certen/aig/pkg/canonical"
)

func parse(t *testing.T, raw string) interface{} {
	t.Helper()
	v, err := canonical.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return v
}

func TestDiffApplyRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		before string
		after  string
	}{
		{"object add field", `{"a":1}`, `{"a":1,"b":2}`},
		{"object remove field", `{"a":1,"b":2}`, `{"a":1}`},
		{"object replace field", `{"a":1}`, `{"a":2}`},
		{"nested object change", `{"a":{"x":1,"y":2}}`, `{"a":{"x":1,"y":3}}`},
		{"array append", `{"items":[1,2]}`, `{"items":[1,2,3]}`},
		{"array truncate", `{"items":[1,2,3]}`, `{"items":[1,2]}`},
		{"array element replace", `{"items":[1,2,3]}`, `{"items":[1,9,3]}`},
		{"no-op identical", `{"a":1,"b":[1,2]}`, `{"b":[1,2],"a":1.0}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := parse(t, tc.before)
			after := parse(t, tc.after)

			ops, err := Diff(before, after)
			if err != nil {
				t.Fatalf("Diff: %v", err)
			}

			applied, err := Apply(ops, parse(t, tc.before))
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !canonical.Equal(applied, after) {
				gotBytes := canonical.MustCanonicalize(applied)
				wantBytes := canonical.MustCanonicalize(after)
				t.Errorf("applied result mismatch: got %s, want %s", gotBytes, wantBytes)
			}

			// diff(a, apply(diff(a,b), a)) == []
			residual, err := Diff(applied, after)
			if err != nil {
				t.Fatalf("residual Diff: %v", err)
			}
			if len(residual) != 0 {
				t.Errorf("expected empty residual diff, got %+v", residual)
			}
		})
	}
}

func TestDiffNoOpWhenEqual(t *testing.T) {
	a := parse(t, `{"a":1,"b":{"c":2}}`)
	b := parse(t, `{"b":{"c":2.0},"a":1}`)
	ops, err := Diff(a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("expected no ops for canonically-equal values, got %+v", ops)
	}
}

func TestApplyAddReplaceRemove(t *testing.T) {
	doc := map[string]interface{}{"a": float64(1)}

	result, err := Apply([]Op{{Kind: OpAdd, Path: "/b", Value: float64(2)}}, doc)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	m := result.(map[string]interface{})
	if m["b"] != float64(2) {
		t.Errorf("expected b=2, got %v", m["b"])
	}

	result, err = Apply([]Op{{Kind: OpReplace, Path: "/a", Value: float64(5)}}, result)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	m = result.(map[string]interface{})
	if m["a"] != float64(5) {
		t.Errorf("expected a=5, got %v", m["a"])
	}

	result, err = Apply([]Op{{Kind: OpRemove, Path: "/a"}}, result)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	m = result.(map[string]interface{})
	if _, ok := m["a"]; ok {
		t.Errorf("expected a to be removed")
	}
}

func TestApplyArrayAppendViaDash(t *testing.T) {
	doc := map[string]interface{}{"items": []interface{}{float64(1), float64(2)}}
	result, err := Apply([]Op{{Kind: OpAdd, Path: "/items/-", Value: float64(3)}}, doc)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	items := result.(map[string]interface{})["items"].([]interface{})
	if len(items) != 3 || items[2] != float64(3) {
		t.Errorf("expected [1 2 3], got %v", items)
	}
}

func TestApplyArrayInsertAtIndex(t *testing.T) {
	doc := map[string]interface{}{"items": []interface{}{float64(1), float64(3)}}
	result, err := Apply([]Op{{Kind: OpAdd, Path: "/items/1", Value: float64(2)}}, doc)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	items := result.(map[string]interface{})["items"].([]interface{})
	want := []interface{}{float64(1), float64(2), float64(3)}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("got %v, want %v", items, want)
			break
		}
	}
}

func TestApplyMove(t *testing.T) {
	doc := map[string]interface{}{"a": float64(1)}
	result, err := Apply([]Op{{Kind: OpMove, From: "/a", Path: "/b"}}, doc)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	m := result.(map[string]interface{})
	if _, ok := m["a"]; ok {
		t.Errorf("expected a removed after move")
	}
	if m["b"] != float64(1) {
		t.Errorf("expected b=1, got %v", m["b"])
	}
}

func TestApplyCopy(t *testing.T) {
	doc := map[string]interface{}{"a": map[string]interface{}{"x": float64(1)}}
	result, err := Apply([]Op{{Kind: OpCopy, From: "/a", Path: "/b"}}, doc)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	m := result.(map[string]interface{})
	aMap := m["a"].(map[string]interface{})
	bMap := m["b"].(map[string]interface{})
	aMap["x"] = float64(99)
	if bMap["x"] != float64(1) {
		t.Errorf("copy should be independent of source, got %v", bMap["x"])
	}
}

func TestApplyTestOp(t *testing.T) {
	doc := map[string]interface{}{"a": float64(1)}

	if _, err := Apply([]Op{{Kind: OpTest, Path: "/a", Value: float64(1)}}, doc); err != nil {
		t.Errorf("expected test to pass, got %v", err)
	}

	if _, err := Apply([]Op{{Kind: OpTest, Path: "/a", Value: float64(2)}}, doc); err == nil {
		t.Errorf("expected test to fail on mismatch")
	}
}

func TestApplyRemoveMissingKeyErrors(t *testing.T) {
	doc := map[string]interface{}{"a": float64(1)}
	if _, err := Apply([]Op{{Kind: OpRemove, Path: "/missing"}}, doc); err == nil {
		t.Errorf("expected error removing missing key")
	}
}
