// Copyright 2025 Certen Protocol

package canonical

import (
	"testing"
)

func TestCanonicalizeKeyOrder(t *testing.T) {
	v, err := Parse([]byte(`{"b":1,"a":2,"c":{"z":1,"y":2}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := Canonicalize(v)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	want := `{"a":2,"b":1,"c":{"y":2,"z":1}}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestCanonicalizeNumbers(t *testing.T) {
	cases := map[string]string{
		`1.0`:     "1",
		`1.50`:    "1.5",
		`-0`:      "0",
		`-0.0`:    "0",
		`100`:     "100",
		`3.14159`: "3.14159",
	}
	for in, want := range cases {
		v, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("parse %s: %v", in, err)
		}
		got, err := Canonicalize(v)
		if err != nil {
			t.Fatalf("canonicalize %s: %v", in, err)
		}
		if string(got) != want {
			t.Errorf("canonicalize(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestCanonicalizeArrayOrderPreserved(t *testing.T) {
	v, err := Parse([]byte(`[3,1,2]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := Canonicalize(v)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(got) != `[3,1,2]` {
		t.Errorf("got %s", got)
	}
}

func TestRoundTripLaw(t *testing.T) {
	raw := []byte(`{"b":[1,2,{"x":"y"}],"a":"hello é"}`)
	v1, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c1, err := Canonicalize(v1)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	v2, err := Parse(c1)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	c2, err := Canonicalize(v2)
	if err != nil {
		t.Fatalf("re-canonicalize: %v", err)
	}
	if string(c1) != string(c2) {
		t.Errorf("canonical(parse(canonical(x))) != canonical(x): %s vs %s", c1, c2)
	}
}

func TestEqual(t *testing.T) {
	a, _ := Parse([]byte(`{"a":1,"b":2}`))
	b, _ := Parse([]byte(`{"b":2,"a":1.0}`))
	if !Equal(a, b) {
		t.Errorf("expected a and b to be canonically equal")
	}

	c, _ := Parse([]byte(`{"a":1,"b":3}`))
	if Equal(a, c) {
		t.Errorf("expected a and c to differ")
	}
}

func TestHashDeterministic(t *testing.T) {
	a, _ := Parse([]byte(`{"x":1,"y":2}`))
	b, _ := Parse([]byte(`{"y":2,"x":1}`))
	ha, err := Hash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hb, err := Hash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if ha != hb {
		t.Errorf("expected identical hashes for semantically equal values")
	}
}
