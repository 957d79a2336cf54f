// Copyright 2025 Certen Protocol
//
// RFC 6902 JSON Patch: diff between two document snapshots and apply of
// a patch list back onto a document. Paths are RFC 6901 JSON Pointers;
// "-" denotes array append. Modelled as a tagged variant over the six
// op kinds (rather than a loosely-typed map) so callers can exhaustively
// switch on Op.Kind.

package jsonpatch

import (
	"fmt"
	"sort"

	"github.com/certen/aig/pkg/canonical"
)

// OpKind enumerates the RFC 6902 operation kinds.
type OpKind string

const (
	OpAdd     OpKind = "add"
	OpRemove  OpKind = "remove"
	OpReplace OpKind = "replace"
	OpMove    OpKind = "move"
	OpCopy    OpKind = "copy"
	OpTest    OpKind = "test"
)

// Op is a single JSON Patch operation.
type Op struct {
	Kind  OpKind      `json:"op"`
	Path  string      `json:"path"`
	From  string      `json:"from,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

// Diff computes the minimal, stable patch turning prior into proposed.
//
// Policy: object keys are compared over the union of both sides (missing
// on the right is a remove, missing on the left is an add, structurally
// unequal is a recursive diff); arrays are compared element-wise by
// index, with length differences resolved via trailing removes/adds
// rather than an LCS alignment (callers — see pkg/reconcile — are
// expected to present arrays already aligned by stable id so the result
// stays small); everything else is a replace. Equality is canonical-byte
// equality (pkg/canonical).
func Diff(prior, proposed interface{}) ([]Op, error) {
	return diffAt("", prior, proposed)
}

func diffAt(path string, prior, proposed interface{}) ([]Op, error) {
	if canonical.Equal(prior, proposed) {
		return nil, nil
	}

	priorMap, priorIsMap := asObject(prior)
	proposedMap, proposedIsMap := asObject(proposed)
	if priorIsMap && proposedIsMap {
		return diffObjects(path, priorMap, proposedMap)
	}

	priorArr, priorIsArr := asArray(prior)
	proposedArr, proposedIsArr := asArray(proposed)
	if priorIsArr && proposedIsArr {
		return diffArrays(path, priorArr, proposedArr)
	}

	return []Op{{Kind: OpReplace, Path: path, Value: proposed}}, nil
}

func diffObjects(path string, prior, proposed map[string]interface{}) ([]Op, error) {
	keys := make(map[string]struct{}, len(prior)+len(proposed))
	for k := range prior {
		keys[k] = struct{}{}
	}
	for k := range proposed {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var ops []Op
	for _, k := range sorted {
		childPath := JoinPath(path, k)
		pv, pok := prior[k]
		qv, qok := proposed[k]
		switch {
		case pok && !qok:
			ops = append(ops, Op{Kind: OpRemove, Path: childPath})
		case !pok && qok:
			ops = append(ops, Op{Kind: OpAdd, Path: childPath, Value: qv})
		case pok && qok:
			sub, err := diffAt(childPath, pv, qv)
			if err != nil {
				return nil, err
			}
			ops = append(ops, sub...)
		}
	}
	return ops, nil
}

func diffArrays(path string, prior, proposed []interface{}) ([]Op, error) {
	var ops []Op
	minLen := len(prior)
	if len(proposed) < minLen {
		minLen = len(proposed)
	}
	for i := 0; i < minLen; i++ {
		childPath := fmt.Sprintf("%s/%d", path, i)
		sub, err := diffAt(childPath, prior[i], proposed[i])
		if err != nil {
			return nil, err
		}
		ops = append(ops, sub...)
	}
	// Removes from the tail backwards so earlier indices stay valid.
	for i := len(prior) - 1; i >= minLen; i-- {
		ops = append(ops, Op{Kind: OpRemove, Path: fmt.Sprintf("%s/%d", path, i)})
	}
	// Appends for any new trailing elements.
	for i := minLen; i < len(proposed); i++ {
		ops = append(ops, Op{Kind: OpAdd, Path: path + "/-", Value: proposed[i]})
	}
	return ops, nil
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asArray(v interface{}) ([]interface{}, bool) {
	a, ok := v.([]interface{})
	return a, ok
}

// Apply applies ops to doc in order, returning the resulting document.
// doc itself may be replaced wholesale (e.g. by an op with path "").
func Apply(ops []Op, doc interface{}) (interface{}, error) {
	cur := doc
	for i, op := range ops {
		next, err := applyOne(cur, op)
		if err != nil {
			return nil, fmt.Errorf("jsonpatch: apply op %d (%s %s): %w", i, op.Kind, op.Path, err)
		}
		cur = next
	}
	return cur, nil
}

func applyOne(doc interface{}, op Op) (interface{}, error) {
	switch op.Kind {
	case OpAdd:
		tokens, err := Tokens(op.Path)
		if err != nil {
			return nil, err
		}
		return addAt(doc, tokens, op.Value)
	case OpRemove:
		tokens, err := Tokens(op.Path)
		if err != nil {
			return nil, err
		}
		_, newDoc, err := removeAt(doc, tokens)
		return newDoc, err
	case OpReplace:
		tokens, err := Tokens(op.Path)
		if err != nil {
			return nil, err
		}
		return replaceAt(doc, tokens, op.Value)
	case OpMove:
		fromTokens, err := Tokens(op.From)
		if err != nil {
			return nil, err
		}
		value, afterRemove, err := removeAt(doc, fromTokens)
		if err != nil {
			return nil, err
		}
		toTokens, err := Tokens(op.Path)
		if err != nil {
			return nil, err
		}
		return addAt(afterRemove, toTokens, value)
	case OpCopy:
		fromTokens, err := Tokens(op.From)
		if err != nil {
			return nil, err
		}
		value, err := getAt(doc, fromTokens)
		if err != nil {
			return nil, err
		}
		toTokens, err := Tokens(op.Path)
		if err != nil {
			return nil, err
		}
		return addAt(doc, toTokens, deepCopy(value))
	case OpTest:
		tokens, err := Tokens(op.Path)
		if err != nil {
			return nil, err
		}
		v, err := getAt(doc, tokens)
		if err != nil {
			return nil, err
		}
		if !canonical.Equal(v, op.Value) {
			return nil, fmt.Errorf("test failed at %q", op.Path)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

func getAt(doc interface{}, tokens []string) (interface{}, error) {
	if len(tokens) == 0 {
		return doc, nil
	}
	head, rest := tokens[0], tokens[1:]
	switch d := doc.(type) {
	case map[string]interface{}:
		child, ok := d[head]
		if !ok {
			return nil, fmt.Errorf("key %q not found", head)
		}
		return getAt(child, rest)
	case []interface{}:
		idx, err := arrayIndex(head, len(d), false)
		if err != nil {
			return nil, err
		}
		return getAt(d[idx], rest)
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", doc, head)
	}
}

func replaceAt(doc interface{}, tokens []string, value interface{}) (interface{}, error) {
	if len(tokens) == 0 {
		return value, nil
	}
	head, rest := tokens[0], tokens[1:]
	switch d := doc.(type) {
	case map[string]interface{}:
		child, ok := d[head]
		if !ok {
			return nil, fmt.Errorf("key %q not found", head)
		}
		newChild, err := replaceAt(child, rest, value)
		if err != nil {
			return nil, err
		}
		d[head] = newChild
		return d, nil
	case []interface{}:
		idx, err := arrayIndex(head, len(d), false)
		if err != nil {
			return nil, err
		}
		newChild, err := replaceAt(d[idx], rest, value)
		if err != nil {
			return nil, err
		}
		d[idx] = newChild
		return d, nil
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", doc, head)
	}
}

func addAt(doc interface{}, tokens []string, value interface{}) (interface{}, error) {
	if len(tokens) == 0 {
		return value, nil
	}
	head, rest := tokens[0], tokens[1:]

	if len(rest) == 0 {
		switch d := doc.(type) {
		case map[string]interface{}:
			d[head] = value
			return d, nil
		case []interface{}:
			idx, err := arrayIndex(head, len(d), true)
			if err != nil {
				return nil, err
			}
			return insertAt(d, idx, value), nil
		default:
			return nil, fmt.Errorf("cannot add into %T at %q", doc, head)
		}
	}

	switch d := doc.(type) {
	case map[string]interface{}:
		child, ok := d[head]
		if !ok {
			return nil, fmt.Errorf("key %q not found", head)
		}
		newChild, err := addAt(child, rest, value)
		if err != nil {
			return nil, err
		}
		d[head] = newChild
		return d, nil
	case []interface{}:
		idx, err := arrayIndex(head, len(d), false)
		if err != nil {
			return nil, err
		}
		newChild, err := addAt(d[idx], rest, value)
		if err != nil {
			return nil, err
		}
		d[idx] = newChild
		return d, nil
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", doc, head)
	}
}

// removeAt returns the removed value and the document with it removed.
func removeAt(doc interface{}, tokens []string) (interface{}, interface{}, error) {
	if len(tokens) == 0 {
		return nil, nil, fmt.Errorf("cannot remove the document root")
	}
	head, rest := tokens[0], tokens[1:]

	if len(rest) == 0 {
		switch d := doc.(type) {
		case map[string]interface{}:
			v, ok := d[head]
			if !ok {
				return nil, nil, fmt.Errorf("key %q not found", head)
			}
			delete(d, head)
			return v, d, nil
		case []interface{}:
			idx, err := arrayIndex(head, len(d), false)
			if err != nil {
				return nil, nil, err
			}
			v := d[idx]
			return v, removeIndex(d, idx), nil
		default:
			return nil, nil, fmt.Errorf("cannot remove from %T at %q", doc, head)
		}
	}

	switch d := doc.(type) {
	case map[string]interface{}:
		child, ok := d[head]
		if !ok {
			return nil, nil, fmt.Errorf("key %q not found", head)
		}
		v, newChild, err := removeAt(child, rest)
		if err != nil {
			return nil, nil, err
		}
		d[head] = newChild
		return v, d, nil
	case []interface{}:
		idx, err := arrayIndex(head, len(d), false)
		if err != nil {
			return nil, nil, err
		}
		v, newChild, err := removeAt(d[idx], rest)
		if err != nil {
			return nil, nil, err
		}
		d[idx] = newChild
		return v, d, nil
	default:
		return nil, nil, fmt.Errorf("cannot descend into %T at %q", doc, head)
	}
}

func insertAt(arr []interface{}, idx int, value interface{}) []interface{} {
	out := make([]interface{}, len(arr)+1)
	copy(out, arr[:idx])
	out[idx] = value
	copy(out[idx+1:], arr[idx:])
	return out
}

func removeIndex(arr []interface{}, idx int) []interface{} {
	out := make([]interface{}, 0, len(arr)-1)
	out = append(out, arr[:idx]...)
	out = append(out, arr[idx+1:]...)
	return out
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return t
	}
}
