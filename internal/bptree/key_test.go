package bptree

import (
	"errors"
	"testing"

	"github.com/kavak-db/kavak/internal/config"
)

func testKeySchema() config.Schema {
	return config.Schema{
		{Type: config.Int32},
		{Type: config.FixedString, Width: 3},
	}
}

func mustKey(t *testing.T, schema config.Schema, values ...Value) Key {
	t.Helper()
	key, err := NewKey(schema, values...)
	if err != nil {
		t.Fatalf("NewKey failed: %v", err)
	}
	return key
}

func TestNewKeyValidation(t *testing.T) {
	schema := testKeySchema()

	if _, err := NewKey(schema, Int32Value(1)); !errors.Is(err, ErrKeyArity) {
		t.Errorf("short key error = %v, want ErrKeyArity", err)
	}
	if _, err := NewKey(schema, Int64Value(1), StringValue("abc")); !errors.Is(err, ErrKeyColumnMismatch) {
		t.Errorf("type mismatch error = %v, want ErrKeyColumnMismatch", err)
	}
	if _, err := NewKey(schema, Int32Value(1), StringValue("abcd")); !errors.Is(err, ErrKeyColumnMismatch) {
		t.Errorf("width mismatch error = %v, want ErrKeyColumnMismatch", err)
	}
	if _, err := NewKey(schema, Int32Value(1), StringValue("ab")); !errors.Is(err, ErrKeyColumnMismatch) {
		t.Errorf("narrow string error = %v, want ErrKeyColumnMismatch", err)
	}

	key, err := NewKey(schema, Int32Value(42), StringValue("abc"))
	if err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if key[0].Int32() != 42 || key[1].String() != "abc" {
		t.Errorf("key values = (%d, %q)", key[0].Int32(), key[1].String())
	}
}

func TestKeyCompareColumnOrder(t *testing.T) {
	schema := testKeySchema()

	a := mustKey(t, schema, Int32Value(1), StringValue("bbb"))
	b := mustKey(t, schema, Int32Value(2), StringValue("aaa"))
	c := mustKey(t, schema, Int32Value(1), StringValue("ccc"))

	// First column decides before the second is consulted.
	if a.Compare(b) >= 0 {
		t.Error("expected a < b on first column")
	}
	if a.Compare(c) >= 0 {
		t.Error("expected a < c on second column")
	}
	if !a.Equal(mustKey(t, schema, Int32Value(1), StringValue("bbb"))) {
		t.Error("expected equal keys to compare equal")
	}
}

func TestKeyCompareFloats(t *testing.T) {
	schema := config.Schema{{Type: config.Float64}}

	lo := mustKey(t, schema, Float64Value(-1.5))
	hi := mustKey(t, schema, Float64Value(2.25))
	if lo.Compare(hi) >= 0 || hi.Compare(lo) <= 0 {
		t.Error("float ordering broken")
	}
}
