package expr

import (
	"reflect"
	"testing"
)

type account struct {
	Name    string
	Balance int64
}

func TestReduceConvertConstant(t *testing.T) {
	n := Reduce(Convert(Const(int32(7)), reflect.TypeFor[int64]()))
	c, ok := n.(*Constant)
	if !ok {
		t.Fatalf("expected *Constant, got %T", n)
	}
	if v, ok := c.Value.(int64); !ok || v != 7 {
		t.Errorf("expected int64(7), got %#v", c.Value)
	}
}

func TestReduceNestedConversions(t *testing.T) {
	// int8 -> int32 -> int64 reduces all the way to a single literal.
	n := Reduce(Convert(Convert(Const(int8(5)), reflect.TypeFor[int32]()), reflect.TypeFor[int64]()))
	c, ok := n.(*Constant)
	if !ok {
		t.Fatalf("expected *Constant, got %T", n)
	}
	if c.Value != int64(5) {
		t.Errorf("expected int64(5), got %#v", c.Value)
	}
}

func TestReduceIdentityConversion(t *testing.T) {
	p := Param[account]("a")
	f := Field(p, "Name")
	if n := Reduce(Convert(f, reflect.TypeFor[string]())); n != Node(f) {
		t.Errorf("expected conversion to own type to reduce to operand, got %#v", n)
	}
	if n := Reduce(Convert(f, nil)); n != Node(f) {
		t.Errorf("expected untyped conversion to reduce to operand, got %#v", n)
	}
}

func TestReduceKeepsWideningOfField(t *testing.T) {
	p := Param[account]("a")
	u := Convert(Field(p, "Balance"), reflect.TypeFor[float64]())
	if n := Reduce(u); n != Node(u) {
		t.Errorf("expected conversion of field to stay, got %#v", n)
	}
}

func TestReduceSkipsIntegerToString(t *testing.T) {
	u := Convert(Const(65), reflect.TypeFor[string]())
	if u.CanReduce() {
		t.Error("expected int to string conversion not to reduce")
	}
	if n := Reduce(u); n != Node(u) {
		t.Errorf("expected node unchanged, got %#v", n)
	}
}

func TestReduceNonReducible(t *testing.T) {
	nodes := []Node{
		Const(1),
		Not(Const(true)),
		Eq(Const(1), Const(2)),
		Method(Const("a"), "ToLower"),
	}
	for _, n := range nodes {
		if got := Reduce(n); got != n {
			t.Errorf("expected %T to be returned unchanged", n)
		}
	}
}

type currency string

func TestReduceValuePreservingConversions(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want any
	}{
		{"widening signed", Convert(Const(int8(-5)), reflect.TypeFor[int64]()), int64(-5)},
		{"unsigned to wider signed", Convert(Const(uint8(200)), reflect.TypeFor[int16]()), int16(200)},
		{"non-negative to unsigned", Convert(Const(42), reflect.TypeFor[uint32]()), uint32(42)},
		{"int to float", Convert(Const(int32(7)), reflect.TypeFor[float64]()), float64(7)},
		{"integral float to int", Convert(Const(7.0), reflect.TypeFor[int]()), 7},
		{"named string", Convert(Const("EUR"), reflect.TypeFor[currency]()), currency("EUR")},
		{"interface target", Convert(Const(3), reflect.TypeFor[any]()), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Reduce(tt.node).(*Constant)
			if !ok {
				t.Fatalf("expected *Constant, got %T", Reduce(tt.node))
			}
			if !reflect.DeepEqual(c.Value, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, c.Value)
			}
		})
	}
}

func TestReduceKeepsValueChangingConversions(t *testing.T) {
	tests := []struct {
		name string
		node *Unary
	}{
		{"float truncation", Convert(Const(3.7), reflect.TypeFor[int]())},
		{"integer overflow", Convert(Const(int64(300)), reflect.TypeFor[int8]())},
		{"float narrowing", Convert(Const(0.1), reflect.TypeFor[float32]())},
		{"negative to unsigned", Convert(Const(-1), reflect.TypeFor[uint]())},
		{"large unsigned to signed", Convert(Const(uint64(1<<63)), reflect.TypeFor[int64]())},
		{"string to bytes", Convert(Const("abc"), reflect.TypeFor[[]byte]())},
		{"bool to interface it does not implement", Convert(Const(true), reflect.TypeFor[error]())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.node.CanReduce() {
				t.Error("expected conversion not to reduce")
			}
			if n := Reduce(tt.node); n != Node(tt.node) {
				t.Errorf("expected node unchanged, got %#v", n)
			}
		})
	}
}
