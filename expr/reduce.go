package expr

import "reflect"

// Reducible is implemented by nodes that are artifacts of how the tree
// was built and can be replaced by a simpler equivalent.
type Reducible interface {
	Node

	CanReduce() bool
	Reduce() Node
}

// CanReduce reports whether u is a conversion that can be dropped:
// a conversion to the operand's own type, or a conversion of a literal
// that keeps the literal's value. The operand is reduced first, so
// chains of conversions around a literal collapse into one literal.
func (u *Unary) CanReduce() bool {
	if u.Op != OpConvert || u.Operand == nil {
		return false
	}
	operand := Reduce(u.Operand)
	if u.To == nil || u.To == operand.Type() {
		return true
	}
	c, ok := operand.(*Constant)
	if !ok {
		return false
	}
	return preservesLiteral(reflect.ValueOf(c.Value), u.To)
}

// Reduce returns the operand of a no-op conversion,
// or the literal converted to the target type.
func (u *Unary) Reduce() Node {
	if !u.CanReduce() {
		return u
	}
	operand := Reduce(u.Operand)
	if u.To == nil || u.To == operand.Type() {
		return operand
	}
	v := reflect.ValueOf(operand.(*Constant).Value)
	return &Constant{Value: v.Convert(u.To).Interface()}
}

// preservesLiteral reports whether converting v to t keeps its value.
// Only numeric conversions, conversions between string or bool types,
// and conversions to an interface v implements qualify; numbers must
// convert back to the same value and keep their sign. Narrowing,
// truncation and conversions that change the representation, such as
// string to []byte or int to string, do not.
func preservesLiteral(v reflect.Value, t reflect.Type) bool {
	if !v.IsValid() {
		return false
	}
	if t.Kind() == reflect.Interface {
		return v.Type().Implements(t)
	}

	vk, tk := v.Kind(), t.Kind()
	switch {
	case isNumber(vk) && isNumber(tk):
		c := v.Convert(t)
		if !c.Convert(v.Type()).Equal(v) {
			return false
		}
		// Signed and unsigned integers wrap around and still round trip.
		switch {
		case isSigned(vk) && isUnsigned(tk):
			return v.Int() >= 0
		case isUnsigned(vk) && isSigned(tk):
			return c.Int() >= 0
		case isFloat(vk) && isUnsigned(tk):
			return v.Float() >= 0
		}
		return true
	case vk == tk && (vk == reflect.String || vk == reflect.Bool):
		return true
	}
	return false
}

func isInteger(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k)
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
