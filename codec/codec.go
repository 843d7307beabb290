// Package codec encodes predicate trees in a MessagePack wire form, so a
// predicate built in one service can be compiled in another.
//
// Static functions cannot travel over the wire. They are encoded by
// name and resolved on decode through a [Functions] table:
//
//	data, err := codec.Marshal(pred)
//	...
//	pred, err := codec.Unmarshal[User](data, codec.Functions{"ToLower": strings.ToLower})
//
// Conversions to basic types keep their target type; conversions to
// other types are encoded without one and compile as pass-through.
package codec

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/hugr-lab/listfilter/expr"
	"github.com/hugr-lab/listfilter/internal/msgpack"
	"github.com/hugr-lab/listfilter/internal/serialize"
)

// Functions resolves the names of static function calls to Go functions
// when decoding.
type Functions map[string]any

// Errors returned while decoding.
var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrUnknownKind     = errors.New("unknown node kind")
)

// Value type hints for constants whose Go type MessagePack does not keep.
const (
	hintUUID = "uuid"
)

// rawHeader is used for two-phase decoding to determine the node kind.
type rawHeader struct {
	Kind string `msgpack:"kind"`
}

type rawLambda struct {
	Kind  string             `msgpack:"kind"`
	Param string             `msgpack:"param"`
	Body  msgpack.RawMessage `msgpack:"body"`
}

type rawParameter struct {
	Kind string `msgpack:"kind"`
	Name string `msgpack:"name"`
}

type rawUnary struct {
	Kind    string             `msgpack:"kind"`
	Op      string             `msgpack:"op"`
	To      string             `msgpack:"to,omitempty"`
	Operand msgpack.RawMessage `msgpack:"operand"`
}

type rawBinary struct {
	Kind  string             `msgpack:"kind"`
	Op    string             `msgpack:"op"`
	Left  msgpack.RawMessage `msgpack:"left"`
	Right msgpack.RawMessage `msgpack:"right"`
}

type rawCall struct {
	Kind     string               `msgpack:"kind"`
	Method   string               `msgpack:"method"`
	Static   bool                 `msgpack:"static,omitempty"`
	Receiver msgpack.RawMessage   `msgpack:"receiver,omitempty"`
	Args     []msgpack.RawMessage `msgpack:"args,omitempty"`
}

type rawMember struct {
	Kind   string             `msgpack:"kind"`
	Field  string             `msgpack:"field"`
	Target msgpack.RawMessage `msgpack:"target"`
}

type rawConstant struct {
	Kind  string `msgpack:"kind"`
	Hint  string `msgpack:"hint,omitempty"`
	Value any    `msgpack:"value"`
}

// basicTypes are the conversion targets kept on the wire.
var basicTypes = map[string]reflect.Type{}

func init() {
	for _, v := range []any{
		false, "",
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
	} {
		t := reflect.TypeOf(v)
		basicTypes[t.String()] = t
	}
}

// Marshal encodes the predicate l.
func Marshal(l *expr.Lambda) ([]byte, error) {
	if l == nil || l.Param == nil {
		return nil, fmt.Errorf("codec: predicate has no parameter")
	}
	data, err := encodeNode(l)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return data, nil
}

func encodeNode(n expr.Node) (msgpack.RawMessage, error) {
	switch n := n.(type) {
	case *expr.Lambda:
		body, err := encodeNode(n.Body)
		if err != nil {
			return nil, err
		}
		return msgpack.EncodeRaw(rawLambda{Kind: string(expr.KindLambda), Param: n.Param.Name, Body: body})

	case *expr.Parameter:
		return msgpack.EncodeRaw(rawParameter{Kind: string(expr.KindParameter), Name: n.Name})

	case *expr.Unary:
		operand, err := encodeNode(n.Operand)
		if err != nil {
			return nil, err
		}
		raw := rawUnary{Kind: string(expr.KindUnary), Op: string(n.Op), Operand: operand}
		if n.To != nil {
			if _, ok := basicTypes[n.To.String()]; ok && n.To.PkgPath() == "" {
				raw.To = n.To.String()
			}
		}
		return msgpack.EncodeRaw(raw)

	case *expr.Binary:
		left, err := encodeNode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeNode(n.Right)
		if err != nil {
			return nil, err
		}
		return msgpack.EncodeRaw(rawBinary{Kind: string(expr.KindBinary), Op: string(n.Op), Left: left, Right: right})

	case *expr.Call:
		raw := rawCall{Kind: string(expr.KindCall), Method: n.Method, Static: n.Receiver == nil}
		if n.Receiver != nil {
			recv, err := encodeNode(n.Receiver)
			if err != nil {
				return nil, err
			}
			raw.Receiver = recv
		}
		for i, arg := range n.Args {
			a, err := encodeNode(arg)
			if err != nil {
				return nil, fmt.Errorf("argument %d of %s: %w", i, n.Method, err)
			}
			raw.Args = append(raw.Args, a)
		}
		return msgpack.EncodeRaw(raw)

	case *expr.Member:
		target, err := encodeNode(n.Target)
		if err != nil {
			return nil, err
		}
		return msgpack.EncodeRaw(rawMember{Kind: string(expr.KindMember), Field: n.Field, Target: target})

	case *expr.Constant:
		raw := rawConstant{Kind: string(expr.KindConstant), Value: n.Value}
		switch v := n.Value.(type) {
		case uuid.UUID:
			raw.Hint, raw.Value = hintUUID, v.String()
		case *uuid.UUID:
			if v != nil {
				raw.Hint, raw.Value = hintUUID, v.String()
			}
		}
		return msgpack.EncodeRaw(raw)

	case nil:
		return nil, fmt.Errorf("nil node")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, n.Kind())
	}
}

// Unmarshal decodes a predicate over records of type T.
func Unmarshal[T any](data []byte, funcs Functions) (*expr.Lambda, error) {
	return UnmarshalType(data, reflect.TypeFor[T](), funcs)
}

// UnmarshalType decodes a predicate over records of type t.
//
// Error conditions:
//   - Invalid MessagePack data
//   - Unknown node kind
//   - Static call whose name is missing from funcs
func UnmarshalType(data []byte, t reflect.Type, funcs Functions) (*expr.Lambda, error) {
	var raw rawLambda
	if err := msgpack.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("codec: invalid predicate: %w", err)
	}
	if raw.Kind != string(expr.KindLambda) {
		return nil, fmt.Errorf("codec: %w: root is %s, want %s", ErrUnknownKind, raw.Kind, expr.KindLambda)
	}

	d := &decoder{param: expr.ParamOf(raw.Param, t), funcs: funcs}
	body, err := d.decode(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return expr.Where(d.param, body), nil
}

// decoder holds the state of a single decode.
// Every parameter reference resolves to the same *expr.Parameter.
type decoder struct {
	param *expr.Parameter
	funcs Functions
}

func (d *decoder) decode(data msgpack.RawMessage) (expr.Node, error) {
	var hdr rawHeader
	if err := msgpack.Decode(data, &hdr); err != nil {
		return nil, fmt.Errorf("invalid node: %w", err)
	}

	switch expr.NodeKind(hdr.Kind) {
	case expr.KindParameter:
		return d.param, nil
	case expr.KindUnary:
		return d.decodeUnary(data)
	case expr.KindBinary:
		return d.decodeBinary(data)
	case expr.KindCall:
		return d.decodeCall(data)
	case expr.KindMember:
		return d.decodeMember(data)
	case expr.KindConstant:
		return d.decodeConstant(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, hdr.Kind)
	}
}

func (d *decoder) decodeUnary(data msgpack.RawMessage) (expr.Node, error) {
	var raw rawUnary
	if err := msgpack.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid unary node: %w", err)
	}
	operand, err := d.decode(raw.Operand)
	if err != nil {
		return nil, fmt.Errorf("invalid operand of %s: %w", raw.Op, err)
	}
	u := expr.MakeUnary(expr.Op(raw.Op), operand)
	if raw.To != "" {
		to, ok := basicTypes[raw.To]
		if !ok {
			return nil, fmt.Errorf("invalid conversion target %q", raw.To)
		}
		u.To = to
	}
	return u, nil
}

func (d *decoder) decodeBinary(data msgpack.RawMessage) (expr.Node, error) {
	var raw rawBinary
	if err := msgpack.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid binary node: %w", err)
	}
	left, err := d.decode(raw.Left)
	if err != nil {
		return nil, fmt.Errorf("invalid left operand of %s: %w", raw.Op, err)
	}
	right, err := d.decode(raw.Right)
	if err != nil {
		return nil, fmt.Errorf("invalid right operand of %s: %w", raw.Op, err)
	}
	return expr.MakeBinary(expr.Op(raw.Op), left, right), nil
}

func (d *decoder) decodeCall(data msgpack.RawMessage) (expr.Node, error) {
	var raw rawCall
	if err := msgpack.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid call node: %w", err)
	}

	args := make([]expr.Node, 0, len(raw.Args))
	for i, a := range raw.Args {
		arg, err := d.decode(a)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %d of %s: %w", i, raw.Method, err)
		}
		args = append(args, arg)
	}

	if raw.Static {
		fn, ok := d.funcs[raw.Method]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, raw.Method)
		}
		return expr.Func(raw.Method, fn, args...), nil
	}

	recv, err := d.decode(raw.Receiver)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver of %s: %w", raw.Method, err)
	}
	return expr.Method(recv, raw.Method, args...), nil
}

func (d *decoder) decodeMember(data msgpack.RawMessage) (expr.Node, error) {
	var raw rawMember
	if err := msgpack.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid member node: %w", err)
	}
	target, err := d.decode(raw.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid target of %s: %w", raw.Field, err)
	}
	return expr.Field(target, raw.Field), nil
}

func (d *decoder) decodeConstant(data msgpack.RawMessage) (expr.Node, error) {
	var raw rawConstant
	if err := msgpack.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid constant node: %w", err)
	}
	switch raw.Hint {
	case "":
		return expr.Const(raw.Value), nil
	case hintUUID:
		s, ok := raw.Value.(string)
		if !ok {
			return nil, fmt.Errorf("invalid uuid constant of type %T", raw.Value)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid constant: %w", err)
		}
		return expr.Const(id), nil
	default:
		return nil, fmt.Errorf("invalid constant hint %q", raw.Hint)
	}
}

// The compressor and decompressor are created on first use and shared
// by every caller for the life of the process; they are never closed.
var (
	compressorOnce   = sync.OnceValues(serialize.NewCompressor)
	decompressorOnce = sync.OnceValues(func() (*serialize.Decompressor, error) {
		return serialize.NewDecompressor(maxDecompressedSize)
	})
)

// maxDecompressedSize bounds the size of a decompressed predicate.
const maxDecompressedSize = 16 << 20

// MarshalCompressed encodes l and compresses the result with ZStandard.
func MarshalCompressed(l *expr.Lambda) ([]byte, error) {
	data, err := Marshal(l)
	if err != nil {
		return nil, err
	}
	c, err := compressorOnce()
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return c.Compress(data), nil
}

// UnmarshalCompressed decompresses data written by [MarshalCompressed]
// and decodes a predicate over records of type T.
func UnmarshalCompressed[T any](data []byte, funcs Functions) (*expr.Lambda, error) {
	d, err := decompressorOnce()
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	raw, err := d.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return Unmarshal[T](raw, funcs)
}
