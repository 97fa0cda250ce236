// Binary container format for persisted bytecode (§6).
//
// File layout:
//
//	[Header]
//	  Magic (4 bytes): "GOSL" (0x474F534C)
//	  Version (4 bytes)
//	  Flags (4 bytes): reserved, currently 0
//
//	[Metas]    count (4 bytes) + each Meta
//	[Functions] count (4 bytes) + each Function
//	[Packages]  count (4 bytes) + each Package
//	[Ifaces]    count (4 bytes) + each InterfaceBinding
//	[Entry]     8 bytes (packed heap.Key)
//
// Heap keys are never persisted directly: on disk, every table is a dense,
// gap-free list in original insertion order, and Decode reconstructs keys
// positionally via heap.LoadEntries. A Key field inside a Meta/Function/
// Package (e.g. a struct field's FieldMetas entry) is persisted as its
// Pack()'d uint64, which Unpack() turns back into the same positional key
// after load, since insertion order — and therefore index assignment — is
// preserved byte-for-byte.
//
// Grounded on kristofer-smog's pkg/bytecode/format.go: the magic-number +
// version + flags header, one count-prefixed section per kind of object,
// and writeString/readString's length-prefixed UTF-8 convention are kept
// verbatim in spirit; the section list is generalized from smog's
// constants/instructions pair to this format's five sections.
package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/smoglang/gosl/pkg/heap"
	"github.com/smoglang/gosl/pkg/value"
)

const (
	magicNumber   uint32 = 0x474F534C // "GOSL"
	formatVersion uint32 = 1
	formatFlags   uint32 = 0
)

// Encode serializes c to the binary container format and writes it to w.
func Encode(c *Container, w io.Writer) error {
	if err := writeHeader(w); err != nil {
		return fmt.Errorf("bytecode: write header: %w", err)
	}
	if err := writeMetas(w, c.Objects.Metas.Entries()); err != nil {
		return fmt.Errorf("bytecode: write metas: %w", err)
	}
	if err := writeFunctions(w, c.Objects.Functions.Entries()); err != nil {
		return fmt.Errorf("bytecode: write functions: %w", err)
	}
	if err := writePackages(w, c.Objects.Packages.Entries()); err != nil {
		return fmt.Errorf("bytecode: write packages: %w", err)
	}
	if err := writeIfaces(w, c.Ifaces); err != nil {
		return fmt.Errorf("bytecode: write ifaces: %w", err)
	}
	return binary.Write(w, binary.LittleEndian, c.Entry.Pack())
}

// Decode reads a binary container from r.
func Decode(r io.Reader) (*Container, error) {
	version, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read header: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("bytecode: unsupported container version %d (want %d)", version, formatVersion)
	}

	metas, err := readMetas(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read metas: %w", err)
	}
	funcs, err := readFunctions(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read functions: %w", err)
	}
	pkgs, err := readPackages(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read packages: %w", err)
	}
	ifaces, err := readIfaces(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read ifaces: %w", err)
	}
	var entryPacked uint64
	if err := binary.Read(r, binary.LittleEndian, &entryPacked); err != nil {
		return nil, fmt.Errorf("bytecode: read entry: %w", err)
	}

	return &Container{
		Objects: &heap.Objects{
			Metas:     heap.LoadEntries(metas),
			Functions: heap.LoadEntries(funcs),
			Packages:  heap.LoadEntries(pkgs),
		},
		Ifaces: ifaces,
		Entry:  heap.Unpack(entryPacked),
	}, nil
}

func writeHeader(w io.Writer) error {
	for _, v := range []uint32{magicNumber, formatVersion, formatFlags} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) (uint32, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return 0, err
	}
	if magic != magicNumber {
		return 0, fmt.Errorf("invalid magic number: 0x%08X (expected 0x%08X)", magic, magicNumber)
	}
	var version, flags uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return 0, err
	}
	return version, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeStrings(w io.Writer, ss []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ss))); err != nil {
		return err
	}
	for _, s := range ss {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readStrings(r io.Reader) ([]string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func writeKey(w io.Writer, k heap.Key) error {
	return binary.Write(w, binary.LittleEndian, k.Pack())
}

func readKey(r io.Reader) (heap.Key, error) {
	var packed uint64
	if err := binary.Read(r, binary.LittleEndian, &packed); err != nil {
		return heap.Key{}, err
	}
	return heap.Unpack(packed), nil
}

func writeKeys(w io.Writer, ks []heap.Key) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ks))); err != nil {
		return err
	}
	for _, k := range ks {
		if err := writeKey(w, k); err != nil {
			return err
		}
	}
	return nil
}

func readKeys(r io.Reader) ([]heap.Key, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]heap.Key, n)
	for i := range out {
		k, err := readKey(r)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

func writeValueType(w io.Writer, t value.ValueType) error {
	return binary.Write(w, binary.LittleEndian, uint8(t))
}

func readValueType(r io.Reader) (value.ValueType, error) {
	var b uint8
	if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
		return 0, err
	}
	return value.ValueType(b), nil
}

func writeValueTypes(w io.Writer, ts []value.ValueType) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ts))); err != nil {
		return err
	}
	for _, t := range ts {
		if err := writeValueType(w, t); err != nil {
			return err
		}
	}
	return nil
}

func readValueTypes(r io.Reader) ([]value.ValueType, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]value.ValueType, n)
	for i := range out {
		t, err := readValueType(r)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// Constant-pool value kind tags. Only the kinds a compiler can fold to a
// true compile-time constant are representable here; everything else
// (slices, maps, structs, closures, pointers...) is always built at
// runtime by LITERAL/NEW/MAKE, never stored in Consts.
const (
	cvNil byte = iota
	cvBool
	cvInt64
	cvFloat64
	cvComplex128
	cvString
	cvMetadata
	cvFunction
)

func writeConstValue(w io.Writer, v value.Value) error {
	switch v.T {
	case value.Nil:
		return binary.Write(w, binary.LittleEndian, cvNil)
	case value.Bool:
		if err := binary.Write(w, binary.LittleEndian, cvBool); err != nil {
			return err
		}
		var b byte
		if v.Bool() {
			b = 1
		}
		return binary.Write(w, binary.LittleEndian, b)
	case value.String:
		if err := binary.Write(w, binary.LittleEndian, cvString); err != nil {
			return err
		}
		return writeString(w, v.Str().String())
	case value.Metadata:
		if err := binary.Write(w, binary.LittleEndian, cvMetadata); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, v.Key())
	case value.Function:
		if err := binary.Write(w, binary.LittleEndian, cvFunction); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, v.Key())
	case value.Complex128, value.Complex64:
		if err := binary.Write(w, binary.LittleEndian, cvComplex128); err != nil {
			return err
		}
		c := v.Complex128()
		if err := binary.Write(w, binary.LittleEndian, real(c)); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, imag(c))
	default:
		if v.T.IsCopyable() {
			if err := binary.Write(w, binary.LittleEndian, cvInt64); err != nil {
				return err
			}
			if err := writeValueType(w, v.T); err != nil {
				return err
			}
			return binary.Write(w, binary.LittleEndian, v.N)
		}
		return fmt.Errorf("value type %s is not constant-foldable", v.T)
	}
}

func readConstValue(r io.Reader) (value.Value, error) {
	var tag byte
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return value.Value{}, err
	}
	switch tag {
	case cvNil:
		return value.NewNil(), nil
	case cvBool:
		var b byte
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return value.Value{}, err
		}
		return value.NewBool(b != 0), nil
	case cvString:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(s), nil
	case cvMetadata:
		var k uint64
		if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
			return value.Value{}, err
		}
		return value.NewMetadata(k), nil
	case cvFunction:
		var k uint64
		if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
			return value.Value{}, err
		}
		return value.NewFunction(k), nil
	case cvComplex128:
		var re, im float64
		if err := binary.Read(r, binary.LittleEndian, &re); err != nil {
			return value.Value{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &im); err != nil {
			return value.Value{}, err
		}
		return value.NewComplex128(complex(re, im)), nil
	case cvInt64:
		t, err := readValueType(r)
		if err != nil {
			return value.Value{}, err
		}
		var n uint64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return value.Value{}, err
		}
		return value.Value{T: t, N: n}, nil
	default:
		return value.Value{}, fmt.Errorf("unknown constant-pool tag 0x%02X", tag)
	}
}

func writeConsts(w io.Writer, vs []value.Value) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vs))); err != nil {
		return err
	}
	for i, v := range vs {
		if err := writeConstValue(w, v); err != nil {
			return fmt.Errorf("const %d: %w", i, err)
		}
	}
	return nil
}

func readConsts(r io.Reader) ([]value.Value, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]value.Value, n)
	for i := range out {
		v, err := readConstValue(r)
		if err != nil {
			return nil, fmt.Errorf("const %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func writeInstr(w io.Writer, instr heap.Instr) error {
	fields := []any{instr.Op, uint8(instr.T0), uint8(instr.T1), uint8(instr.T2), instr.Imm, instr.Payload64}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readInstr(r io.Reader) (heap.Instr, error) {
	var instr heap.Instr
	var op uint16
	var t0, t1, t2 uint8
	if err := binary.Read(r, binary.LittleEndian, &op); err != nil {
		return instr, err
	}
	if err := binary.Read(r, binary.LittleEndian, &t0); err != nil {
		return instr, err
	}
	if err := binary.Read(r, binary.LittleEndian, &t1); err != nil {
		return instr, err
	}
	if err := binary.Read(r, binary.LittleEndian, &t2); err != nil {
		return instr, err
	}
	if err := binary.Read(r, binary.LittleEndian, &instr.Imm); err != nil {
		return instr, err
	}
	if err := binary.Read(r, binary.LittleEndian, &instr.Payload64); err != nil {
		return instr, err
	}
	instr.Op = op
	instr.T0, instr.T1, instr.T2 = value.ValueType(t0), value.ValueType(t1), value.ValueType(t2)
	return instr, nil
}

func writePosition(w io.Writer, p heap.Position) error {
	var valid byte
	if p.Valid {
		valid = 1
	}
	if err := binary.Write(w, binary.LittleEndian, valid); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(p.Line)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, int32(p.Col))
}

func readPosition(r io.Reader) (heap.Position, error) {
	var valid byte
	if err := binary.Read(r, binary.LittleEndian, &valid); err != nil {
		return heap.Position{}, err
	}
	var line, col int32
	if err := binary.Read(r, binary.LittleEndian, &line); err != nil {
		return heap.Position{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &col); err != nil {
		return heap.Position{}, err
	}
	return heap.Position{Line: int(line), Col: int(col), Valid: valid != 0}, nil
}

func writeFunction(w io.Writer, f *heap.Function) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(f.Code))); err != nil {
		return err
	}
	for _, instr := range f.Code {
		if err := writeInstr(w, instr); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(f.Pos))); err != nil {
		return err
	}
	for _, p := range f.Pos {
		if err := writePosition(w, p); err != nil {
			return err
		}
	}
	if err := writeConsts(w, f.Consts); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(f.UpPtrs))); err != nil {
		return err
	}
	for _, up := range f.UpPtrs {
		if err := writeKey(w, up.SourceFunc); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(up.SlotIndex)); err != nil {
			return err
		}
		if err := writeValueType(w, up.Type); err != nil {
			return err
		}
		iop := byte(0)
		if up.IsUpvalueOfParent {
			iop = 1
		}
		if err := binary.Write(w, binary.LittleEndian, iop); err != nil {
			return err
		}
	}
	if err := writeValueTypes(w, f.StackTempTypes); err != nil {
		return err
	}
	if err := writeConsts(w, f.RetZeros); err != nil {
		return err
	}
	if err := writeConsts(w, f.LocalZeros); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(f.ParamCount)); err != nil {
		return err
	}
	hasRecv := byte(0)
	if f.HasRecv {
		hasRecv = 1
	}
	if err := binary.Write(w, binary.LittleEndian, hasRecv); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(f.Flag)); err != nil {
		return err
	}
	return writeString(w, f.Name)
}

func readFunction(r io.Reader) (*heap.Function, error) {
	f := &heap.Function{}

	var codeLen uint32
	if err := binary.Read(r, binary.LittleEndian, &codeLen); err != nil {
		return nil, err
	}
	f.Code = make([]heap.Instr, codeLen)
	for i := range f.Code {
		instr, err := readInstr(r)
		if err != nil {
			return nil, err
		}
		f.Code[i] = instr
	}

	var posLen uint32
	if err := binary.Read(r, binary.LittleEndian, &posLen); err != nil {
		return nil, err
	}
	f.Pos = make([]heap.Position, posLen)
	for i := range f.Pos {
		p, err := readPosition(r)
		if err != nil {
			return nil, err
		}
		f.Pos[i] = p
	}

	consts, err := readConsts(r)
	if err != nil {
		return nil, err
	}
	f.Consts = consts

	var upLen uint32
	if err := binary.Read(r, binary.LittleEndian, &upLen); err != nil {
		return nil, err
	}
	f.UpPtrs = make([]heap.UpvaluePtr, upLen)
	for i := range f.UpPtrs {
		src, err := readKey(r)
		if err != nil {
			return nil, err
		}
		var slot int32
		if err := binary.Read(r, binary.LittleEndian, &slot); err != nil {
			return nil, err
		}
		t, err := readValueType(r)
		if err != nil {
			return nil, err
		}
		var iop byte
		if err := binary.Read(r, binary.LittleEndian, &iop); err != nil {
			return nil, err
		}
		f.UpPtrs[i] = heap.UpvaluePtr{SourceFunc: src, SlotIndex: int(slot), Type: t, IsUpvalueOfParent: iop != 0}
	}

	stackTypes, err := readValueTypes(r)
	if err != nil {
		return nil, err
	}
	f.StackTempTypes = stackTypes

	retZeros, err := readConsts(r)
	if err != nil {
		return nil, err
	}
	f.RetZeros = retZeros

	localZeros, err := readConsts(r)
	if err != nil {
		return nil, err
	}
	f.LocalZeros = localZeros

	var paramCount int32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return nil, err
	}
	f.ParamCount = int(paramCount)

	var hasRecv byte
	if err := binary.Read(r, binary.LittleEndian, &hasRecv); err != nil {
		return nil, err
	}
	f.HasRecv = hasRecv != 0

	var flag uint8
	if err := binary.Read(r, binary.LittleEndian, &flag); err != nil {
		return nil, err
	}
	f.Flag = heap.FunctionFlag(flag)

	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	f.Name = name

	return f, nil
}

func writeFunctions(w io.Writer, fs []*heap.Function) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(fs))); err != nil {
		return err
	}
	for i, f := range fs {
		if err := writeFunction(w, f); err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
	}
	return nil
}

func readFunctions(r io.Reader) ([]*heap.Function, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]*heap.Function, n)
	for i := range out {
		f, err := readFunction(r)
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

func writeMeta(w io.Writer, m *heap.Meta) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(m.Kind)); err != nil {
		return err
	}
	if err := writeValueTypes(w, m.ParamTypes); err != nil {
		return err
	}
	if err := writeValueTypes(w, m.ResultTypes); err != nil {
		return err
	}
	variadic := byte(0)
	if m.Variadic {
		variadic = 1
	}
	if err := binary.Write(w, binary.LittleEndian, variadic); err != nil {
		return err
	}
	if err := writeStrings(w, m.FieldNames); err != nil {
		return err
	}
	if err := writeValueTypes(w, m.FieldTypes); err != nil {
		return err
	}
	if err := writeKeys(w, m.FieldMetas); err != nil {
		return err
	}
	if err := writeStrings(w, m.MethodNames); err != nil {
		return err
	}
	if err := writeValueType(w, m.ElemType); err != nil {
		return err
	}
	if err := writeKey(w, m.ElemMeta); err != nil {
		return err
	}
	if err := writeValueType(w, m.KeyType); err != nil {
		return err
	}
	if err := writeKey(w, m.KeyMeta); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(m.ArrayLen)); err != nil {
		return err
	}
	if err := writeValueType(w, m.PointeeType); err != nil {
		return err
	}
	if err := writeKey(w, m.PointeeMeta); err != nil {
		return err
	}
	if err := writeString(w, m.Name); err != nil {
		return err
	}
	if err := writeValueType(w, m.Underlying); err != nil {
		return err
	}
	return writeKey(w, m.UnderlyingMeta)
}

func readMeta(r io.Reader) (*heap.Meta, error) {
	m := &heap.Meta{}
	var kind uint8
	if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
		return nil, err
	}
	m.Kind = heap.MetaKind(kind)

	var err error
	if m.ParamTypes, err = readValueTypes(r); err != nil {
		return nil, err
	}
	if m.ResultTypes, err = readValueTypes(r); err != nil {
		return nil, err
	}
	var variadic byte
	if err := binary.Read(r, binary.LittleEndian, &variadic); err != nil {
		return nil, err
	}
	m.Variadic = variadic != 0
	if m.FieldNames, err = readStrings(r); err != nil {
		return nil, err
	}
	if m.FieldTypes, err = readValueTypes(r); err != nil {
		return nil, err
	}
	if m.FieldMetas, err = readKeys(r); err != nil {
		return nil, err
	}
	if m.MethodNames, err = readStrings(r); err != nil {
		return nil, err
	}
	if m.ElemType, err = readValueType(r); err != nil {
		return nil, err
	}
	if m.ElemMeta, err = readKey(r); err != nil {
		return nil, err
	}
	if m.KeyType, err = readValueType(r); err != nil {
		return nil, err
	}
	if m.KeyMeta, err = readKey(r); err != nil {
		return nil, err
	}
	var arrayLen int32
	if err := binary.Read(r, binary.LittleEndian, &arrayLen); err != nil {
		return nil, err
	}
	m.ArrayLen = int(arrayLen)
	if m.PointeeType, err = readValueType(r); err != nil {
		return nil, err
	}
	if m.PointeeMeta, err = readKey(r); err != nil {
		return nil, err
	}
	if m.Name, err = readString(r); err != nil {
		return nil, err
	}
	if m.Underlying, err = readValueType(r); err != nil {
		return nil, err
	}
	if m.UnderlyingMeta, err = readKey(r); err != nil {
		return nil, err
	}
	return m, nil
}

func writeMetas(w io.Writer, ms []*heap.Meta) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ms))); err != nil {
		return err
	}
	for i, m := range ms {
		if err := writeMeta(w, m); err != nil {
			return fmt.Errorf("meta %d: %w", i, err)
		}
	}
	return nil
}

func readMetas(r io.Reader) ([]*heap.Meta, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]*heap.Meta, n)
	for i := range out {
		m, err := readMeta(r)
		if err != nil {
			return nil, fmt.Errorf("meta %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

func writePackage(w io.Writer, p *heap.Package) error {
	if err := writeString(w, p.Name); err != nil {
		return err
	}
	if err := writeConsts(w, p.Members); err != nil {
		return err
	}
	if err := writeValueTypes(w, p.MemberTypes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(p.MemberKinds))); err != nil {
		return err
	}
	for _, k := range p.MemberKinds {
		if err := binary.Write(w, binary.LittleEndian, uint8(k)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(p.MemberIndices))); err != nil {
		return err
	}
	for name, idx := range p.MemberIndices {
		if err := writeString(w, name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(idx)); err != nil {
			return err
		}
	}
	return writeConsts(w, p.InitFuncs)
}

func readPackage(r io.Reader) (*heap.Package, error) {
	p := heap.NewPackage("")
	var err error
	if p.Name, err = readString(r); err != nil {
		return nil, err
	}
	if p.Members, err = readConsts(r); err != nil {
		return nil, err
	}
	if p.MemberTypes, err = readValueTypes(r); err != nil {
		return nil, err
	}
	var kindCount uint32
	if err := binary.Read(r, binary.LittleEndian, &kindCount); err != nil {
		return nil, err
	}
	p.MemberKinds = make([]heap.MemberKind, kindCount)
	for i := range p.MemberKinds {
		var k uint8
		if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
			return nil, err
		}
		p.MemberKinds[i] = heap.MemberKind(k)
	}
	var indexCount uint32
	if err := binary.Read(r, binary.LittleEndian, &indexCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < indexCount; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		var idx int32
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return nil, err
		}
		p.MemberIndices[name] = int(idx)
	}
	initFuncs, err := readConsts(r)
	if err != nil {
		return nil, err
	}
	p.InitFuncs = initFuncs
	// Persisted packages are always already initialized: running
	// constructors again on every load would re-execute side effects. A
	// container produced straight off the compiler pipeline instead builds
	// its Objects.Packages in memory with VarMapping still set, never
	// through Decode.
	p.VarMapping = nil
	return p, nil
}

func writePackages(w io.Writer, pkgs []*heap.Package) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(pkgs))); err != nil {
		return err
	}
	for i, p := range pkgs {
		if err := writePackage(w, p); err != nil {
			return fmt.Errorf("package %d: %w", i, err)
		}
	}
	return nil
}

func readPackages(r io.Reader) ([]*heap.Package, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]*heap.Package, n)
	for i := range out {
		p, err := readPackage(r)
		if err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func writeMethodBinding(w io.Writer, mb MethodBinding) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(mb.Kind)); err != nil {
		return err
	}
	if err := writeKey(w, mb.Func); err != nil {
		return err
	}
	indirect := byte(0)
	if mb.Indirect {
		indirect = 1
	}
	if err := binary.Write(w, binary.LittleEndian, indirect); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(mb.Embed))); err != nil {
		return err
	}
	for _, idx := range mb.Embed {
		if err := binary.Write(w, binary.LittleEndian, int32(idx)); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, int32(mb.Nested))
}

func readMethodBinding(r io.Reader) (MethodBinding, error) {
	var mb MethodBinding
	var kind uint8
	if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
		return mb, err
	}
	mb.Kind = MethodBindingKind(kind)
	fn, err := readKey(r)
	if err != nil {
		return mb, err
	}
	mb.Func = fn
	var indirect byte
	if err := binary.Read(r, binary.LittleEndian, &indirect); err != nil {
		return mb, err
	}
	mb.Indirect = indirect != 0
	var embedLen uint32
	if err := binary.Read(r, binary.LittleEndian, &embedLen); err != nil {
		return mb, err
	}
	mb.Embed = make([]int, embedLen)
	for i := range mb.Embed {
		var idx int32
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return mb, err
		}
		mb.Embed[i] = int(idx)
	}
	var nested int32
	if err := binary.Read(r, binary.LittleEndian, &nested); err != nil {
		return mb, err
	}
	mb.Nested = int(nested)
	return mb, nil
}

func writeIfaces(w io.Writer, ifaces []InterfaceBinding) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ifaces))); err != nil {
		return err
	}
	for _, ib := range ifaces {
		if err := writeKey(w, ib.InterfaceMeta); err != nil {
			return err
		}
		if err := writeKey(w, ib.ConcreteMeta); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(ib.Methods))); err != nil {
			return err
		}
		for _, mb := range ib.Methods {
			if err := writeMethodBinding(w, mb); err != nil {
				return err
			}
		}
	}
	return nil
}

func readIfaces(r io.Reader) ([]InterfaceBinding, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]InterfaceBinding, n)
	for i := range out {
		ifaceMeta, err := readKey(r)
		if err != nil {
			return nil, err
		}
		concreteMeta, err := readKey(r)
		if err != nil {
			return nil, err
		}
		var methodCount uint32
		if err := binary.Read(r, binary.LittleEndian, &methodCount); err != nil {
			return nil, err
		}
		methods := make([]MethodBinding, methodCount)
		for j := range methods {
			mb, err := readMethodBinding(r)
			if err != nil {
				return nil, err
			}
			methods[j] = mb
		}
		out[i] = InterfaceBinding{InterfaceMeta: ifaceMeta, ConcreteMeta: concreteMeta, Methods: methods}
	}
	return out, nil
}
