package sui

import (
	"fmt"
	"strings"
)

// TypeTag は Move の型引数です。このパッケージでは構造体型のみを扱います。
type TypeTag struct {
	Struct *StructTag
}

// StructTag は address::module::Name<T...> 形式の構造体型です。
type StructTag struct {
	Address    Address
	Module     string
	Name       string
	TypeParams []TypeTag
}

// NewStructType は構造体型の TypeTag を作成します。
func NewStructType(addr Address, module, name string, params ...TypeTag) TypeTag {
	return TypeTag{Struct: &StructTag{Address: addr, Module: module, Name: name, TypeParams: params}}
}

// String は RPC で使われる表記 (0x2::kiosk::Kiosk など) を返します。
func (t TypeTag) String() string {
	if t.Struct == nil {
		return ""
	}
	s := t.Struct
	var sb strings.Builder
	sb.WriteString(shortAddress(s.Address) + "::" + s.Module + "::" + s.Name)
	if len(s.TypeParams) > 0 {
		params := make([]string, len(s.TypeParams))
		for i, p := range s.TypeParams {
			params[i] = p.String()
		}
		sb.WriteString("<" + strings.Join(params, ", ") + ">")
	}
	return sb.String()
}

func (t TypeTag) encode(w *bcsWriter) error {
	if t.Struct == nil {
		return fmt.Errorf("構造体型以外の TypeTag には対応していません")
	}
	w.uleb128(typeTagStruct)
	w.address(t.Struct.Address)
	w.string(t.Struct.Module)
	w.string(t.Struct.Name)
	w.uleb128(uint64(len(t.Struct.TypeParams)))
	for _, p := range t.Struct.TypeParams {
		if err := p.encode(w); err != nil {
			return err
		}
	}
	return nil
}

// shortAddress は先頭のゼロを省いた 0x 表記を返します。
func shortAddress(a Address) string {
	s := strings.TrimLeft(a.String()[2:], "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}

// ObjectRef は所有オブジェクトの参照です。
type ObjectRef struct {
	ObjectID ObjectID
	Version  uint64
	Digest   Digest
}

func (r ObjectRef) encode(w *bcsWriter) {
	w.address(r.ObjectID)
	w.u64(r.Version)
	w.bytes(r.Digest[:])
}

// ObjectArgKind はオブジェクト入力の種類です。
type ObjectArgKind uint8

const (
	ObjectImmOrOwned ObjectArgKind = iota
	ObjectShared
)

// ObjectArg は解決済みのオブジェクト入力です。
type ObjectArg struct {
	Kind                 ObjectArgKind
	Ref                  ObjectRef
	InitialSharedVersion uint64
	Mutable              bool
}

// OwnedObject は所有オブジェクトの入力を作成します。
func OwnedObject(ref ObjectRef) ObjectArg {
	return ObjectArg{Kind: ObjectImmOrOwned, Ref: ref}
}

// SharedObject は共有オブジェクトの入力を作成します。
func SharedObject(id ObjectID, initialSharedVersion uint64, mutable bool) ObjectArg {
	return ObjectArg{
		Kind:                 ObjectShared,
		Ref:                  ObjectRef{ObjectID: id},
		InitialSharedVersion: initialSharedVersion,
		Mutable:              mutable,
	}
}

func (o ObjectArg) encode(w *bcsWriter) {
	switch o.Kind {
	case ObjectShared:
		w.uleb128(objectArgShared)
		w.address(o.Ref.ObjectID)
		w.u64(o.InitialSharedVersion)
		w.bool(o.Mutable)
	default:
		w.uleb128(objectArgImmOrOwned)
		o.Ref.encode(w)
	}
}

// CallArg はトランザクションの入力です。Pure か Object のどちらか一方を持ちます。
type CallArg struct {
	Pure   []byte
	Object *ObjectArg
}

func (c CallArg) encode(w *bcsWriter) {
	if c.Object != nil {
		w.uleb128(callArgObject)
		c.Object.encode(w)
		return
	}
	w.uleb128(callArgPure)
	w.bytes(c.Pure)
}

// GasData はガス支払いの設定です。
type GasData struct {
	Payment []ObjectRef
	Owner   Address
	Price   uint64
	Budget  uint64
}

func (g GasData) encode(w *bcsWriter) {
	w.uleb128(uint64(len(g.Payment)))
	for _, p := range g.Payment {
		p.encode(w)
	}
	w.address(g.Owner)
	w.u64(g.Price)
	w.u64(g.Budget)
}

// BCS の enum タグ
const (
	typeTagStruct = 7

	objectArgImmOrOwned = 0
	objectArgShared     = 1

	callArgPure   = 0
	callArgObject = 1

	argGasCoin      = 0
	argInput        = 1
	argResult       = 2
	argNestedResult = 3

	commandMoveCall        = 0
	commandTransferObjects = 1
	commandSplitCoins      = 2

	transactionKindProgrammable = 0
	transactionDataV1           = 0
	transactionExpirationNone   = 0
)

// NormalizeType は型文字列のアドレス部分を短縮形に揃えます。
// RPC は 0x2 と 0x000...02 のどちらの表記も返すため、比較の前に使います。
func NormalizeType(s string) string {
	head, rest, ok := strings.Cut(s, "::")
	if !ok {
		return s
	}
	if strings.ContainsAny(head, "<, ") {
		return s
	}
	a, err := ParseAddress(head)
	if err != nil {
		return s
	}
	return shortAddress(a) + "::" + rest
}

// SameType は2つの型文字列が同じ型を指すかどうかを返します。型引数内のアドレスは正規化しません。
func SameType(a, b string) bool {
	return NormalizeType(a) == NormalizeType(b)
}
