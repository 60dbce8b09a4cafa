package sui

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// ArgumentKind はコマンド引数の参照先の種類です。
type ArgumentKind uint8

const (
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

// Argument は入力またはトランザクション内の先行コマンドの結果への参照です。
type Argument struct {
	Kind     ArgumentKind
	Index    uint16
	SubIndex uint16
}

// GasCoin はガス支払いコインを参照します。
func GasCoin() Argument { return Argument{Kind: ArgGasCoin} }

func (a Argument) encode(w *bcsWriter) {
	switch a.Kind {
	case ArgGasCoin:
		w.uleb128(argGasCoin)
	case ArgInput:
		w.uleb128(argInput)
		w.u16(a.Index)
	case ArgResult:
		w.uleb128(argResult)
		w.u16(a.Index)
	case ArgNestedResult:
		w.uleb128(argNestedResult)
		w.u16(a.Index)
		w.u16(a.SubIndex)
	}
}

// Nested はタプルを返すコマンド結果の i 番目の要素を参照します。
func (a Argument) Nested(i uint16) Argument {
	return Argument{Kind: ArgNestedResult, Index: a.Index, SubIndex: i}
}

// Command は PTB の1コマンドです。
type Command interface {
	encode(w *bcsWriter) error
}

// MoveCall は Move 関数の呼び出しです。
type MoveCall struct {
	Package       Address
	Module        string
	Function      string
	TypeArguments []TypeTag
	Arguments     []Argument
}

// Target は package::module::function 表記を返します。
func (c *MoveCall) Target() string {
	return shortAddress(c.Package) + "::" + c.Module + "::" + c.Function
}

func (c *MoveCall) encode(w *bcsWriter) error {
	w.uleb128(commandMoveCall)
	w.address(c.Package)
	w.string(c.Module)
	w.string(c.Function)
	w.uleb128(uint64(len(c.TypeArguments)))
	for _, t := range c.TypeArguments {
		if err := t.encode(w); err != nil {
			return err
		}
	}
	w.uleb128(uint64(len(c.Arguments)))
	for _, a := range c.Arguments {
		a.encode(w)
	}
	return nil
}

// TransferObjects はオブジェクトを指定アドレスへ送ります。
type TransferObjects struct {
	Objects []Argument
	Address Argument
}

func (c *TransferObjects) encode(w *bcsWriter) error {
	w.uleb128(commandTransferObjects)
	w.uleb128(uint64(len(c.Objects)))
	for _, a := range c.Objects {
		a.encode(w)
	}
	c.Address.encode(w)
	return nil
}

// SplitCoins はコインから指定額を切り出します。
type SplitCoins struct {
	Coin    Argument
	Amounts []Argument
}

func (c *SplitCoins) encode(w *bcsWriter) error {
	w.uleb128(commandSplitCoins)
	c.Coin.encode(w)
	w.uleb128(uint64(len(c.Amounts)))
	for _, a := range c.Amounts {
		a.encode(w)
	}
	return nil
}

// objectInput は実行前に RPC で参照を解決する必要があるオブジェクト入力です。
type objectInput struct {
	id      ObjectID
	mutable bool
}

type input struct {
	pure   []byte
	object *objectInput
}

// TransactionBuilder は Programmable Transaction Block を組み立てます。
// 先行コマンドの結果は Argument として後続のコマンドに渡せます。
type TransactionBuilder struct {
	inputs   []input
	objects  map[ObjectID]int
	commands []Command
	err      error
}

// NewTransactionBuilder は空のビルダーを作成します。
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{objects: make(map[ObjectID]int)}
}

func (b *TransactionBuilder) addInput(in input) Argument {
	b.inputs = append(b.inputs, in)
	return Argument{Kind: ArgInput, Index: uint16(len(b.inputs) - 1)}
}

// Pure は BCS エンコード済みの値を入力に追加します。
func (b *TransactionBuilder) Pure(value []byte) Argument {
	return b.addInput(input{pure: value})
}

// PureString は文字列 (および vector<u8>) を入力に追加します。
func (b *TransactionBuilder) PureString(s string) Argument { return b.Pure(bcsString(s)) }

// PureU64 は u64 を入力に追加します。
func (b *TransactionBuilder) PureU64(v uint64) Argument { return b.Pure(bcsU64(v)) }

// PureAddress はアドレスを入力に追加します。
func (b *TransactionBuilder) PureAddress(a Address) Argument { return b.Pure(bcsAddress(a)) }

// PureOptionID は Option<ID> を入力に追加します。
func (b *TransactionBuilder) PureOptionID(id *ObjectID) Argument { return b.Pure(bcsOptionID(id)) }

// PureU256 は u256 を入力に追加します。範囲外の値は Build 時にエラーになります。
func (b *TransactionBuilder) PureU256(v *big.Int) Argument {
	enc, err := encodeU256(v)
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.Pure(enc)
}

// Object はオンチェーンオブジェクトを入力に追加します。同じ ID は1つの入力にまとめ、
// どこかで可変参照として使われれば可変として扱います。
func (b *TransactionBuilder) Object(id ObjectID, mutable bool) Argument {
	if i, ok := b.objects[id]; ok {
		if mutable {
			b.inputs[i].object.mutable = true
		}
		return Argument{Kind: ArgInput, Index: uint16(i)}
	}
	arg := b.addInput(input{object: &objectInput{id: id, mutable: mutable}})
	b.objects[id] = int(arg.Index)
	return arg
}

// MoveCall は Move 関数の呼び出しを追加し、その結果への参照を返します。
func (b *TransactionBuilder) MoveCall(pkg Address, module, function string, typeArgs []TypeTag, args ...Argument) Argument {
	return b.add(&MoveCall{
		Package:       pkg,
		Module:        module,
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	})
}

// TransferObjects はオブジェクトの送付を追加します。
func (b *TransactionBuilder) TransferObjects(objects []Argument, recipient Argument) {
	b.add(&TransferObjects{Objects: objects, Address: recipient})
}

// SplitCoins はコインの切り出しを追加し、その結果への参照を返します。
func (b *TransactionBuilder) SplitCoins(coin Argument, amounts ...Argument) Argument {
	return b.add(&SplitCoins{Coin: coin, Amounts: amounts})
}

func (b *TransactionBuilder) add(c Command) Argument {
	b.commands = append(b.commands, c)
	return Argument{Kind: ArgResult, Index: uint16(len(b.commands) - 1)}
}

// Commands は追加されたコマンドを順に返します。
func (b *TransactionBuilder) Commands() []Command {
	return append([]Command(nil), b.commands...)
}

// ObjectIDs は参照解決が必要なオブジェクト入力の ID を入力順に返します。
func (b *TransactionBuilder) ObjectIDs() []ObjectID {
	var ids []ObjectID
	for _, in := range b.inputs {
		if in.object != nil {
			ids = append(ids, in.object.id)
		}
	}
	return ids
}

// Mutable は指定オブジェクトが可変参照として使われるかどうかを返します。
func (b *TransactionBuilder) Mutable(id ObjectID) bool {
	i, ok := b.objects[id]
	return ok && b.inputs[i].object.mutable
}

// ErrUnresolvedObject はオブジェクト入力の参照が解決されていないことを表します。
var ErrUnresolvedObject = errors.New("sui: オブジェクト入力が解決されていません")

// Build は解決済みのオブジェクト参照とガス設定から TransactionData を作成します。
func (b *TransactionBuilder) Build(sender Address, gas GasData, resolved map[ObjectID]ObjectArg) (*TransactionData, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.commands) == 0 {
		return nil, fmt.Errorf("コマンドが空のトランザクションは作成できません")
	}

	args := make([]CallArg, len(b.inputs))
	for i, in := range b.inputs {
		if in.object == nil {
			args[i] = CallArg{Pure: in.pure}
			continue
		}
		obj, ok := resolved[in.object.id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedObject, in.object.id)
		}
		if obj.Kind == ObjectShared {
			obj.Mutable = in.object.mutable
		}
		args[i] = CallArg{Object: &obj}
	}

	return &TransactionData{
		Inputs:   args,
		Commands: b.Commands(),
		Sender:   sender,
		Gas:      gas,
	}, nil
}

// TransactionData は署名対象のトランザクション (V1, 期限なし) です。
type TransactionData struct {
	Inputs   []CallArg
	Commands []Command
	Sender   Address
	Gas      GasData
}

// Bytes は TransactionData を BCS でエンコードします。
func (t *TransactionData) Bytes() ([]byte, error) {
	var w bcsWriter
	w.uleb128(transactionDataV1)
	w.uleb128(transactionKindProgrammable)
	w.uleb128(uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		in.encode(&w)
	}
	w.uleb128(uint64(len(t.Commands)))
	for _, c := range t.Commands {
		if err := c.encode(&w); err != nil {
			return nil, err
		}
	}
	w.address(t.Sender)
	t.Gas.encode(&w)
	w.uleb128(transactionExpirationNone)
	return w.Bytes(), nil
}

// TransactionDigest はエンコード済みトランザクションのダイジェストを返します。
func TransactionDigest(txBytes []byte) Digest {
	h, _ := blake2b.New256(nil)
	h.Write([]byte("TransactionData::"))
	h.Write(txBytes)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
