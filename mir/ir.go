/*
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mir

import (
	"fmt"
	"strings"
)

// Local identifies a storage slot within a function body by a dense index
// into the body's declaration table.
type Local int

func (self Local) String() string {
	return fmt.Sprintf("%%%d", int(self))
}

// LocalKind classifies a storage slot. Arguments are pre-initialized by the
// caller, which affects pass eligibility rules.
type LocalKind uint8

const (
	KindArgument LocalKind = iota
	KindTemporary
	KindReturnSlot
	KindUserVariable
)

func (self LocalKind) String() string {
	switch self {
	case KindArgument:
		return "arg"
	case KindTemporary:
		return "tmp"
	case KindReturnSlot:
		return "ret"
	case KindUserVariable:
		return "var"
	default:
		panic("mir: invalid local kind")
	}
}

// LocalDecl declares one storage slot. Name is only set for user variables.
type LocalDecl struct {
	Kind LocalKind
	Name string
}

func (self LocalDecl) String() string {
	if self.Name == "" {
		return self.Kind.String()
	} else {
		return fmt.Sprintf("%s(%s)", self.Kind, self.Name)
	}
}

type ProjectionKind uint8

const (
	ProjDeref ProjectionKind = iota
	ProjField
	ProjIndex
)

// Projection is one step of a place's access path.
type Projection struct {
	Kind  ProjectionKind
	Field int
	Index Local
}

func (self Projection) equal(other Projection) bool {
	switch self.Kind {
	case ProjDeref:
		return other.Kind == ProjDeref
	case ProjField:
		return other.Kind == ProjField && self.Field == other.Field
	case ProjIndex:
		return other.Kind == ProjIndex && self.Index == other.Index
	default:
		panic("mir: invalid projection kind")
	}
}

// Place is a symbolic reference to a storage location: a base local plus a
// chain of zero or more projections.
type Place struct {
	Base Local
	Proj []Projection
}

// PlaceOf constructs a bare-local place.
func PlaceOf(l Local) Place {
	return Place{Base: l}
}

// IsLocal reports whether the place is a bare local with no projections.
func (self Place) IsLocal() bool {
	return len(self.Proj) == 0
}

// Equal performs deep place equality.
func (self Place) Equal(other Place) bool {
	if self.Base != other.Base || len(self.Proj) != len(other.Proj) {
		return false
	}
	for i, p := range self.Proj {
		if !p.equal(other.Proj[i]) {
			return false
		}
	}
	return true
}

func (self Place) String() string {
	ret := self.Base.String()
	for _, p := range self.Proj {
		switch p.Kind {
		case ProjDeref:
			ret = "(*" + ret + ")"
		case ProjField:
			ret = fmt.Sprintf("%s.f%d", ret, p.Field)
		case ProjIndex:
			ret = fmt.Sprintf("%s[%s]", ret, p.Index)
		}
	}
	return ret
}

// Const is a literal value. Bool-flavored constants print differently but
// share the integer storage.
type Const struct {
	Bool bool
	V    int64
}

func IntConst(v int64) Const {
	return Const{V: v}
}

func BoolConst(v bool) Const {
	if v {
		return Const{Bool: true, V: 1}
	}
	return Const{Bool: true, V: 0}
}

func (self Const) String() string {
	if self.Bool {
		if self.V != 0 {
			return "const true"
		}
		return "const false"
	}
	return fmt.Sprintf("const %d", self.V)
}

// OperandKind distinguishes the three value producers: a copying read, a
// moving read (the source is treated as invalidated thereafter), and a
// literal constant.
type OperandKind uint8

const (
	OpCopy OperandKind = iota
	OpMove
	OpConst
)

// Operand is a value producer used as an input to an instruction.
type Operand struct {
	Kind  OperandKind
	Place Place
	Const Const
}

func Copy(p Place) Operand {
	return Operand{Kind: OpCopy, Place: p}
}

func Move(p Place) Operand {
	return Operand{Kind: OpMove, Place: p}
}

func ConstOperand(c Const) Operand {
	return Operand{Kind: OpConst, Const: c}
}

// Reads reports whether the operand is a copying or moving read of exactly
// the given place.
func (self Operand) Reads(p Place) bool {
	return self.Kind != OpConst && self.Place.Equal(p)
}

func (self Operand) String() string {
	switch self.Kind {
	case OpCopy:
		return "copy " + self.Place.String()
	case OpMove:
		return "move " + self.Place.String()
	case OpConst:
		return self.Const.String()
	default:
		panic("mir: invalid operand kind")
	}
}

type (
	UnOp  uint8
	BinOp uint8
)

const (
	UnOpNeg UnOp = iota
	UnOpNot
)

const (
	BinOpAdd BinOp = iota
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpEq
	BinOpNe
	BinOpLt
	BinOpLe
)

func (self UnOp) String() string {
	switch self {
	case UnOpNeg:
		return "-"
	case UnOpNot:
		return "!"
	default:
		panic("mir: invalid unary op")
	}
}

func (self BinOp) String() string {
	switch self {
	case BinOpAdd:
		return "+"
	case BinOpSub:
		return "-"
	case BinOpMul:
		return "*"
	case BinOpDiv:
		return "/"
	case BinOpEq:
		return "=="
	case BinOpNe:
		return "!="
	case BinOpLt:
		return "<"
	case BinOpLe:
		return "<="
	default:
		panic("mir: invalid binary op")
	}
}

// Rvalue is the right-hand-side expression of an assignment.
type Rvalue interface {
	fmt.Stringer
	rvalue()
}

func (*Use) rvalue()          {}
func (*Ref) rvalue()          {}
func (*Len) rvalue()          {}
func (*Cast) rvalue()         {}
func (*UnaryOp) rvalue()      {}
func (*BinaryOp) rvalue()     {}
func (*Discriminant) rvalue() {}
func (*Aggregate) rvalue()    {}
func (*InlineAsm) rvalue()    {}

// Use produces the value of a single operand unchanged.
type Use struct {
	X Operand
}

func (self *Use) String() string {
	return self.X.String()
}

// Ref takes the address of a place.
type Ref struct {
	Place Place
}

func (self *Ref) String() string {
	return "&" + self.Place.String()
}

// Len reads the length of an indexable place.
type Len struct {
	Place Place
}

func (self *Len) String() string {
	return fmt.Sprintf("len(%s)", self.Place)
}

type Cast struct {
	X Operand
}

func (self *Cast) String() string {
	return fmt.Sprintf("%s as _", self.X)
}

type UnaryOp struct {
	Op UnOp
	X  Operand
}

func (self *UnaryOp) String() string {
	return fmt.Sprintf("%s%s", self.Op, self.X)
}

type BinaryOp struct {
	Op BinOp
	X  Operand
	Y  Operand
}

func (self *BinaryOp) String() string {
	return fmt.Sprintf("%s %s %s", self.X, self.Op, self.Y)
}

// Discriminant reads the variant tag of an enum-like place.
type Discriminant struct {
	Place Place
}

func (self *Discriminant) String() string {
	return fmt.Sprintf("discriminant(%s)", self.Place)
}

// Aggregate packs several operands into a composite value.
type Aggregate struct {
	Fields []Operand
}

func (self *Aggregate) String() string {
	nb := len(self.Fields)
	ret := make([]string, 0, nb)
	for _, v := range self.Fields {
		ret = append(ret, v.String())
	}
	return fmt.Sprintf("{%s}", strings.Join(ret, ", "))
}

// InlineAsm clobbers its output places and reads its input operands.
type InlineAsm struct {
	Asm     string
	Inputs  []Operand
	Outputs []Place
}

func (self *InlineAsm) String() string {
	in := make([]string, 0, len(self.Inputs))
	out := make([]string, 0, len(self.Outputs))
	for _, v := range self.Inputs {
		in = append(in, v.String())
	}
	for _, v := range self.Outputs {
		out = append(out, v.String())
	}
	return fmt.Sprintf("asm(%q, in: {%s}, out: {%s})", self.Asm, strings.Join(in, ", "), strings.Join(out, ", "))
}

// operands returns pointers to every operand slot of an rvalue, so that
// rewriting visitors can edit them in place.
func (self *Use) operands() []*Operand       { return []*Operand{&self.X} }
func (*Ref) operands() []*Operand            { return nil }
func (*Len) operands() []*Operand            { return nil }
func (self *Cast) operands() []*Operand      { return []*Operand{&self.X} }
func (self *UnaryOp) operands() []*Operand   { return []*Operand{&self.X} }
func (self *BinaryOp) operands() []*Operand  { return []*Operand{&self.X, &self.Y} }
func (*Discriminant) operands() []*Operand   { return nil }
func (self *Aggregate) operands() []*Operand { return operandsliceref(self.Fields) }
func (self *InlineAsm) operands() []*Operand { return operandsliceref(self.Inputs) }

// RvalueOperands exposes the operand slots of rv.
func RvalueOperands(rv Rvalue) []*Operand {
	type withOperands interface {
		operands() []*Operand
	}
	return rv.(withOperands).operands()
}

// Statement is one effectful unit inside a basic block.
type Statement interface {
	fmt.Stringer
	stmt()
}

func (*Assign) stmt()      {}
func (*StorageLive) stmt() {}
func (*StorageDead) stmt() {}
func (*Nop) stmt()         {}

// Assign stores the value of Rvalue into Place.
type Assign struct {
	Place  Place
	Rvalue Rvalue
}

func (self *Assign) String() string {
	return fmt.Sprintf("%s = %s", self.Place, self.Rvalue)
}

// StorageLive opens the lifetime bracket of a slot. It has no data effect.
type StorageLive struct {
	Local Local
}

func (self *StorageLive) String() string {
	return fmt.Sprintf("storage_live(%s)", self.Local)
}

// StorageDead closes the lifetime bracket of a slot. It has no data effect.
type StorageDead struct {
	Local Local
}

func (self *StorageDead) String() string {
	return fmt.Sprintf("storage_dead(%s)", self.Local)
}

// Nop is a statement that was elided in place. Block shape is preserved so
// that recorded locations stay valid.
type Nop struct{}

func (*Nop) String() string {
	return "nop"
}

func operandsliceref(v []Operand) (r []*Operand) {
	r = make([]*Operand, len(v))
	for i := range v {
		r[i] = &v[i]
	}
	return
}
