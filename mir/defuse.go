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

// Context classifies how a program point touches a local.
type Context uint8

const (
	CtxMutatingDef Context = iota
	CtxNonMutatingUse
	CtxStorageLive
	CtxStorageDead
	CtxDrop
)

func (self Context) String() string {
	switch self {
	case CtxMutatingDef:
		return "def"
	case CtxNonMutatingUse:
		return "use"
	case CtxStorageLive:
		return "storage-live"
	case CtxStorageDead:
		return "storage-dead"
	case CtxDrop:
		return "drop"
	default:
		panic("mir: invalid context")
	}
}

// IsDef reports whether the context writes the local. Drop occurrences count
// as defs here, mirroring the release operation taking the value.
func (self Context) IsDef() bool {
	return self == CtxMutatingDef || self == CtxDrop
}

// IsStorageMarker reports a lifetime bracket occurrence.
func (self Context) IsStorageMarker() bool {
	return self == CtxStorageLive || self == CtxStorageDead
}

// Occurrence is one recorded def or use of a local.
type Occurrence struct {
	Context  Context
	Location Location
}

type placeVisitor func(p *Place, ctx Context)

func forEachOperandPlace(op *Operand, ctx Context, fn placeVisitor) {
	if op.Kind != OpConst {
		fn(&op.Place, ctx)
	}
}

func forEachRvaluePlace(rv Rvalue, fn placeVisitor) {
	switch p := rv.(type) {
	case *Use:
		forEachOperandPlace(&p.X, CtxNonMutatingUse, fn)
	case *Ref:
		fn(&p.Place, CtxNonMutatingUse)
	case *Len:
		fn(&p.Place, CtxNonMutatingUse)
	case *Cast:
		forEachOperandPlace(&p.X, CtxNonMutatingUse, fn)
	case *UnaryOp:
		forEachOperandPlace(&p.X, CtxNonMutatingUse, fn)
	case *BinaryOp:
		forEachOperandPlace(&p.X, CtxNonMutatingUse, fn)
		forEachOperandPlace(&p.Y, CtxNonMutatingUse, fn)
	case *Discriminant:
		fn(&p.Place, CtxNonMutatingUse)
	case *Aggregate:
		for i := range p.Fields {
			forEachOperandPlace(&p.Fields[i], CtxNonMutatingUse, fn)
		}
	case *InlineAsm:
		for i := range p.Inputs {
			forEachOperandPlace(&p.Inputs[i], CtxNonMutatingUse, fn)
		}
		for i := range p.Outputs {
			fn(&p.Outputs[i], CtxMutatingDef)
		}
	default:
		panic("mir: invalid rvalue")
	}
}

func forEachStmtPlace(st Statement, fn placeVisitor) {
	switch p := st.(type) {
	case *Assign:
		fn(&p.Place, CtxMutatingDef)
		forEachRvaluePlace(p.Rvalue, fn)
	case *StorageLive, *StorageDead, *Nop:
		// storage markers reference a local, not a place
	default:
		panic("mir: invalid statement")
	}
}

func forEachTermPlace(t Terminator, fn placeVisitor) {
	switch p := t.(type) {
	case *Goto, *Return, *Resume, *Unreachable:
		// no places
	case *If:
		forEachOperandPlace(&p.Cond, CtxNonMutatingUse, fn)
	case *Switch:
		forEachOperandPlace(&p.Discr, CtxNonMutatingUse, fn)
	case *Call:
		forEachOperandPlace(&p.Func, CtxNonMutatingUse, fn)
		for i := range p.Args {
			forEachOperandPlace(&p.Args[i], CtxNonMutatingUse, fn)
		}
		if d := p.Destination(); d != nil {
			fn(&d.Place, CtxMutatingDef)
		}
	case *Drop:
		fn(&p.Place, CtxDrop)
	default:
		panic("mir: invalid terminator")
	}
}

func forEachLocationPlace(mir *Body, loc Location, fn placeVisitor) {
	if loc.IsTerminator() {
		forEachTermPlace(mir.Blocks[loc.Block].Term, fn)
	} else {
		forEachStmtPlace(mir.Blocks[loc.Block].Stmts[loc.Index], fn)
	}
}

func forEachTermOperand(t Terminator, fn func(op *Operand)) {
	switch p := t.(type) {
	case *Goto, *Return, *Resume, *Unreachable, *Drop:
		// no operands
	case *If:
		fn(&p.Cond)
	case *Switch:
		fn(&p.Discr)
	case *Call:
		fn(&p.Func)
		for i := range p.Args {
			fn(&p.Args[i])
		}
	default:
		panic("mir: invalid terminator")
	}
}

func forEachLocationOperand(mir *Body, loc Location, fn func(op *Operand)) {
	if loc.IsTerminator() {
		forEachTermOperand(mir.Blocks[loc.Block].Term, fn)
		return
	}
	if st, ok := mir.Blocks[loc.Block].Stmts[loc.Index].(*Assign); ok {
		for _, op := range RvalueOperands(st.Rvalue) {
			fn(op)
		}
	}
}

// DefUseAnalysis records, per local, every program point that defines or
// uses it. The recorded lists describe the body as of the last Analyze call:
// ReplaceAllOccurrences appends entries for the replacement local but leaves
// the replaced local's list stale, so callers must re-run Analyze before
// trusting any count after an IR edit.
type DefUseAnalysis struct {
	info [][]Occurrence
}

// NewDefUseAnalysis creates an empty analysis sized for mir. Call Analyze to
// populate it.
func NewDefUseAnalysis(mir *Body) *DefUseAnalysis {
	return &DefUseAnalysis{
		info: make([][]Occurrence, len(mir.Locals)),
	}
}

// Analyze rebuilds all occurrence lists with one full traversal of every
// statement and terminator.
func (self *DefUseAnalysis) Analyze(mir *Body) {
	if len(self.info) != len(mir.Locals) {
		self.info = make([][]Occurrence, len(mir.Locals))
	}
	for i := range self.info {
		self.info[i] = self.info[i][:0]
	}
	for bi := range mir.Blocks {
		bb := &mir.Blocks[bi]
		for si := range bb.Stmts {
			loc := locationOf(BlockID(bi), si)
			switch st := bb.Stmts[si].(type) {
			case *StorageLive:
				self.record(st.Local, CtxStorageLive, loc)
			case *StorageDead:
				self.record(st.Local, CtxStorageDead, loc)
			default:
				forEachStmtPlace(bb.Stmts[si], func(p *Place, ctx Context) {
					self.recordPlace(p, ctx, loc)
				})
			}
		}
		loc := terminatorLocation(BlockID(bi))
		forEachTermPlace(bb.Term, func(p *Place, ctx Context) {
			self.recordPlace(p, ctx, loc)
		})
	}
}

func (self *DefUseAnalysis) record(l Local, ctx Context, loc Location) {
	self.info[l] = append(self.info[l], Occurrence{Context: ctx, Location: loc})
}

func (self *DefUseAnalysis) recordPlace(p *Place, ctx Context, loc Location) {
	self.record(p.Base, ctx, loc)
	for _, pr := range p.Proj {
		if pr.Kind == ProjIndex {
			self.record(pr.Index, CtxNonMutatingUse, loc)
		}
	}
}

// Occurrences returns the recorded occurrence list of a local, in traversal
// insertion order.
func (self *DefUseAnalysis) Occurrences(l Local) []Occurrence {
	return self.info[l]
}

// DefCount counts every mutating occurrence, drop occurrences included.
func (self *DefUseAnalysis) DefCount(l Local) int {
	n := 0
	for _, oc := range self.info[l] {
		if oc.Context.IsDef() {
			n++
		}
	}
	return n
}

// DefCountExcludingDrop counts mutating occurrences that are not drops.
func (self *DefUseAnalysis) DefCountExcludingDrop(l Local) int {
	n := 0
	for _, oc := range self.info[l] {
		if oc.Context == CtxMutatingDef {
			n++
		}
	}
	return n
}

// UseCount counts non-mutating uses only. Storage markers and drops are
// excluded.
func (self *DefUseAnalysis) UseCount(l Local) int {
	n := 0
	for _, oc := range self.info[l] {
		if oc.Context == CtxNonMutatingUse {
			n++
		}
	}
	return n
}

// FirstDefExcludingDrop returns the location of the first recorded non-drop
// def of a local.
func (self *DefUseAnalysis) FirstDefExcludingDrop(l Local) (Location, bool) {
	for _, oc := range self.info[l] {
		if oc.Context == CtxMutatingDef {
			return oc.Location, true
		}
	}
	return Location{}, false
}

// ReplaceAllOccurrences rewrites, in place, every recorded occurrence of l
// to reference the place with instead, and appends the new occurrences to
// with's base local. The list for l itself is intentionally left stale:
// after any replacement the analysis as a whole is untrusted until the next
// Analyze call.
func (self *DefUseAnalysis) ReplaceAllOccurrences(l Local, with Place, mir *Body) {
	for _, oc := range append([]Occurrence(nil), self.info[l]...) {
		if oc.Context.IsStorageMarker() {
			self.replaceMarker(l, with, mir, oc)
			continue
		}
		loc := oc.Location
		forEachLocationPlace(mir, loc, func(p *Place, ctx Context) {
			if p.Base == l {
				p.Proj = append(append([]Projection(nil), with.Proj...), p.Proj...)
				p.Base = with.Base
				self.record(with.Base, ctx, loc)
			}
			for i := range p.Proj {
				if p.Proj[i].Kind == ProjIndex && p.Proj[i].Index == l && with.IsLocal() {
					p.Proj[i].Index = with.Base
					self.record(with.Base, CtxNonMutatingUse, loc)
				}
			}
		})
	}
}

func (self *DefUseAnalysis) replaceMarker(l Local, with Place, mir *Body, oc Occurrence) {
	if !with.IsLocal() {
		return
	}
	switch st := mir.Blocks[oc.Location.Block].Stmts[oc.Location.Index].(type) {
	case *StorageLive:
		if st.Local == l {
			st.Local = with.Base
			self.record(with.Base, CtxStorageLive, oc.Location)
		}
	case *StorageDead:
		if st.Local == l {
			st.Local = with.Base
			self.record(with.Base, CtxStorageDead, oc.Location)
		}
	}
}
