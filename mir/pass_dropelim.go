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
	"github.com/oleiade/lane"
)

// DropElim replaces release operations proven to have no observable effect
// with plain gotos. The proof walks the CFG backwards from each drop: a
// branch is satisfied when the dropped value was last touched by a
// non-owning read, and the whole search aborts when any scanned path
// redefines the value.
type DropElim struct{}

// _DropScan is the verdict of inspecting one block during the backward
// search.
type _DropScan uint8

const (
	// keep searching: push this block's predecessors
	_ScanContinue _DropScan = iota

	// this branch is settled, do not push predecessors
	_ScanSatisfied

	// the elision is unsound, discard the tentative replacement
	_ScanAbort
)

func (self DropElim) Apply(mir *Body) bool {
	ever := false

	/* one elision can expose another drop of the same value along a
	 * different edge, so rescan until a full pass replaces nothing */
	for {
		changed := false
		pm := BuildPredecessorMap(mir)

		for bi := range mir.Blocks {
			dp, ok := mir.Blocks[bi].Term.(*Drop)
			if !ok {
				continue
			}
			if self.elidable(mir, pm, BlockID(bi), dp.Place) {
				mir.Blocks[bi].Term = &Goto{Target: dp.Target}
				changed = true
			}
		}

		if !changed {
			break
		}
		ever = true
	}
	return ever
}

func (self DropElim) elidable(mir *Body, pm *PredecessorMap, cur BlockID, droppee Place) bool {
	worklist := lane.NewStack()
	seen := make(map[BlockID]struct{})
	worklist.Push(cur)

	for !worklist.Empty() {
		bb := worklist.Pop().(BlockID)
		if _, ok := seen[bb]; ok {
			continue
		}
		seen[bb] = struct{}{}

		switch self.inspect(mir, bb, cur, droppee) {
		case _ScanAbort:
			return false
		case _ScanSatisfied:
			continue
		}

		/* reaching the function start with no verdict settles the branch
		 * naturally: there is nothing further back to redefine the value */
		for _, p := range pm.Predecessors(bb) {
			worklist.Push(p)
		}
	}
	return true
}

func (self DropElim) inspect(mir *Body, bb BlockID, cur BlockID, droppee Place) _DropScan {
	blk := &mir.Blocks[bb]

	switch t := blk.Term.(type) {
	case *Goto, *If, *Switch, *Return, *Resume, *Unreachable:
		// plain control transfer, fall through to the statement scan

	case *Drop:
		/* a prior drop of the same value is itself an elision candidate;
		 * treat this branch as a settled dead end */
		if t.Place.Equal(droppee) && bb != cur {
			return _ScanSatisfied
		}

	case *Call:
		/* the callee (re)defines the value here: a stale value from
		 * further back can never reach the pending drop */
		if d := t.Destination(); d != nil && d.Place.Equal(droppee) {
			return _ScanAbort
		}

		/* the value escapes into the callee */
		for i := range t.Args {
			if t.Args[i].Reads(droppee) {
				return _ScanSatisfied
			}
		}
	}

	for i := len(blk.Stmts) - 1; i >= 0; i-- {
		st, ok := blk.Stmts[i].(*Assign)
		if !ok {
			continue
		}
		if st.Place.Equal(droppee) {
			return _ScanAbort
		}
		if verdict := self.inspectRvalue(st.Rvalue, droppee); verdict != _ScanContinue {
			return verdict
		}
	}
	return _ScanContinue
}

func (self DropElim) inspectRvalue(rv Rvalue, droppee Place) _DropScan {
	reads := func(ops ...Operand) bool {
		for _, op := range ops {
			if op.Reads(droppee) {
				return true
			}
		}
		return false
	}

	switch p := rv.(type) {
	case *Ref:
		if p.Place.Equal(droppee) {
			return _ScanSatisfied
		}
	case *Len:
		if p.Place.Equal(droppee) {
			return _ScanSatisfied
		}
	case *Discriminant:
		if p.Place.Equal(droppee) {
			return _ScanSatisfied
		}
	case *Use:
		if reads(p.X) {
			return _ScanSatisfied
		}
	case *Cast:
		if reads(p.X) {
			return _ScanSatisfied
		}
	case *UnaryOp:
		if reads(p.X) {
			return _ScanSatisfied
		}
	case *BinaryOp:
		if reads(p.X, p.Y) {
			return _ScanSatisfied
		}
	case *Aggregate:
		if reads(p.Fields...) {
			return _ScanSatisfied
		}
	case *InlineAsm:
		for i := range p.Outputs {
			if p.Outputs[i].Equal(droppee) {
				return _ScanAbort
			}
		}
		if reads(p.Inputs...) {
			return _ScanSatisfied
		}
	}
	return _ScanContinue
}
