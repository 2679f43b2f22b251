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

// CopyProp removes locals that have exactly one def and one consuming
// assignment of the form
//
//	dest = copy src / move src / const c
//
// forwarding src (or the constant) to every consumer of dest. The counts
// from the def-use analysis stand in for a full dataflow proof: a single
// non-drop def of dest and a single use of src leave no room for an
// intervening mutation.
type CopyProp struct{}

type _CopyAction struct {
	src      Local
	constant Const
	isConst  bool
}

func (self CopyProp) Apply(mir *Body) bool {
	ever := false
	analysis := NewDefUseAnalysis(mir)

	for {
		changed := false
		analysis.Analyze(mir)

		/* scan all locals in index order, at most one rewrite per
		 * destination per iteration; the snapshot above is stale for any
		 * local already rewritten this round */
		for dest := Local(0); int(dest) < len(mir.Locals); dest++ {
			action, loc, ok := self.candidate(mir, analysis, dest)
			if !ok {
				continue
			}
			if action.isConst {
				changed = self.propagateConst(mir, analysis, dest, action.constant, loc) || changed
			} else {
				changed = self.propagateLocal(mir, analysis, dest, action.src, loc) || changed
			}
		}

		/* fixed point: a full scan with no rewrite */
		if !changed {
			break
		}
		ever = true
	}
	return ever
}

func (self CopyProp) candidate(mir *Body, analysis *DefUseAnalysis, dest Local) (_CopyAction, Location, bool) {
	var none _CopyAction

	/* the destination must have exactly one non-drop def, be consumed
	 * somewhere, and must not be an argument: argument slots may be read
	 * before any visible def */
	if analysis.DefCountExcludingDrop(dest) != 1 {
		return none, Location{}, false
	}
	if analysis.UseCount(dest) == 0 {
		return none, Location{}, false
	}
	if mir.Kind(dest) == KindArgument {
		return none, Location{}, false
	}

	/* the qualifying def must be a plain statement, not a terminator */
	loc, ok := analysis.FirstDefExcludingDrop(dest)
	if !ok || loc.IsTerminator() {
		return none, Location{}, false
	}

	/* of the shape `dest = use(operand)` with a bare dest */
	st, ok := mir.StmtAt(loc).(*Assign)
	if !ok || !st.Place.IsLocal() || st.Place.Base != dest {
		return none, Location{}, false
	}
	use, ok := st.Rvalue.(*Use)
	if !ok {
		return none, Location{}, false
	}

	switch use.X.Kind {
	case OpCopy, OpMove:
		src, ok := self.localCopySource(mir, analysis, use.X.Place)
		if !ok {
			return none, Location{}, false
		}
		return _CopyAction{src: src}, loc, true
	case OpConst:
		return _CopyAction{constant: use.X.Const, isConst: true}, loc, true
	default:
		return none, Location{}, false
	}
}

func (self CopyProp) localCopySource(mir *Body, analysis *DefUseAnalysis, srcPlace Place) (Local, bool) {
	/* projected places are opaque as propagation sources */
	if !srcPlace.IsLocal() {
		return 0, false
	}
	src := srcPlace.Base

	/* exactly one use of src: reassigning it mid-lifetime would otherwise
	 * change what the forwarded consumers observe */
	if analysis.UseCount(src) != 1 {
		return 0, false
	}

	/* one non-drop def, or zero for arguments (pre-initialized by the
	 * caller, forwardable without an explicit def) */
	defs := analysis.DefCountExcludingDrop(src)
	if mir.Kind(src) == KindArgument {
		if defs != 0 {
			return 0, false
		}
	} else if defs != 1 {
		return 0, false
	}
	return src, true
}

func (self CopyProp) propagateLocal(mir *Body, analysis *DefUseAnalysis, dest Local, src Local, loc Location) bool {
	/* nop out the lifetime brackets of both slots, so eliminating the
	 * assignment leaves no dangling markers */
	for _, oc := range analysis.Occurrences(dest) {
		if oc.Context.IsStorageMarker() {
			mir.MakeNop(oc.Location)
		}
	}
	for _, oc := range analysis.Occurrences(src) {
		if oc.Context.IsStorageMarker() {
			mir.MakeNop(oc.Location)
		}
	}

	/* forward src into every consumer of dest, then elide the assignment */
	analysis.ReplaceAllOccurrences(dest, PlaceOf(src), mir)
	mir.MakeNop(loc)
	return true
}

func (self CopyProp) propagateConst(mir *Body, analysis *DefUseAnalysis, dest Local, c Const, loc Location) bool {
	for _, oc := range analysis.Occurrences(dest) {
		if oc.Context.IsStorageMarker() {
			mir.MakeNop(oc.Location)
		}
	}

	/* substitute the literal for every copy/move of the bare dest; uses
	 * inside projections keep the place form and are left alone */
	replaced := 0
	for _, oc := range analysis.Occurrences(dest) {
		forEachLocationOperand(mir, oc.Location, func(op *Operand) {
			if op.Kind != OpConst && op.Place.IsLocal() && op.Place.Base == dest {
				*op = ConstOperand(c)
				replaced++
			}
		})
	}

	/* the assignment dies only if every use was rewritten; a projection
	 * consumer (e.g. an address-taken dest) still needs the place form */
	switch uses := analysis.UseCount(dest); {
	case replaced == uses:
		mir.MakeNop(loc)
		return true
	case replaced == 0:
		return false
	default:
		return true
	}
}
