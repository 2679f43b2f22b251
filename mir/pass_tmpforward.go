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

// TmpForward inlines a temporary's defining expression into its sole
// consumer. A temporary qualifies when it has exactly two occurrences (the
// definition plus the one consuming use) and the consumer immediately
// follows the definition; statement compaction makes new pairs adjacent, so
// each block iterates until nothing more forwards. Surviving locals are
// renumbered to a dense range afterwards.
type TmpForward struct{}

type _Forwarding struct {
	tmp Local
	rv  Rvalue
}

func (self TmpForward) Apply(mir *Body) bool {
	/* Phase 1: count occurrences of every temporary; being the value of a
	 * drop does not count, and neither do lifetime brackets */
	uses := self.countUses(mir)

	/* Phase 2: forward defining expressions block by block */
	dead := make(map[Local]struct{})
	for bi := range mir.Blocks {
		self.promote(mir, &mir.Blocks[bi], uses, dead)
	}
	if len(dead) == 0 {
		return false
	}

	/* eliminated slots leave no dangling brackets or drops behind */
	self.nopDeadMarkers(mir, dead)
	self.rewriteDeadDrops(mir, dead)

	/* Phase 3: renumber the surviving slots to a dense range */
	self.compact(mir, dead)
	return true
}

func (self TmpForward) countUses(mir *Body) []int {
	uses := make([]int, len(mir.Locals))
	count := func(p *Place, _ Context) {
		if mir.Kind(p.Base) == KindTemporary {
			uses[p.Base]++
		}
		for _, pr := range p.Proj {
			if pr.Kind == ProjIndex && mir.Kind(pr.Index) == KindTemporary {
				uses[pr.Index]++
			}
		}
	}
	for bi := range mir.Blocks {
		bb := &mir.Blocks[bi]
		for _, st := range bb.Stmts {
			forEachStmtPlace(st, count)
		}
		if dp, ok := bb.Term.(*Drop); ok {
			/* the dropped value itself does not count, but a temporary
			 * indexing into the dropped place is still a live reference */
			for _, pr := range dp.Place.Proj {
				if pr.Kind == ProjIndex && mir.Kind(pr.Index) == KindTemporary {
					uses[pr.Index]++
				}
			}
			continue
		}
		forEachTermPlace(bb.Term, count)
	}
	return uses
}

func (self TmpForward) promote(mir *Body, bb *BasicBlock, uses []int, dead map[Local]struct{}) {
	for {
		dropped := 0
		var rep *_Forwarding

		for i := 0; i < len(bb.Stmts); i++ {
			/* a pending forwarding from the previous statement applies only
			 * to the one that immediately follows it */
			if rep != nil {
				if st, ok := bb.Stmts[i].(*Assign); ok {
					if use, ok := rep.rv.(*Use); ok {
						for _, op := range RvalueOperands(st.Rvalue) {
							if self.consumesTemp(op, rep.tmp) {
								*op = use.X
								dropped++
								dead[rep.tmp] = struct{}{}
								break
							}
						}
					} else if use, ok := st.Rvalue.(*Use); ok && self.consumesTemp(&use.X, rep.tmp) {
						st.Rvalue = rep.rv
						dropped++
						dead[rep.tmp] = struct{}{}
					}
				}
			}

			/* the statement just handled may itself define the next
			 * forwardable temporary */
			rep = nil
			if st, ok := bb.Stmts[i].(*Assign); ok && st.Place.IsLocal() && mir.Kind(st.Place.Base) == KindTemporary && uses[st.Place.Base] == 2 {
				if _, gone := dead[st.Place.Base]; !gone {
					rep = &_Forwarding{tmp: st.Place.Base, rv: st.Rvalue}
				}
			}

			/* compact consumed definitions towards the tail, keeping the
			 * relative order of everything else */
			if dropped > 0 {
				bb.Stmts[i], bb.Stmts[i-dropped] = bb.Stmts[i-dropped], bb.Stmts[i]
			}
		}

		/* a definition at the end of the block may forward into the
		 * terminator's value operand */
		if rep != nil {
			if use, ok := rep.rv.(*Use); ok {
				switch t := bb.Term.(type) {
				case *If:
					if self.consumesTemp(&t.Cond, rep.tmp) {
						t.Cond = use.X
						dropped++
						dead[rep.tmp] = struct{}{}
					}
				case *Call:
					if self.consumesTemp(&t.Func, rep.tmp) {
						t.Func = use.X
						dropped++
						dead[rep.tmp] = struct{}{}
					}
				}
			}
		}

		bb.Stmts = bb.Stmts[:len(bb.Stmts)-dropped]
		if dropped == 0 {
			break
		}
	}
}

func (self TmpForward) consumesTemp(op *Operand, tmp Local) bool {
	return op.Kind != OpConst && op.Place.IsLocal() && op.Place.Base == tmp
}

func (self TmpForward) nopDeadMarkers(mir *Body, dead map[Local]struct{}) {
	for bi := range mir.Blocks {
		bb := &mir.Blocks[bi]
		for si, st := range bb.Stmts {
			var l Local
			switch p := st.(type) {
			case *StorageLive:
				l = p.Local
			case *StorageDead:
				l = p.Local
			default:
				continue
			}
			if _, gone := dead[l]; gone {
				bb.Stmts[si] = new(Nop)
			}
		}
	}
}

func (self TmpForward) rewriteDeadDrops(mir *Body, dead map[Local]struct{}) {
	for bi := range mir.Blocks {
		dp, ok := mir.Blocks[bi].Term.(*Drop)
		if !ok || !dp.Place.IsLocal() {
			continue
		}
		if _, gone := dead[dp.Place.Base]; gone {
			mir.Blocks[bi].Term = &Goto{Target: dp.Target}
		}
	}
}

func (self TmpForward) compact(mir *Body, dead map[Local]struct{}) {
	/* build the index remapping in one pass */
	remap := make([]Local, len(mir.Locals))
	decls := make([]LocalDecl, 0, len(mir.Locals))
	for i := range mir.Locals {
		if _, gone := dead[Local(i)]; gone {
			remap[i] = -1
			continue
		}
		remap[i] = Local(len(decls))
		decls = append(decls, mir.Locals[i])
	}
	mir.Locals = decls

	/* apply it to every reference in a second pass */
	renumber := func(l Local) Local {
		if remap[l] < 0 {
			consistencyFault("dangling reference to eliminated temporary %s", l)
		}
		return remap[l]
	}
	rewrite := func(p *Place, _ Context) {
		p.Base = renumber(p.Base)
		for i := range p.Proj {
			if p.Proj[i].Kind == ProjIndex {
				p.Proj[i].Index = renumber(p.Proj[i].Index)
			}
		}
	}
	for bi := range mir.Blocks {
		bb := &mir.Blocks[bi]
		for _, st := range bb.Stmts {
			switch p := st.(type) {
			case *StorageLive:
				p.Local = renumber(p.Local)
			case *StorageDead:
				p.Local = renumber(p.Local)
			default:
				forEachStmtPlace(st, rewrite)
			}
		}
		forEachTermPlace(bb.Term, rewrite)
	}
}
