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

// BasicBlock is an ordered sequence of statements plus exactly one
// terminator.
type BasicBlock struct {
	Stmts []Statement
	Term  Terminator
}

// Body is the full control-flow graph of one function: the basic blocks and
// the local declaration table. It is exclusively owned by a pass pipeline
// invocation and mutated in place.
type Body struct {
	Blocks []BasicBlock
	Locals []LocalDecl
}

// Kind returns the declared kind of a local.
func (self *Body) Kind(l Local) LocalKind {
	return self.Locals[l].Kind
}

// StmtAt returns the statement at a non-terminator location.
func (self *Body) StmtAt(loc Location) Statement {
	if loc.IsTerminator() {
		consistencyFault("statement requested at terminator location %s", loc)
	}
	return self.Blocks[loc.Block].Stmts[loc.Index]
}

// MakeNop elides the statement at loc in place, preserving block shape so
// recorded locations stay valid.
func (self *Body) MakeNop(loc Location) {
	if loc.IsTerminator() {
		consistencyFault("cannot nop a terminator at %s", loc)
	}
	self.Blocks[loc.Block].Stmts[loc.Index] = new(Nop)
}

// Validate checks the structural invariants: every referenced local is
// declared, and every successor edge targets an existing block.
func (self *Body) Validate() error {
	var bad []string
	local := func(l Local) {
		if int(l) < 0 || int(l) >= len(self.Locals) {
			bad = append(bad, fmt.Sprintf("undeclared local %s", l))
		}
	}
	for bi := range self.Blocks {
		bb := &self.Blocks[bi]
		for si := range bb.Stmts {
			forEachStmtPlace(bb.Stmts[si], func(p *Place, _ Context) {
				local(p.Base)
				for _, pr := range p.Proj {
					if pr.Kind == ProjIndex {
						local(pr.Index)
					}
				}
			})
			switch st := bb.Stmts[si].(type) {
			case *StorageLive:
				local(st.Local)
			case *StorageDead:
				local(st.Local)
			}
		}
		if bb.Term == nil {
			bad = append(bad, fmt.Sprintf("%s has no terminator", BlockID(bi)))
			continue
		}
		forEachTermPlace(bb.Term, func(p *Place, _ Context) {
			local(p.Base)
			for _, pr := range p.Proj {
				if pr.Kind == ProjIndex {
					local(pr.Index)
				}
			}
		})
		for _, s := range bb.Term.Successors() {
			if int(s) < 0 || int(s) >= len(self.Blocks) {
				bad = append(bad, fmt.Sprintf("%s targets missing block %s", BlockID(bi), s))
			}
		}
	}
	if len(bad) != 0 {
		return ConsistencyError{Reason: strings.Join(bad, "; ")}
	}
	return nil
}

func (self *Body) String() string {
	buf := make([]string, 0, len(self.Locals)+len(self.Blocks)*4+2)
	buf = append(buf, "fn {")

	/* declaration table */
	for i, d := range self.Locals {
		buf = append(buf, fmt.Sprintf("    let %s: %s", Local(i), d))
	}

	/* every block, statements then terminator */
	for bi := range self.Blocks {
		bb := &self.Blocks[bi]
		buf = append(buf, fmt.Sprintf("  %s: {", BlockID(bi)))
		for _, st := range bb.Stmts {
			buf = append(buf, "    "+st.String())
		}
		if bb.Term != nil {
			buf = append(buf, "    "+bb.Term.String())
		}
		buf = append(buf, "  }")
	}

	/* join them together */
	buf = append(buf, "}")
	return strings.Join(buf, "\n")
}
