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

// Builder constructs function bodies block by block. Declare locals up
// front, open blocks with Block, append statements, and close each block
// with exactly one terminator call. Blocks may be referenced by the ids
// Block returns before they are filled in, as long as every referenced
// block exists by Build time.
type Builder struct {
	body Body
	cur  int
}

func NewBuilder() *Builder {
	return &Builder{cur: -1}
}

func (self *Builder) Declare(kind LocalKind, name string) Local {
	self.body.Locals = append(self.body.Locals, LocalDecl{Kind: kind, Name: name})
	return Local(len(self.body.Locals) - 1)
}

func (self *Builder) Arg() Local     { return self.Declare(KindArgument, "") }
func (self *Builder) Temp() Local    { return self.Declare(KindTemporary, "") }
func (self *Builder) RetSlot() Local { return self.Declare(KindReturnSlot, "") }

func (self *Builder) Var(name string) Local {
	return self.Declare(KindUserVariable, name)
}

// Block opens a new basic block and makes it current.
func (self *Builder) Block() BlockID {
	self.body.Blocks = append(self.body.Blocks, BasicBlock{})
	self.cur = len(self.body.Blocks) - 1
	return BlockID(self.cur)
}

func (self *Builder) current() *BasicBlock {
	if self.cur < 0 {
		consistencyFault("no block is open")
	}
	return &self.body.Blocks[self.cur]
}

func (self *Builder) Append(st Statement) {
	self.current().Stmts = append(self.current().Stmts, st)
}

func (self *Builder) Assign(p Place, rv Rvalue) {
	self.Append(&Assign{Place: p, Rvalue: rv})
}

func (self *Builder) Live(l Local) {
	self.Append(&StorageLive{Local: l})
}

func (self *Builder) Dead(l Local) {
	self.Append(&StorageDead{Local: l})
}

func (self *Builder) Terminate(t Terminator) {
	bb := self.current()
	if bb.Term != nil {
		consistencyFault("%s already has a terminator", BlockID(self.cur))
	}
	bb.Term = t
}

func (self *Builder) Goto(target BlockID) {
	self.Terminate(&Goto{Target: target})
}

func (self *Builder) If(cond Operand, then BlockID, els BlockID) {
	self.Terminate(&If{Cond: cond, Then: then, Else: els})
}

func (self *Builder) Return() {
	self.Terminate(new(Return))
}

func (self *Builder) Drop(p Place, target BlockID) {
	self.Terminate(&Drop{Place: p, Target: target})
}

func (self *Builder) Call(fn Operand, args []Operand, dest Place, target BlockID) {
	self.Terminate(&Call{
		Func: fn,
		Args: args,
		Dest: []CallTarget{{Place: dest, Block: target}},
	})
}

// Build validates the constructed body and hands it over. The builder must
// not be reused afterwards.
func (self *Builder) Build() (*Body, error) {
	if err := self.body.Validate(); err != nil {
		return nil, err
	}
	return &self.body, nil
}
