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

// BlockID identifies a basic block by its index within the body.
type BlockID int

func (self BlockID) String() string {
	return fmt.Sprintf("bb%d", int(self))
}

// Terminator is the single control transfer ending a basic block. Successor
// edges are not stored; they are derived from the terminator on demand.
type Terminator interface {
	fmt.Stringer
	Successors() []BlockID
	terminator()
}

func (*Goto) terminator()        {}
func (*If) terminator()          {}
func (*Switch) terminator()      {}
func (*Return) terminator()      {}
func (*Resume) terminator()      {}
func (*Unreachable) terminator() {}
func (*Call) terminator()        {}
func (*Drop) terminator()        {}

type Goto struct {
	Target BlockID
}

func (self *Goto) String() string {
	return "goto -> " + self.Target.String()
}

func (self *Goto) Successors() []BlockID {
	return []BlockID{self.Target}
}

type If struct {
	Cond Operand
	Then BlockID
	Else BlockID
}

func (self *If) String() string {
	return fmt.Sprintf("if %s -> [%s, %s]", self.Cond, self.Then, self.Else)
}

func (self *If) Successors() []BlockID {
	return []BlockID{self.Then, self.Else}
}

// Switch transfers to Targets[i] when the discriminant equals Values[i], and
// to Default otherwise. The same block may appear as several targets.
type Switch struct {
	Discr   Operand
	Values  []int64
	Targets []BlockID
	Default BlockID
}

func (self *Switch) String() string {
	nb := len(self.Values)
	ret := make([]string, 0, nb+1)
	for i, v := range self.Values {
		ret = append(ret, fmt.Sprintf("%d: %s", v, self.Targets[i]))
	}
	ret = append(ret, "otherwise: "+self.Default.String())
	return fmt.Sprintf("switch %s -> [%s]", self.Discr, strings.Join(ret, ", "))
}

func (self *Switch) Successors() []BlockID {
	ret := make([]BlockID, 0, len(self.Targets)+1)
	ret = append(ret, self.Targets...)
	ret = append(ret, self.Default)
	return ret
}

type Return struct{}

func (*Return) String() string {
	return "return"
}

func (*Return) Successors() []BlockID {
	return nil
}

// Resume continues unwinding. Only reachable along unwind edges.
type Resume struct{}

func (*Resume) String() string {
	return "resume"
}

func (*Resume) Successors() []BlockID {
	return nil
}

type Unreachable struct{}

func (*Unreachable) String() string {
	return "unreachable"
}

func (*Unreachable) Successors() []BlockID {
	return nil
}

// CallTarget is the place receiving a call's return value, and the block
// control continues at afterwards.
type CallTarget struct {
	Place Place
	Block BlockID
}

// Call invokes Func with Args. An empty Dest means the call diverges. More
// than one destination is an IR consistency fault, surfaced by Destination.
type Call struct {
	Func    Operand
	Args    []Operand
	Dest    []CallTarget
	Cleanup *BlockID
}

func (self *Call) String() string {
	args := make([]string, 0, len(self.Args))
	for _, v := range self.Args {
		args = append(args, v.String())
	}
	ret := fmt.Sprintf("call %s(%s)", self.Func, strings.Join(args, ", "))
	if d := self.Destination(); d != nil {
		ret = fmt.Sprintf("%s = %s -> %s", d.Place, ret, d.Block)
	}
	if self.Cleanup != nil {
		ret = fmt.Sprintf("%s, cleanup -> %s", ret, *self.Cleanup)
	}
	return ret
}

// Destination returns the call's single destination, or nil for a diverging
// call. More than one recorded destination aborts the pipeline run.
func (self *Call) Destination() *CallTarget {
	switch len(self.Dest) {
	case 0:
		return nil
	case 1:
		return &self.Dest[0]
	default:
		panic(ConsistencyError{Reason: fmt.Sprintf("call terminator with %d destinations", len(self.Dest))})
	}
}

func (self *Call) Successors() []BlockID {
	var ret []BlockID
	if d := self.Destination(); d != nil {
		ret = append(ret, d.Block)
	}
	if self.Cleanup != nil {
		ret = append(ret, *self.Cleanup)
	}
	return ret
}

// Drop releases the resource held by Place, then transfers to Target. The
// optional Unwind block is taken if the release operation unwinds.
type Drop struct {
	Place  Place
	Target BlockID
	Unwind *BlockID
}

func (self *Drop) String() string {
	if self.Unwind == nil {
		return fmt.Sprintf("drop(%s) -> %s", self.Place, self.Target)
	}
	return fmt.Sprintf("drop(%s) -> [%s, unwind: %s]", self.Place, self.Target, *self.Unwind)
}

func (self *Drop) Successors() []BlockID {
	ret := []BlockID{self.Target}
	if self.Unwind != nil {
		ret = append(ret, *self.Unwind)
	}
	return ret
}
