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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBody_BuildAndPrint(t *testing.T) {
	b := NewBuilder()
	ret := b.RetSlot()
	x := b.Var("x")
	bb0 := b.Block()
	b.Assign(PlaceOf(x), &Use{X: ConstOperand(IntConst(1))})
	b.Assign(PlaceOf(ret), &Use{X: Copy(PlaceOf(x))})
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, BlockID(0), bb0)
	ss := body.String()
	println(ss)
	assert.Contains(t, ss, "let %0: ret")
	assert.Contains(t, ss, "let %1: var(x)")
	assert.Contains(t, ss, "%1 = const 1")
	assert.Contains(t, ss, "%0 = copy %1")
	assert.Contains(t, ss, "bb0:")
}

func TestBody_ValidateUndeclaredLocal(t *testing.T) {
	body := &Body{
		Locals: []LocalDecl{{Kind: KindReturnSlot}},
		Blocks: []BasicBlock{{
			Stmts: []Statement{
				&Assign{Place: PlaceOf(0), Rvalue: &Use{X: Copy(PlaceOf(5))}},
			},
			Term: new(Return),
		}},
	}
	err := body.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared local %5")
}

func TestBody_ValidateMissingTerminator(t *testing.T) {
	body := &Body{
		Blocks: []BasicBlock{{}},
	}
	err := body.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bb0 has no terminator")
}

func TestBody_ValidateMissingBlock(t *testing.T) {
	body := &Body{
		Blocks: []BasicBlock{{Term: &Goto{Target: 3}}},
	}
	err := body.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bb0 targets missing block bb3")
}

func TestBody_MakeNop(t *testing.T) {
	b := NewBuilder()
	x := b.Var("x")
	b.Block()
	b.Assign(PlaceOf(x), &Use{X: ConstOperand(IntConst(1))})
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)
	body.MakeNop(locationOf(0, 0))
	require.IsType(t, new(Nop), body.Blocks[0].Stmts[0])
	require.Panics(t, func() { body.MakeNop(terminatorLocation(0)) })
	require.Panics(t, func() { body.StmtAt(terminatorLocation(0)) })
}

func TestTerminator_Successors(t *testing.T) {
	cleanup := BlockID(7)
	unwind := BlockID(9)
	assert.Equal(t, []BlockID{1}, (&Goto{Target: 1}).Successors())
	assert.Equal(t, []BlockID{1, 2}, (&If{Then: 1, Else: 2}).Successors())
	assert.Equal(t, []BlockID{1, 2, 3}, (&Switch{Targets: []BlockID{1, 2}, Default: 3}).Successors())
	assert.Empty(t, (&Return{}).Successors())
	assert.Empty(t, (&Resume{}).Successors())
	assert.Empty(t, (&Unreachable{}).Successors())
	assert.Equal(t, []BlockID{4, 7}, (&Call{Dest: []CallTarget{{Block: 4}}, Cleanup: &cleanup}).Successors())
	assert.Empty(t, (&Call{}).Successors())
	assert.Equal(t, []BlockID{5, 9}, (&Drop{Target: 5, Unwind: &unwind}).Successors())
}

func TestCall_MultipleDestinationsFault(t *testing.T) {
	call := &Call{
		Func: ConstOperand(IntConst(0)),
		Dest: []CallTarget{{Block: 1}, {Block: 2}},
	}
	require.PanicsWithValue(t, ConsistencyError{Reason: "call terminator with 2 destinations"}, func() {
		call.Destination()
	})
}

func TestPlace_Print(t *testing.T) {
	p := Place{
		Base: 1,
		Proj: []Projection{
			{Kind: ProjDeref},
			{Kind: ProjField, Field: 2},
			{Kind: ProjIndex, Index: 3},
		},
	}
	assert.Equal(t, "(*%1).f2[%3]", p.String())
	assert.False(t, p.IsLocal())
	assert.True(t, p.Equal(p))
	assert.False(t, p.Equal(PlaceOf(1)))
}

func TestBody_PrintDropAndSwitch(t *testing.T) {
	b := NewBuilder()
	v := b.Var("v")
	b.Block()
	b.Drop(PlaceOf(v), 1)
	b.Block()
	b.Terminate(&Switch{
		Discr:   Copy(PlaceOf(v)),
		Values:  []int64{0, 1},
		Targets: []BlockID{0, 1},
		Default: 2,
	})
	b.Block()
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)
	ss := body.String()
	assert.Contains(t, ss, "drop(%0) -> bb1")
	assert.True(t, strings.Contains(ss, "switch copy %0 -> [0: bb0, 1: bb1, otherwise: bb2]"))
}
