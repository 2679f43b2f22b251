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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefUse_Counts(t *testing.T) {
	b := NewBuilder()
	ret := b.RetSlot()
	arg := b.Arg()
	x := b.Var("x")
	tmp := b.Temp()
	bb0 := b.Block()
	b.Live(x)
	b.Assign(PlaceOf(x), &Use{X: Copy(PlaceOf(arg))})
	b.Assign(PlaceOf(tmp), &BinaryOp{Op: BinOpAdd, X: Copy(PlaceOf(x)), Y: ConstOperand(IntConst(1))})
	b.Assign(PlaceOf(ret), &Use{X: Move(PlaceOf(tmp))})
	b.Dead(x)
	b.Drop(PlaceOf(x), 1)
	b.Block()
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)

	analysis := NewDefUseAnalysis(body)
	analysis.Analyze(body)

	assert.Equal(t, 0, analysis.DefCountExcludingDrop(arg))
	assert.Equal(t, 1, analysis.UseCount(arg))
	assert.Equal(t, 1, analysis.DefCountExcludingDrop(x))
	assert.Equal(t, 2, analysis.DefCount(x))
	assert.Equal(t, 1, analysis.UseCount(x))
	assert.Equal(t, 1, analysis.DefCountExcludingDrop(tmp))
	assert.Equal(t, 1, analysis.UseCount(tmp))
	assert.Equal(t, 0, analysis.UseCount(ret))

	/* lifetime brackets, def, use, dead, drop */
	oc := analysis.Occurrences(x)
	require.Len(t, oc, 5)
	assert.Equal(t, CtxStorageLive, oc[0].Context)
	assert.Equal(t, CtxMutatingDef, oc[1].Context)
	assert.Equal(t, CtxNonMutatingUse, oc[2].Context)
	assert.Equal(t, CtxStorageDead, oc[3].Context)
	assert.Equal(t, CtxDrop, oc[4].Context)
	assert.True(t, oc[4].Location.IsTerminator())
	assert.Equal(t, bb0, oc[4].Location.Block)

	loc, ok := analysis.FirstDefExcludingDrop(x)
	require.True(t, ok)
	assert.Equal(t, locationOf(bb0, 1), loc)
	_, ok = analysis.FirstDefExcludingDrop(arg)
	assert.False(t, ok)
}

func TestDefUse_AsmOutputsAreDefs(t *testing.T) {
	b := NewBuilder()
	v := b.Var("v")
	x := b.Var("x")
	z := b.Var("z")
	b.Block()
	b.Assign(PlaceOf(z), &InlineAsm{
		Asm:     "xchg",
		Inputs:  []Operand{Copy(PlaceOf(x))},
		Outputs: []Place{PlaceOf(v)},
	})
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)

	analysis := NewDefUseAnalysis(body)
	analysis.Analyze(body)

	assert.Equal(t, 1, analysis.DefCountExcludingDrop(v))
	assert.Equal(t, 0, analysis.UseCount(v))
	assert.Equal(t, 1, analysis.UseCount(x))

	oc := analysis.Occurrences(v)
	require.Len(t, oc, 1)
	assert.Equal(t, CtxMutatingDef, oc[0].Context)
}

func TestDefUse_ReplaceAllOccurrences(t *testing.T) {
	b := NewBuilder()
	a := b.Temp()
	c := b.Temp()
	b.Block()
	b.Live(a)
	b.Assign(PlaceOf(a), &Use{X: ConstOperand(IntConst(7))})
	b.Assign(PlaceOf(c), &Use{X: Copy(PlaceOf(a))})
	b.Dead(a)
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)

	analysis := NewDefUseAnalysis(body)
	analysis.Analyze(body)
	analysis.ReplaceAllOccurrences(a, PlaceOf(c), body)

	ss := body.String()
	assert.Contains(t, ss, "storage_live(%1)")
	assert.Contains(t, ss, "%1 = const 7")
	assert.Contains(t, ss, "%1 = copy %1")
	assert.Contains(t, ss, "storage_dead(%1)")
	assert.NotContains(t, ss, "%0 =")

	/* the replacement appended fresh entries for the target local; the
	 * replaced local's list is stale until the next Analyze */
	assert.GreaterOrEqual(t, len(analysis.Occurrences(c)), 5)
	analysis.Analyze(body)
	assert.Equal(t, 0, len(analysis.Occurrences(a)))
	assert.Equal(t, 2, analysis.DefCountExcludingDrop(c))
}

func TestDefUse_ReplaceWithProjection(t *testing.T) {
	b := NewBuilder()
	s := b.Var("s")
	tmp := b.Temp()
	out := b.Var("out")
	b.Block()
	b.Live(tmp)
	b.Assign(PlaceOf(out), &Use{X: Copy(PlaceOf(tmp))})
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)

	analysis := NewDefUseAnalysis(body)
	analysis.Analyze(body)
	analysis.ReplaceAllOccurrences(tmp, Place{Base: s, Proj: []Projection{{Kind: ProjField, Field: 0}}}, body)

	ss := body.String()
	assert.Contains(t, ss, "%2 = copy %0.f0")

	/* projected replacements cannot be carried into lifetime brackets */
	assert.Contains(t, ss, "storage_live(%1)")
}

func TestDefUse_ReplaceIndexLocal(t *testing.T) {
	b := NewBuilder()
	arr := b.Var("arr")
	i := b.Temp()
	j := b.Temp()
	out := b.Var("out")
	b.Block()
	b.Assign(PlaceOf(out), &Use{X: Copy(Place{Base: arr, Proj: []Projection{{Kind: ProjIndex, Index: i}}})})
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)

	analysis := NewDefUseAnalysis(body)
	analysis.Analyze(body)
	assert.Equal(t, 1, analysis.UseCount(i))

	analysis.ReplaceAllOccurrences(i, PlaceOf(j), body)
	assert.Contains(t, body.String(), "%3 = copy %0[%2]")
}
