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

func TestPredecessorMap_Build(t *testing.T) {
	b := NewBuilder()
	c := b.Var("c")
	b.Block()
	b.If(Copy(PlaceOf(c)), 1, 2)
	b.Block()
	b.Goto(3)
	b.Block()
	b.Terminate(&Switch{
		Discr:   Copy(PlaceOf(c)),
		Values:  []int64{0, 1},
		Targets: []BlockID{3, 3},
		Default: 3,
	})
	b.Block()
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)

	pm := BuildPredecessorMap(body)
	assert.Empty(t, pm.Predecessors(0))
	assert.Equal(t, []BlockID{0}, pm.Predecessors(1))
	assert.Equal(t, []BlockID{0}, pm.Predecessors(2))

	/* a block branching to the same target thrice is recorded thrice */
	assert.ElementsMatch(t, []BlockID{1, 2, 2, 2}, pm.Predecessors(3))
}

func TestPredecessorMap_RemoveAndReplace(t *testing.T) {
	pm := NewPredecessorMap(4)
	pm.AddPredecessor(3, 1)
	pm.AddPredecessor(3, 2)
	pm.AddPredecessor(3, 2)

	pm.RemovePredecessor(3, 2)
	assert.ElementsMatch(t, []BlockID{1, 2}, pm.Predecessors(3))

	pm.ReplacePredecessor(3, 1, 0)
	assert.ElementsMatch(t, []BlockID{0, 2}, pm.Predecessors(3))

	pm.RemovePredecessor(3, 2)
	require.PanicsWithValue(t, ConsistencyError{Reason: "bb2 is not registered as a predecessor of bb3"}, func() {
		pm.RemovePredecessor(3, 2)
	})
}
