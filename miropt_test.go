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

package miropt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/miropt/mir"
)

func buildChainBody(t *testing.T) *mir.Body {
	b := mir.NewBuilder()
	ret := b.RetSlot()
	x := b.Var("x")
	t1 := b.Temp()
	b.Block()
	b.Assign(mir.PlaceOf(t1), &mir.Use{X: mir.ConstOperand(mir.IntConst(5))})
	b.Assign(mir.PlaceOf(x), &mir.Use{X: mir.Copy(mir.PlaceOf(t1))})
	b.Assign(mir.PlaceOf(ret), &mir.Use{X: mir.Copy(mir.PlaceOf(x))})
	b.Drop(mir.PlaceOf(x), 1)
	b.Block()
	b.Return()
	body, err := b.Build()
	require.NoError(t, err)
	return body
}

func TestOptimize_Pipeline(t *testing.T) {
	body := buildChainBody(t)
	require.NoError(t, Optimize(body))
	ss := body.String()
	println(ss)

	/* the whole chain folds to a single constant store, and the drop of the
	 * never-again-touched variable becomes a plain goto */
	assert.Contains(t, ss, "%0 = const 5")
	assert.NotContains(t, ss, "copy")
	require.IsType(t, new(mir.Goto), body.Blocks[0].Term)
}

func TestOptimize_Disabled(t *testing.T) {
	body := buildChainBody(t)
	before := body.String()
	require.NoError(t, Optimize(body, WithOptLevel(0)))
	if diff := cmp.Diff(before, body.String()); diff != "" {
		t.Fatalf("body changed at level 0 (-before +after):\n%s", diff)
	}
}

func TestOptimize_ConsistencyFault(t *testing.T) {
	body := &mir.Body{
		Locals: []mir.LocalDecl{{Kind: mir.KindReturnSlot}},
		Blocks: []mir.BasicBlock{
			{Term: &mir.Call{
				Func: mir.ConstOperand(mir.IntConst(0)),
				Dest: []mir.CallTarget{
					{Place: mir.PlaceOf(0), Block: 1},
					{Place: mir.PlaceOf(0), Block: 1},
				},
			}},
			{Term: new(mir.Return)},
		},
	}
	err := Optimize(body)
	require.Error(t, err)
	require.IsType(t, mir.ConsistencyError{}, err)
	assert.Contains(t, err.Error(), "destinations")
}

func TestOptimize_InvalidLevelPanics(t *testing.T) {
	require.Panics(t, func() { WithOptLevel(-1) })
}

func TestOptimize_DumpFiles(t *testing.T) {
	dir := t.TempDir()
	body := buildChainBody(t)
	require.NoError(t, Optimize(body, WithDumpDir(dir)))

	ents, err := os.ReadDir(dir)
	require.NoError(t, err)

	var txt, dot int
	for _, e := range ents {
		switch {
		case strings.HasSuffix(e.Name(), ".txt"):
			txt++
		case strings.HasSuffix(e.Name(), ".gv"):
			dot++
		}
	}

	/* one text plus one graph dump per pass */
	assert.Equal(t, 3, txt)
	assert.Equal(t, 3, dot)
}

func TestOptimize_DumpWriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	body := buildChainBody(t)

	/* the body is still fully optimized, but the failed dump write surfaces */
	err := Optimize(body, WithDumpDir(dir))
	require.Error(t, err)
	assert.NotContains(t, body.String(), "copy")
}
