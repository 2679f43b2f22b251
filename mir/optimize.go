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

// Pass is one local optimization over a function body. Apply mutates the
// body in place and reports whether anything changed; a pass that reaches
// its fixed point reports false on the next run.
type Pass interface {
	Apply(*Body) bool
}

type _PassDescriptor struct {
	pass Pass
	desc string
}

var _passes = [...]_PassDescriptor{
	{desc: "Copy Propagation", pass: new(CopyProp)},
	{desc: "Drop Elision", pass: new(DropElim)},
	{desc: "Temp Forwarding", pass: new(TmpForward)},
}

// DumpHook observes the body after each pass. It must not retain the body.
type DumpHook func(pass string, mir *Body)

// Optimize runs every pass once over the body, each pass iterating
// internally to its own fixed point. A ConsistencyError fault aborts the
// run and is returned; the body must then be discarded.
func Optimize(mir *Body) error {
	return OptimizeWith(mir, nil)
}

func OptimizeWith(mir *Body, hook DumpHook) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(ConsistencyError); ok {
				err = e
			} else {
				panic(v)
			}
		}
	}()
	for _, p := range _passes {
		p.pass.Apply(mir)
		if hook != nil {
			hook(p.desc, mir)
		}
	}
	return nil
}
