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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudwego/miropt/internal/opts"
	"github.com/cloudwego/miropt/mir"
)

// Optimize runs the local optimization pipeline over one function body,
// mutating it in place. Each invocation owns the body exclusively for its
// duration; distinct bodies may be optimized concurrently from separate
// invocations.
//
// A mir.ConsistencyError means an IR consistency fault aborted the run and
// the body must be discarded. With dumping enabled, a failed dump write is
// also reported; the optimized body itself is still valid in that case.
func Optimize(body *mir.Body, options ...Option) error {
	o := opts.GetDefaultOptions()
	for _, opt := range options {
		opt(&o)
	}
	if !o.Enabled() {
		return nil
	}
	if !o.ShouldDump() {
		return mir.Optimize(body)
	}
	seq := 0
	var dumpErr error
	err := mir.OptimizeWith(body, func(pass string, b *mir.Body) {
		name := strings.ReplaceAll(strings.ToLower(pass), " ", "_")
		if e := mir.DumpText(b, filepath.Join(o.DumpDir, fmt.Sprintf("%02d_%s.txt", seq, name))); e != nil && dumpErr == nil {
			dumpErr = e
		}
		if e := mir.DumpDot(b, filepath.Join(o.DumpDir, fmt.Sprintf("%02d_%s.gv", seq, name))); e != nil && dumpErr == nil {
			dumpErr = e
		}
		seq++
	})
	if err != nil {
		return err
	}
	return dumpErr
}
