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

	"github.com/cloudwego/miropt/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithOptLevel sets the optimization level for this invocation. Level 0
// skips the pipeline entirely.
//
// The default is read from MIROPT_OPT_LEVEL, falling back to "1".
func WithOptLevel(level int) Option {
	if level < 0 {
		panic(fmt.Sprintf("miropt: invalid optimization level: %d", level))
	}
	return func(o *opts.Options) { o.OptLevel = level }
}

// WithDumpDir writes a text and a Graphviz dump of the body into dir after
// each pass. An empty dir disables dumping.
//
// The default is read from MIROPT_DUMP_DIR.
func WithDumpDir(dir string) Option {
	return func(o *opts.Options) { o.DumpDir = dir }
}
