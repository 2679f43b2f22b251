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
)

// ConsistencyError occurs when an internal IR invariant is violated, such as
// removing a predecessor edge that was never recorded. It aborts the pass
// pipeline for the current function body; a body whose run aborted must be
// discarded by the caller.
type ConsistencyError struct {
	Reason string
}

func (self ConsistencyError) Error() string {
	return "mir: consistency error: " + self.Reason
}

func consistencyFault(format string, args ...interface{}) {
	panic(ConsistencyError{Reason: fmt.Sprintf(format, args...)})
}
