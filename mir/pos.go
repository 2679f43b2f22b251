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
	"math"
)

const (
	_P_term = math.MaxUint32
)

// Location is one program point: a block plus a statement index within it,
// or the block's terminator.
type Location struct {
	Block BlockID
	Index int
}

func locationOf(bb BlockID, i int) Location {
	return Location{Block: bb, Index: i}
}

func terminatorLocation(bb BlockID) Location {
	return Location{Block: bb, Index: _P_term}
}

// IsTerminator reports whether the location refers to the block terminator
// rather than a statement.
func (self Location) IsTerminator() bool {
	return self.Index == _P_term
}

func (self Location) String() string {
	if self.IsTerminator() {
		return fmt.Sprintf("%s.term", self.Block)
	} else {
		return fmt.Sprintf("%s[%d]", self.Block, self.Index)
	}
}
