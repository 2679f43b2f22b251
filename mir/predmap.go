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

// PredecessorMap answers quick reverse-edge lookups over the CFG. Blocks
// usually have few predecessors, so each entry is a plain slice. A block
// branching to the same target more than once (e.g. two switch arms)
// appears in the target's list multiple times, which keeps the map easy to
// update when edges are rewritten.
type PredecessorMap struct {
	pred [][]BlockID
}

// NewPredecessorMap creates an empty map for a CFG with n blocks.
func NewPredecessorMap(n int) *PredecessorMap {
	return &PredecessorMap{
		pred: make([][]BlockID, n),
	}
}

// BuildPredecessorMap records every edge derived from every terminator's
// successor set, in one full traversal.
func BuildPredecessorMap(mir *Body) *PredecessorMap {
	pm := NewPredecessorMap(len(mir.Blocks))
	for bi := range mir.Blocks {
		for _, s := range mir.Blocks[bi].Term.Successors() {
			pm.AddPredecessor(s, BlockID(bi))
		}
	}
	return pm
}

// Predecessors returns the blocks with an edge into block, duplicates kept.
func (self *PredecessorMap) Predecessors(block BlockID) []BlockID {
	return self.pred[block]
}

func (self *PredecessorMap) AddPredecessor(block BlockID, predecessor BlockID) {
	self.pred[block] = append(self.pred[block], predecessor)
}

// RemovePredecessor drops one recorded edge. Removing an edge that was
// never recorded is an IR consistency fault.
func (self *PredecessorMap) RemovePredecessor(block BlockID, predecessor BlockID) {
	pp := self.pred[block]
	for i, p := range pp {
		if p == predecessor {
			pp[i] = pp[len(pp)-1]
			self.pred[block] = pp[:len(pp)-1]
			return
		}
	}
	consistencyFault("%s is not registered as a predecessor of %s", predecessor, block)
}

// ReplacePredecessor atomically rewrites one recorded edge.
func (self *PredecessorMap) ReplacePredecessor(block BlockID, old BlockID, new BlockID) {
	self.RemovePredecessor(block, old)
	self.AddPredecessor(block, new)
}
