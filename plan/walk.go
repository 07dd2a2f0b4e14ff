// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plan

// Walk visits node and every descendant, pre-order, calling visit(node)
// for each. Shared by the analysis passes and lineage extractor.
func Walk(node RelOp, visit func(RelOp)) {
	if node == nil {
		return
	}
	visit(node)
	for _, c := range node.Children() {
		Walk(c, visit)
	}
}

// CollectScans returns every Scan reachable from node.
func CollectScans(node RelOp) []*Scan {
	var out []*Scan
	Walk(node, func(n RelOp) {
		if s, ok := n.(*Scan); ok {
			out = append(out, s)
		}
	})
	return out
}
