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

package distpp

import (
    `sort`

    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`
)

// buildPiBlocks runs Tarjan's SCC over the chunk topology (coalesced plus
// forced backward edges) and records the components as pi-blocks, chunks
// and blocks both in lexical order.
func (self *Graph) buildPiBlocks() {
    g := simple.NewDirectedGraph()
    for _, ck := range self.chunks {
        g.AddNode(simple.Node(ck.Index))
    }
    for k := range self.edges {
        g.SetEdge(simple.Edge{F: simple.Node(k[0]), T: simple.Node(k[1])})
    }
    for k := range self.back {
        g.SetEdge(simple.Edge{F: simple.Node(k[0]), T: simple.Node(k[1])})
    }

    self.pi = self.pi[:0]
    for _, scc := range topo.TarjanSCC(g) {
        blk := make([]*Chunk, 0, len(scc))
        for _, n := range scc {
            blk = append(blk, self.chunks[n.ID()])
        }
        sort.Slice(blk, func(i int, j int) bool { return blk[i].Index < blk[j].Index })
        self.pi = append(self.pi, blk)
    }
    sort.Slice(self.pi, func(i int, j int) bool { return self.pi[i][0].Index < self.pi[j][0].Index })
}
