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

package dd

import (
    `fmt`
    `io`
    `sort`

    `github.com/cloudwego/hirloop/internal/hir`
)

// Graph is the adjacency-list dependence graph over reference IDs. Every
// edge is stored twice, once in the source's outgoing list and once in the
// sink's incoming list, trading memory for O(1) directional iteration: the
// graph is built rarely and walked constantly.
//
// The public surface is add-only. Rebuilds sweep stale edges through the
// unexported path, bumping the epoch so outstanding views can detect that
// they went stale.
type Graph struct {
    in    map[hir.RefID][]Edge
    out   map[hir.RefID][]Edge
    epoch uint64
}

func NewGraph() *Graph {
    return &Graph{
        in:  make(map[hir.RefID][]Edge),
        out: make(map[hir.RefID][]Edge),
    }
}

// AddEdge copies e into both endpoint adjacency lists.
func (self *Graph) AddEdge(e Edge) {
    self.out[e.Src] = append(self.out[e.Src], e)
    self.in[e.Sink] = append(self.in[e.Sink], e)
}

// Outgoing returns the edges out of r. The slice is owned by the graph,
// callers must not modify it.
func (self *Graph) Outgoing(r hir.RefID) []Edge {
    return self.out[r]
}

// Incoming returns the edges into r. The slice is owned by the graph,
// callers must not modify it.
func (self *Graph) Incoming(r hir.RefID) []Edge {
    return self.in[r]
}

// NumEdges counts the edges (each edge once, not twice).
func (self *Graph) NumEdges() int {
    n := 0
    for _, ee := range self.out {
        n += len(ee)
    }
    return n
}

// Epoch returns the current generation counter.
func (self *Graph) Epoch() uint64 {
    return self.epoch
}

// Clear drops everything and advances the epoch.
func (self *Graph) Clear() {
    self.in = make(map[hir.RefID][]Edge)
    self.out = make(map[hir.RefID][]Edge)
    self.epoch++
}

// bump invalidates outstanding views without touching the edge set.
func (self *Graph) bump() {
    self.epoch++
}

// sweep removes every edge rejected by keep from both adjacency lists and
// advances the epoch. Only the analysis rebuild path may call this; clients
// never remove edges.
func (self *Graph) sweep(keep func(*Edge) bool) {
    self.epoch++
    sweepList(self.out, keep)
    sweepList(self.in, keep)
}

func sweepList(m map[hir.RefID][]Edge, keep func(*Edge) bool) {
    for r, ee := range m {
        kk := ee[:0]
        for i := range ee {
            if keep(&ee[i]) {
                kk = append(kk, ee[i])
            }
        }
        if len(kk) == 0 {
            delete(m, r)
        } else {
            m[r] = kk
        }
    }
}

// Print dumps every edge grouped by source ref, in ref order.
func (self *Graph) Print(w io.Writer, fn *hir.Function) {
    rr := make([]hir.RefID, 0, len(self.out))
    for r := range self.out {
        rr = append(rr, r)
    }
    sort.Slice(rr, func(i int, j int) bool { return rr[i] < rr[j] })
    for _, r := range rr {
        for i := range self.out[r] {
            fmt.Fprintf(w, "  %s\n", self.out[r][i].String(fn))
        }
    }
}
