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
    `github.com/cloudwego/hirloop/internal/hir`
)

// GraphView is the level-aware read-only projection of the function graph
// that GetGraph hands to clients. It copies nothing: accessors delegate to
// the owning graph and filter on the fly.
//
// Views are epoch-stamped. Using one after any overlapping invalidation or
// rebuild is a contract violation and panics instead of silently yielding
// stale edges.
//
// A loop view hides edges that cannot occur within a single iteration of
// every enclosing loop; it does NOT hide edges whose other endpoint lies
// outside the subtree of interest, callers filter by location when needed.
type GraphView struct {
    an    *Analysis
    node  hir.NodeID
    scope int
    input bool
    epoch uint64
}

func newGraphView(an *Analysis, node hir.NodeID, scope int, input bool) *GraphView {
    return &GraphView{
        an:    an,
        node:  node,
        scope: scope,
        input: input,
        epoch: an.graph.Epoch(),
    }
}

func (self *GraphView) Node() hir.NodeID { return self.node }

// Refs lists the live refs inside the view's subtree, in lexical order.
func (self *GraphView) Refs() []hir.RefID {
    self.checkEpoch()
    return self.an.fn.RefsUnder(self.node)
}

// Outgoing returns the visible edges out of r.
func (self *GraphView) Outgoing(r hir.RefID) []Edge {
    self.checkEpoch()
    return self.filter(self.an.graph.Outgoing(r))
}

// Incoming returns the visible edges into r.
func (self *GraphView) Incoming(r hir.RefID) []Edge {
    self.checkEpoch()
    return self.filter(self.an.graph.Incoming(r))
}

// Edges returns every visible edge once, grouped by source ref. RefsUnder
// yields each live ref exactly once, so no dedup is needed here.
func (self *GraphView) Edges() []Edge {
    self.checkEpoch()
    var ret []Edge
    for _, r := range self.an.fn.RefsUnder(self.node) {
        ret = append(ret, self.filter(self.an.graph.Outgoing(r))...)
    }
    return ret
}

func (self *GraphView) filter(ee []Edge) []Edge {
    ret := make([]Edge, 0, len(ee))
    for i := range ee {
        if self.visible(&ee[i]) {
            ret = append(ret, ee[i])
        }
    }
    return ret
}

func (self *GraphView) visible(e *Edge) bool {
    if !self.input && e.Type(self.an.fn) == INPUT {
        return false
    }

    /* a loop view assumes EQ at every enclosing level: an edge whose outer
     * direction excludes EQ cannot occur in one iteration of that loop nest */
    for l := 1; l < self.scope; l++ {
        if d := e.DV.DirAt(l); d != UNINIT && d & EQ == 0 {
            return false
        }
    }
    return true
}

func (self *GraphView) checkEpoch() {
    if self.epoch != self.an.graph.Epoch() {
        panic("hirdd: dependence graph view used after invalidation")
    }
}
