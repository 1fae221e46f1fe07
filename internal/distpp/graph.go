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

// Package distpp builds the loop-distribution preprocessing graph: the loop
// body is cut into indivisible lexical chunks, the dependence edges between
// chunks are coalesced, and the strongly connected components of the result
// are the pi-blocks distribution must keep together. Unlike the statement
// level dependence graph this one is expected to contain cycles.
//
// Construction never fails hard: unsupported bodies mark the graph invalid
// with a human-readable reason, and callers are expected to check
// IsGraphValid and decline the transformation.
package distpp

import (
    `fmt`
    `io`

    `github.com/cloudwego/hirloop/internal/dd`
    `github.com/cloudwego/hirloop/internal/hir`
    `github.com/cloudwego/hirloop/internal/opts`
    `github.com/cloudwego/hirloop/internal/stats`
    `github.com/cloudwego/kitex/pkg/klog`
)

// Chunk is one indivisible unit of the loop body: a single statement, or a
// compound child (if / switch / inner loop) taken with its whole subtree.
type Chunk struct {
    Index int
    Root  hir.NodeID
    Refs  []hir.RefID
}

// Edge is a coalesced bundle of dependence edges between two chunks.
type Edge struct {
    Src  int
    Sink int
    Deps []dd.Edge
}

// Graph is the distribution preprocessing graph of one loop.
type Graph struct {
    fn     *hir.Function
    loop   hir.NodeID
    level  int
    chunks []*Chunk
    edges  map[[2]int]*Edge
    back   map[[2]int]bool
    pi     [][]*Chunk
    valid  bool
    reason string
}

// Build constructs the graph for loop, pulling dependence information from
// dda and structural statistics from st. Always returns a graph; check
// IsGraphValid before using it.
func Build(loop hir.NodeID, dda *dd.Analysis, st *stats.Analysis, options opts.Options) *Graph {
    fn := dda.Fn()
    self := &Graph{
        fn:    fn,
        loop:  loop,
        level: int(fn.Node(loop).Level),
        edges: make(map[[2]int]*Edge),
        back:  make(map[[2]int]bool),
        valid: true,
    }
    if fn.Node(loop).Kind != hir.Loop {
        panic("distpp: preprocessing graph over a non-loop node")
    }

    /* structural bail-outs before anything expensive */
    total := st.TotalStats(loop)
    if total.HasUnsafeSideEffects() {
        self.setInvalid("cannot distribute loops with calls")
        return self
    }
    if total.HasUnstructuredFlow() {
        self.setInvalid("cannot distribute graph with control flow")
        return self
    }
    if !self.buildChunks(options) {
        return self
    }
    self.buildEdges(dda, st)
    self.buildPiBlocks()
    return self
}

func (self *Graph) IsGraphValid() bool     { return self.valid }
func (self *Graph) GetFailureReason() string { return self.reason }
func (self *Graph) Chunks() []*Chunk       { return self.chunks }

// PiBlocks returns the strongly connected chunk groups in lexical order.
// Only meaningful on a valid graph.
func (self *Graph) PiBlocks() [][]*Chunk {
    if !self.valid {
        panic("distpp: pi-blocks of an invalid preprocessing graph")
    }
    return self.pi
}

func (self *Graph) setInvalid(reason string) {
    self.valid = false
    self.reason = reason
    if opts.DebugDD {
        klog.Debugf("distpp: loop node %d: %s", self.loop, reason)
    }
}

/** Chunk Discovery **/

func (self *Graph) buildChunks(options opts.Options) bool {
    for _, c := range self.fn.Node(self.loop).Children {
        pp := self.fn.Node(c)
        if pp.Dead {
            continue
        }
        if !options.CanAddChunk(len(self.chunks)) {
            self.setInvalid("loop body too large to distribute")
            return false
        }
        self.chunks = append(self.chunks, &Chunk{
            Index: len(self.chunks),
            Root:  c,
            Refs:  self.fn.RefsUnder(c),
        })
    }
    return true
}

/** Edge Coalescing **/

func (self *Graph) buildEdges(dda *dd.Analysis, st *stats.Analysis) {
    view := dda.GetGraph(self.loop, false)

    /* chunk lookup for every ref in the body */
    owner := make(map[hir.RefID]int)
    for _, ck := range self.chunks {
        for _, r := range ck.Refs {
            owner[r] = ck.Index
        }
    }

    for _, ck := range self.chunks {
        for _, r := range ck.Refs {
            for _, e := range view.Outgoing(r) {
                sk, ok := owner[e.Sink]
                if !ok || sk == ck.Index {
                    continue // outside the body, or within one chunk
                }
                self.addDep(ck.Index, sk, e)
                if self.needBackwardEdge(&e, st) {
                    self.back[[2]int{sk, ck.Index}] = true
                }
            }
        }
    }
}

func (self *Graph) addDep(src int, sink int, e dd.Edge) {
    key := [2]int{src, sink}
    if self.edges[key] == nil {
        self.edges[key] = &Edge{Src: src, Sink: sink}
    }
    self.edges[key].Deps = append(self.edges[key].Deps, e)
}

// needBackwardEdge decides when a dependence also forces the reverse chunk
// ordering, welding the two chunks into one pi-block:
//
//   - a loop-independent temp flow: the temp would need scalar expansion to
//     survive distribution;
//   - a terminal output dependence still ALL at the distribution level;
//   - a memory dependence admitting both EQ and LT at the distribution
//     level whose source does not dominate its sink, so the iteration-order
//     proof for a forward-only edge does not apply.
func (self *Graph) needBackwardEdge(e *dd.Edge, st *stats.Analysis) bool {
    fn := self.fn
    src, sink := fn.Ref(e.Src), fn.Ref(e.Sink)
    if src.IsTerminal() {
        switch e.Type(fn) {
            case dd.FLOW   : return e.IsLoopIndependent(self.level)
            case dd.OUTPUT : return e.DV.DirAt(self.level) == dd.ALL
        }
        return false
    }
    d := e.DV.DirAt(self.level)
    if d & dd.EQ != 0 && d & dd.LT != 0 {
        return !st.Dominates(src.Node, sink.Node)
    }
    return false
}

/** Printing **/

func (self *Graph) Print(w io.Writer) {
    if !self.valid {
        fmt.Fprintf(w, "distpp graph (INVALID: %s)\n", self.reason)
        return
    }
    fmt.Fprintf(w, "distpp graph for loop node %d: %d chunks\n", self.loop, len(self.chunks))
    for _, ck := range self.chunks {
        fmt.Fprintf(w, "  chunk %d: node %d (%d refs)\n", ck.Index, ck.Root, len(ck.Refs))
    }
    for _, e := range self.edges {
        fmt.Fprintf(w, "  %d -> %d (%d deps)\n", e.Src, e.Sink, len(e.Deps))
    }
    for k := range self.back {
        fmt.Fprintf(w, "  %d -> %d (forced backward)\n", k[0], k[1])
    }
    for i, b := range self.pi {
        fmt.Fprintf(w, "  pi-block %d:", i)
        for _, ck := range b {
            fmt.Fprintf(w, " %d", ck.Index)
        }
        fmt.Fprintln(w)
    }
}
