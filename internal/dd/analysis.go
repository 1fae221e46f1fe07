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

    `github.com/cloudwego/hirloop/internal/hir`
    `github.com/cloudwego/hirloop/internal/opts`
    `github.com/cloudwego/hirloop/internal/stats`
    `github.com/cloudwego/kitex/pkg/klog`
    `github.com/oleiade/lane`
)

// GraphState is the per-node validity of the dependence graph. NoData and
// Invalid both mean "needs rebuild"; they are kept distinct so diagnostics
// can tell "never built" from "built then invalidated".
type GraphState uint8

const (
    NoData GraphState = iota
    Invalid
    Valid
)

func (self GraphState) String() string {
    switch self {
        case NoData  : return "no-data"
        case Invalid : return "invalid"
        case Valid   : return "valid"
        default      : return "???"
    }
}

// _NodeInfo records, next to the tri-state, the scope of the last successful
// build for the node: scope 0 is a region-level build (pairs tested with
// every level free), scope L means pairs were tested with levels shallower
// than L pinned EQ. A narrow build cannot serve a wider request.
type _NodeInfo struct {
    state  GraphState
    scope  int8
    inputs bool
}

func (self _NodeInfo) serves(scope int, inputs bool) bool {
    return self.state == Valid && int(self.scope) <= scope && (self.inputs || !inputs)
}

// Analysis owns the one per-function dependence graph and its validity map.
// Clients obtain scoped views through GetGraph and must report their own
// tree edits through the markXModified entry points; the analysis never
// watches the tree, invalidation is strictly declarative.
//
// All collaborators are injected at construction and held as non-owning
// handles; their lifetimes are the caller's problem.
type Analysis struct {
    fn     *hir.Function
    oracle Oracle
    alias  AliasOracle
    stats  *stats.Analysis
    opts   opts.Options
    graph  *Graph
    vmap   map[hir.NodeID]_NodeInfo
}

func NewAnalysis(fn *hir.Function, oracle Oracle, alias AliasOracle, st *stats.Analysis, options opts.Options) *Analysis {
    if fn == nil || oracle == nil || alias == nil || st == nil {
        panic("hirdd: nil collaborator")
    }
    return &Analysis{
        fn:     fn,
        oracle: oracle,
        alias:  alias,
        stats:  st,
        opts:   options,
        graph:  NewGraph(),
        vmap:   make(map[hir.NodeID]_NodeInfo),
    }
}

func (self *Analysis) Fn() *hir.Function      { return self.fn }
func (self *Analysis) Stats() *stats.Analysis { return self.stats }

// NodeState exposes the raw tri-state of a node, for diagnostics.
func (self *Analysis) NodeState(node hir.NodeID) GraphState {
    return self.vmap[node].state
}

// GetGraph returns a read-only view of the dependence graph scoped to node,
// rebuilding the stale parts of the underlying graph first if needed. For a
// loop at level L the pairs are tested under the assumption that all
// enclosing levels are EQ. Input (read/read) edges are only tested for and
// exposed when wantInput is set.
//
// The view does not guarantee that both endpoints of every visible edge lie
// inside node's subtree; callers that care must filter by location.
func (self *Analysis) GetGraph(node hir.NodeID, wantInput bool) *GraphView {
    scope := self.nodeScope(node)
    rebuilt := false
    if !self.validAtScope(node, scope, wantInput) {
        self.buildGraph(node, wantInput)
        rebuilt = true
    }
    view := newGraphView(self, node, scope, wantInput)
    if rebuilt && opts.DebugDDDir != "" {
        draw_ddgraph(fmt.Sprintf("%s/dd_%s_%d.svg", opts.DebugDDDir, self.fn.Name, node), view)
    }
    return view
}

// GraphForNodeValid checks whether a GetGraph call for node would be served
// without rebuilding.
func (self *Analysis) GraphForNodeValid(node hir.NodeID) bool {
    return self.validAtScope(node, self.nodeScope(node), false)
}

// nodeScope maps a graph-request node to its build scope and asserts the
// node kind.
func (self *Analysis) nodeScope(node hir.NodeID) int {
    switch pp := self.fn.Node(node); pp.Kind {
        case hir.Region : return 0
        case hir.Loop   : return int(pp.Level)
        default         : panic(fmt.Sprintf("hirdd: getGraph on a %s node", pp.Kind))
    }
}

// validAtScope is the recursive validity check: node itself and every
// descendant loop must have been built at a scope no narrower than the
// request.
func (self *Analysis) validAtScope(node hir.NodeID, scope int, inputs bool) bool {
    if !self.vmap[node].serves(scope, inputs) {
        return false
    }
    for _, d := range self.fn.DescendantLoops(node) {
        if !self.vmap[d].serves(scope, inputs) {
            return false
        }
    }
    return true
}

/** Invalidation Entry Points **/

// MarkLoopBodyModified must be called after any reference inside loop's body
// was added, removed or rewritten. It invalidates loop and every descendant
// loop; ancestors are untouched, body edits cannot affect dependences that
// treat the outer IVs as invariants.
func (self *Analysis) MarkLoopBodyModified(loop hir.NodeID) {
    self.checkKind(loop, hir.Loop)
    self.graph.bump()
    self.stats.Invalidate(loop)
    self.invalidateDown(loop)
    self.trace("body modified: loop node %d", loop)
}

// MarkLoopBoundsModified must be called after loop's lower/upper bound or
// stride expression was rewritten. Bound changes can reclassify carried
// dependences at any enclosing level, so this invalidates the whole ancestor
// chain up to and including the region, plus every descendant loop.
func (self *Analysis) MarkLoopBoundsModified(loop hir.NodeID) {
    self.checkKind(loop, hir.Loop)
    self.graph.bump()
    self.stats.Invalidate(loop)
    self.invalidateDown(loop)
    for p := self.fn.Node(loop).Parent; p != hir.NoNode; p = self.fn.Node(p).Parent {
        if k := self.fn.Node(p).Kind; k == hir.Loop || k == hir.Region {
            self.invalidate(p)
        }
    }
    self.trace("bounds modified: loop node %d", loop)
}

// MarkNonLoopRegionModified must be called after a reference lexically
// outside all loop nests of region was rewritten. Only the region-level
// graph goes stale, loop-nest graphs inside the region never depend on
// sibling out-of-loop code.
func (self *Analysis) MarkNonLoopRegionModified(region hir.NodeID) {
    self.checkKind(region, hir.Region)
    self.graph.bump()
    self.stats.Invalidate(region)
    self.invalidate(region)
    self.trace("out-of-loop refs modified: region node %d", region)
}

func (self *Analysis) checkKind(node hir.NodeID, k hir.Kind) {
    if self.fn.Node(node).Kind != k {
        panic(fmt.Sprintf("hirdd: expected a %s node, got %s", k, self.fn.Node(node).Kind))
    }
}

func (self *Analysis) invalidate(node hir.NodeID) {
    if nf, ok := self.vmap[node]; ok && nf.state == Valid {
        nf.state = Invalid
        self.vmap[node] = nf
    }
}

// invalidateDown flips node and every descendant loop to Invalid, one
// nesting level per step so each loop is enqueued exactly once.
func (self *Analysis) invalidateDown(node hir.NodeID) {
    q := lane.NewQueue()
    for q.Enqueue(node); !q.Empty(); {
        p := q.Dequeue().(hir.NodeID)
        self.invalidate(p)
        for _, d := range self.fn.ChildLoops(p) {
            q.Enqueue(d)
        }
    }
}

/** Graph Construction **/

// buildGraph re-tests exactly the stale part of node's subtree. It first
// sweeps every stored edge owned by a stale container, then enumerates
// candidate pairs among the subtree's refs, skipping pairs whose containers
// are all still valid (their edges survived the sweep) and pairs pruned by
// edgeNeeded, and finally marks the whole subtree Valid at the build scope.
func (self *Analysis) buildGraph(node hir.NodeID, wantInput bool) {
    fn := self.fn
    scope := self.nodeScope(node)
    start := scope
    if start == 0 {
        start = 1
    }

    /* stale containers of this build */
    stale := make(map[hir.NodeID]bool)
    if !self.vmap[node].serves(scope, wantInput) {
        stale[node] = true
    }
    for _, d := range fn.DescendantLoops(node) {
        if !self.vmap[d].serves(scope, wantInput) {
            stale[d] = true
        }
    }

    /* per-ref staleness: a ref is stale when any enclosing loop within the
     * subtree is stale, or, for refs outside all loops, when the build root
     * itself is */
    refs := fn.RefsUnder(node)
    rset := make(map[hir.RefID]bool, len(refs))
    rstale := make(map[hir.RefID]bool, len(refs))
    for _, r := range refs {
        rset[r] = true
        rstale[r] = self.refStale(node, r, stale)
    }

    /* drop the edges owned by stale containers; edges with an endpoint
     * outside the subtree belong to some wider scope and are left alone */
    self.graph.sweep(func(e *Edge) bool {
        if fn.Ref(e.Src).Dead || fn.Ref(e.Sink).Dead {
            return false
        }
        if !rset[e.Src] || !rset[e.Sink] {
            return true
        }
        return !rstale[e.Src] && !rstale[e.Sink]
    })

    /* input DV of this build: enclosing levels are assumed EQ */
    in := new(DirectionVector)
    for l := 1; l < start; l++ {
        in.SetDirAt(EQ, l)
    }
    for l := start; l <= hir.MaxLoopNestLevel; l++ {
        in.SetDirAt(ALL, l)
    }

    /* past the cutoff the quadratic sweep is too expensive, degrade to
     * conservative edges without consulting the oracle */
    precise := self.opts.CanTestNest(len(refs))
    if !precise {
        klog.Warnf("hirdd: %d refs under node %d exceed the pair testing cutoff, conservative edges only", len(refs), node)
    }

    /* candidate pairs: lexical order, self-pairs included for stores (a
     * store can depend on itself across iterations) */
    np := 0
    for i := 0; i < len(refs); i++ {
        for j := i; j < len(refs); j++ {
            a, b := refs[i], refs[j]
            if i == j && !(fn.Ref(a).LVal && fn.Ref(a).Memory) {
                continue
            }
            if !rstale[a] && !rstale[b] {
                continue
            }
            if !self.edgeNeeded(a, b, wantInput) {
                continue
            }
            np++
            if precise {
                for _, e := range self.oracle.Test(fn, a, b, in, false) {
                    self.graph.AddEdge(e)
                }
            } else {
                self.graph.AddEdge(self.conservativeEdge(a, b, in))
            }
        }
    }

    /* the subtree is now uniformly valid at this scope */
    self.setValid(node, scope, wantInput, stale)
    for _, d := range fn.DescendantLoops(node) {
        self.setValid(d, scope, wantInput, stale)
    }
    self.trace("graph rebuilt: node %d, scope %d, %d refs, %d pairs tested, %d edges total", node, scope, len(refs), np, self.graph.NumEdges())
}

func (self *Analysis) refStale(root hir.NodeID, r hir.RefID, stale map[hir.NodeID]bool) bool {
    inloop := false
    for p := self.fn.Ref(r).Node; p != hir.NoNode; p = self.fn.Node(p).Parent {
        if self.fn.Node(p).Kind == hir.Loop {
            inloop = true
            if stale[p] {
                return true
            }
        }
        if p == root {
            break
        }
    }
    return !inloop && stale[root]
}

func (self *Analysis) setValid(node hir.NodeID, scope int, inputs bool, stale map[hir.NodeID]bool) {
    if nf, ok := self.vmap[node]; !stale[node] && ok && nf.state == Valid {
        return // already valid at an equal or wider scope, keep that record
    }
    self.vmap[node] = _NodeInfo{state: Valid, scope: int8(scope), inputs: inputs}
}

// edgeNeeded is the cheap pre-oracle pruning: dead refs, read/read pairs
// when inputs are not wanted, memory/scalar kind mismatches, and provably
// non-aliasing bases never reach the dependence test.
func (self *Analysis) edgeNeeded(a hir.RefID, b hir.RefID, wantInput bool) bool {
    ra, rb := self.fn.Ref(a), self.fn.Ref(b)
    switch {
        case ra.Dead || rb.Dead        : return false
        case !wantInput && !ra.LVal && !rb.LVal : return false
        case ra.Memory != rb.Memory    : return false
        case ra.Memory                 : return self.DoRefsAlias(a, b)
        default                        : return ra.SymBase == rb.SymBase
    }
}

// conservativeEdge produces the soundness fallback: a single edge admitting
// every direction permitted by the input DV.
func (self *Analysis) conservativeEdge(a hir.RefID, b hir.RefID, in *DirectionVector) Edge {
    e := Edge{Src: a, Sink: b}
    depth := self.fn.CommonDepth(self.fn.Ref(a).Node, self.fn.Ref(b).Node)
    for l := 1; l <= depth; l++ {
        if d := in.DirAt(l); d == UNINIT {
            e.DV.SetDirAt(ALL, l)
        } else {
            e.DV.SetDirAt(d, l)
        }
    }
    return e
}

/** Alias Queries **/

// DoRefsAlias asks the alias oracle whether the bases of two memory refs may
// overlap. Both arguments must be memory references.
func (self *Analysis) DoRefsAlias(a hir.RefID, b hir.RefID) bool {
    if !self.fn.Ref(a).Memory || !self.fn.Ref(b).Memory {
        panic("hirdd: doRefsAlias on a non-memory reference")
    }
    return self.alias.MayAlias(self.fn, a, b)
}

/** Lifecycle **/

// ReleaseMemory drops the graph and the validity map. Must be called
// between per-function runs; every outstanding view goes stale.
func (self *Analysis) ReleaseMemory() {
    self.graph.Clear()
    self.vmap = make(map[hir.NodeID]_NodeInfo)
    self.stats.ReleaseMemory()
}

/** Debugging **/

// Print dumps the full function graph and the validity map.
func (self *Analysis) Print(w io.Writer) {
    fmt.Fprintf(w, "DD graph for %s (%d edges, epoch %d)\n", self.fn.Name, self.graph.NumEdges(), self.graph.Epoch())
    self.graph.Print(w, self.fn)
    for id := hir.NodeID(0); int(id) < self.fn.NumNodes(); id++ {
        if nf, ok := self.vmap[id]; ok {
            fmt.Fprintf(w, "  node %d: %s, scope %d\n", id, nf.state, nf.scope)
        }
    }
}

func (self *Analysis) trace(msg string, args ...interface{}) {
    if opts.DebugDD {
        klog.Debugf("hirdd: " + msg, args...)
    }
}
