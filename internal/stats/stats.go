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

package stats

import (
    `github.com/cloudwego/hirloop/internal/hir`
)

// Stats counts the constructs a transformation typically bails on. The
// "self" flavor covers a node's body excluding nested loops, the "total"
// flavor covers the entire subtree.
type Stats struct {
    Ifs      int
    Switches int
    Labels   int
    Gotos    int
    Calls    int
}

// HasUnstructuredFlow reports the presence of labels or gotos, which make
// lexical-order reasoning unsound.
func (self *Stats) HasUnstructuredFlow() bool {
    return self.Labels != 0 || self.Gotos != 0
}

// HasUnsafeSideEffects reports calls, whose memory behavior the dependence
// engine cannot see.
func (self *Stats) HasUnsafeSideEffects() bool {
    return self.Calls != 0
}

// Analysis lazily computes and caches per-node statistics. The cache is
// keyed the same way as the dependence validity map and must be invalidated
// alongside it whenever the tree changes shape.
type Analysis struct {
    fn    *hir.Function
    self_ map[hir.NodeID]*Stats
    total map[hir.NodeID]*Stats
}

func New(fn *hir.Function) *Analysis {
    return &Analysis{
        fn:    fn,
        self_: make(map[hir.NodeID]*Stats),
        total: make(map[hir.NodeID]*Stats),
    }
}

// SelfStats returns statistics for node's own body, not descending into
// nested loops.
func (self *Analysis) SelfStats(node hir.NodeID) *Stats {
    if st, ok := self.self_[node]; ok {
        return st
    }
    st := new(Stats)
    self.count(node, st, false)
    self.self_[node] = st
    return st
}

// TotalStats returns statistics for node's entire subtree.
func (self *Analysis) TotalStats(node hir.NodeID) *Stats {
    if st, ok := self.total[node]; ok {
        return st
    }
    st := new(Stats)
    self.count(node, st, true)
    self.total[node] = st
    return st
}

// Invalidate drops the cached statistics for node and every ancestor whose
// totals include it.
func (self *Analysis) Invalidate(node hir.NodeID) {
    for p := node; p != hir.NoNode; p = self.fn.Node(p).Parent {
        delete(self.self_, p)
        delete(self.total, p)
    }
}

func (self *Analysis) ReleaseMemory() {
    self.self_ = make(map[hir.NodeID]*Stats)
    self.total = make(map[hir.NodeID]*Stats)
}

func (self *Analysis) count(node hir.NodeID, st *Stats, deep bool) {
    for _, c := range self.fn.Node(node).Children {
        pp := self.fn.Node(c)
        if pp.Dead {
            continue
        }
        switch pp.Kind {
            case hir.If     : st.Ifs++
            case hir.Switch : st.Switches++
            case hir.Label  : st.Labels++
            case hir.Goto   : st.Gotos++
            case hir.Inst   : if pp.IsCall { st.Calls++ }
        }
        if pp.Kind != hir.Loop || deep {
            self.count(c, st, deep)
        }
    }
}

// Dominates conservatively decides whether statement a executes before
// statement b on every path through their common container. True only when
// a lexically precedes b, a is not buried under a conditional below the
// common ancestor, and the container has no unstructured flow.
func (self *Analysis) Dominates(a hir.NodeID, b hir.NodeID) bool {
    fn := self.fn
    if fn.Node(a).TopNo >= fn.Node(b).TopNo {
        return false
    }

    /* common ancestor of the two statements */
    lca := fn.Node(a).Parent
    for lca != hir.NoNode && !fn.Contains(lca, b) {
        lca = fn.Node(lca).Parent
    }
    if lca == hir.NoNode {
        return false
    }

    /* gotos or labels anywhere in the container defeat lexical reasoning */
    if self.TotalStats(lca).HasUnstructuredFlow() {
        return false
    }

    /* a must not sit under a conditional between itself and the ancestor */
    for p := fn.Node(a).Parent; p != lca; p = fn.Node(p).Parent {
        if k := fn.Node(p).Kind; k == hir.If || k == hir.Switch {
            return false
        }
    }
    return true
}
