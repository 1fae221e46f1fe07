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

    `github.com/cloudwego/hirloop/internal/hir`
    `github.com/cloudwego/hirloop/internal/stats`
    `github.com/davecgh/go-spew/spew`
)

// MismatchError reports a divergence between the incrementally maintained
// graph and a from-scratch rebuild, with spew dumps of both edge sets.
type MismatchError struct {
    Node   hir.NodeID
    Expect string
    Actual string
}

func (self *MismatchError) Error() string {
    return fmt.Sprintf(
        "hirdd: dependence graph mismatch at node %d\n--- expected (scratch rebuild) ---\n%s--- actual (incremental) ---\n%s",
        self.Node, self.Expect, self.Actual,
    )
}

// Verify checks the incrementally maintained graph against a from-scratch
// analysis at the scopes the configured verify level selects. Meant for
// debugging invalidation bugs: a client that forgot a markXModified call
// eventually shows up here as a mismatch.
//
// At region scope the two edge multisets must match exactly. At loop scopes
// the scratch build is tested under a narrower (outer levels pinned EQ)
// constraint and can be strictly more precise, so there the check is
// one-sided: every scratch edge must be covered by a visible incremental
// edge at least as wide.
func (self *Analysis) Verify() error {
    level := self.opts.VerifyLevel
    if level == 0 {
        level = 1
    }
    for _, root := range self.fn.Roots() {
        for _, node := range self.verifyNodes(root, level) {
            if err := self.verifyNode(node); err != nil {
                return err
            }
        }
    }
    return nil
}

// verifyNodes selects the comparison scopes: level 1 means the whole
// region, deeper levels the loops at that level, -1 the innermost loops.
func (self *Analysis) verifyNodes(root hir.NodeID, level int) []hir.NodeID {
    if level == 1 {
        return []hir.NodeID{root}
    }
    var ret []hir.NodeID
    for _, d := range self.fn.DescendantLoops(root) {
        if level == -1 {
            if self.fn.IsInnermost(d) {
                ret = append(ret, d)
            }
        } else if int(self.fn.Node(d).Level) == level {
            ret = append(ret, d)
        }
    }
    return ret
}

func (self *Analysis) verifyNode(node hir.NodeID) error {
    /* bring the incremental graph up to date for this scope first */
    actual := self.GetGraph(node, false).Edges()

    /* scratch analysis over the same function and collaborators */
    scratch := NewAnalysis(self.fn, self.oracle, self.alias, stats.New(self.fn), self.opts)
    expect := scratch.GetGraph(node, false).Edges()

    var ok bool
    if self.fn.Node(node).Kind == hir.Region {
        ok = sameCounts(edgeCounts(expect), edgeCounts(actual))
    } else {
        ok = covered(expect, actual)
    }
    if !ok {
        spew.Config.SortKeys = true
        return &MismatchError{
            Node:   node,
            Expect: spew.Sdump(edgeCounts(expect)),
            Actual: spew.Sdump(edgeCounts(actual)),
        }
    }
    return nil
}

// edgeCounts keys each edge by a stable textual form; counts make the
// comparison a multiset one.
func edgeCounts(ee []Edge) map[string]int {
    ret := make(map[string]int)
    for i := range ee {
        k := fmt.Sprintf("%d->%d %s %s", ee[i].Src, ee[i].Sink, ee[i].DV.String(), ee[i].Dist.String())
        ret[k]++
    }
    return ret
}

func sameCounts(a map[string]int, b map[string]int) bool {
    if len(a) != len(b) {
        return false
    }
    for k, n := range a {
        if b[k] != n {
            return false
        }
    }
    return true
}

// covered checks that every expected edge is subsumed by some actual edge
// over the same pair (in either orientation), direction-wise per level.
func covered(expect []Edge, actual []Edge) bool {
    for i := range expect {
        if !subsumed(&expect[i], actual) {
            return false
        }
    }
    return true
}

func subsumed(e *Edge, actual []Edge) bool {
    for i := range actual {
        a := actual[i]
        if a.Src == e.Sink && a.Sink == e.Src {
            a.DV.Reverse()
            a.Src, a.Sink = a.Sink, a.Src
        }
        if a.Src != e.Src || a.Sink != e.Sink {
            continue
        }
        wide := true
        for l := 1; l <= hir.MaxLoopNestLevel; l++ {
            d := e.DV.DirAt(l)
            if d != UNINIT && a.DV.DirAt(l) & d != d {
                wide = false
                break
            }
        }
        if wide {
            return true
        }
    }
    return false
}
