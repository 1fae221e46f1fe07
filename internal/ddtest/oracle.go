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

// Package ddtest is the mathematical dependence-test collaborator of the
// dependence graph engine: classic direction-vector tests (ZIV, strong and
// weak-zero SIV, GCD for the rest) over canonical linear subscripts, plus
// the may-alias table lookup. Everything it cannot decide degrades to ALL,
// a missed refinement is fine, a missed dependence is not.
package ddtest

import (
    `github.com/cloudwego/hirloop/internal/dd`
    `github.com/cloudwego/hirloop/internal/hir`
)

// Oracle implements dd.Oracle and dd.AliasOracle over the HIR substrate.
type Oracle struct{}

// MayAlias consults the function's may-alias table; same symbase always
// aliases.
func (self Oracle) MayAlias(fn *hir.Function, a hir.RefID, b hir.RefID) bool {
    return fn.MayAlias(fn.Ref(a).SymBase, fn.Ref(b).SymBase)
}

// Test runs the dependence test for one candidate pair under the input
// direction-vector constraint. See dd.Oracle for the contract.
func (self Oracle) Test(fn *hir.Function, src hir.RefID, dst hir.RefID, in *dd.DirectionVector, forFusion bool) []dd.Edge {
    ra, rb := fn.Ref(src), fn.Ref(dst)
    switch {
        case ra.Dead || rb.Dead      : return nil
        case ra.Memory != rb.Memory  : return nil
        case ra.Memory               : return self.testMemory(fn, src, dst, in, forFusion)
        default                      : return self.testTemps(fn, src, dst, in)
    }
}

/** Scalar Temps **/

// testTemps handles terminal (scalar temp) refs: a lexically forward
// def-use pair carries the loop-independent flow dependence, a def-def pair
// the all-directions output dependence. Anything else produces no edge.
func (self Oracle) testTemps(fn *hir.Function, src hir.RefID, dst hir.RefID, in *dd.DirectionVector) []dd.Edge {
    ra, rb := fn.Ref(src), fn.Ref(dst)
    if ra.SymBase != rb.SymBase {
        return nil
    }

    /* orient the pair lexically */
    f, s := src, dst
    if after(fn, src, dst) {
        f, s = dst, src
    }
    rf, rs := fn.Ref(f), fn.Ref(s)
    depth := fn.CommonDepth(rf.Node, rs.Node)

    switch {
        case rf.LVal && rs.LVal:
            /* def-def: carried at any level the input admits */
            e := dd.Edge{Src: f, Sink: s}
            for l := 1; l <= depth; l++ {
                e.DV.SetDirAt(inDirAt(in, l), l)
            }
            return []dd.Edge{e}

        case rf.LVal && !rs.LVal:
            /* forward def-use: the loop-independent flow edge */
            e := dd.Edge{Src: f, Sink: s}
            for l := 1; l <= depth; l++ {
                if inDirAt(in, l) & dd.EQ == 0 {
                    return nil // same-iteration flow excluded by the constraint
                }
                e.DV.SetDirAt(dd.EQ, l)
                e.Dist.SetDistAt(0, l)
            }
            return []dd.Edge{e}

        default:
            return nil
    }
}

/** Memory Refs **/

func (self Oracle) testMemory(fn *hir.Function, src hir.RefID, dst hir.RefID, in *dd.DirectionVector, forFusion bool) []dd.Edge {
    ra, rb := fn.Ref(src), fn.Ref(dst)
    depth := commonDepth(fn, ra, rb, forFusion)

    /* distinct bases: either provably disjoint or fully conservative */
    if ra.SymBase != rb.SymBase {
        if !fn.MayAlias(ra.SymBase, rb.SymBase) {
            return nil
        }
        return []dd.Edge{conservative(fn, src, dst, in, depth)}
    }
    if len(ra.Subs) != len(rb.Subs) {
        return []dd.Edge{conservative(fn, src, dst, in, depth)}
    }

    /* start from the input constraint, intersect per dimension */
    var res [hir.MaxLoopNestLevel + 1]dd.Direction
    var dist [hir.MaxLoopNestLevel + 1]int64
    var dKnown [hir.MaxLoopNestLevel + 1]bool
    for l := 1; l <= depth; l++ {
        res[l] = inDirAt(in, l)
    }

    for d := range ra.Subs {
        if !self.testDim(fn, ra, rb, d, in, forFusion, depth, &res, &dist, &dKnown) {
            return nil // some dimension is provably disjoint
        }
    }

    /* a store depending on itself in the same iteration is no dependence */
    if src == dst {
        triv := true
        for l := 1; l <= depth; l++ {
            if res[l] != dd.EQ {
                triv = false
                break
            }
        }
        if triv {
            return nil
        }
    }

    /* materialize the edge */
    e := dd.Edge{Src: src, Sink: dst}
    for l := 1; l <= depth; l++ {
        e.DV.SetDirAt(res[l], l)
        if dKnown[l] {
            e.Dist.SetDistAt(dist[l], l)
        } else if res[l] == dd.EQ {
            e.Dist.SetDistAt(0, l)
        }
    }
    return []dd.Edge{normalize(fn, e, depth)}
}

// testDim intersects one subscript dimension's constraint into res. A false
// return means the dimension proves the pair independent under the input
// constraint.
func (self Oracle) testDim(fn *hir.Function, ra *hir.Ref, rb *hir.Ref, d int, in *dd.DirectionVector, forFusion bool, depth int, res *[hir.MaxLoopNestLevel + 1]dd.Direction, dist *[hir.MaxLoopNestLevel + 1]int64, dKnown *[hir.MaxLoopNestLevel + 1]bool) bool {
    sa, sb := ra.Subs[d], rb.Subs[d]

    /* a one-sided or differing symbolic term makes the dimension opaque,
     * identical terms cancel */
    if sa.Blob != sb.Blob {
        return true
    }

    /* IVs private to one side (deeper than the common nest) are opaque */
    for l := depth + 1; l <= hir.MaxLoopNestLevel; l++ {
        if sa.CoefAt(l) != 0 || sb.CoefAt(l) != 0 {
            return true
        }
    }

    /* sa(i) = sb(i')  =>  sum(ca*i - cb*i') = K */
    k := sb.Const - sa.Const
    var free []int
    for l := 1; l <= depth; l++ {
        ca, cb := sa.CoefAt(l), sb.CoefAt(l)
        if in.DirAt(l) == dd.EQ {
            if ca != cb {
                return true // pinned level with unequal strides, opaque
            }
        } else if ca != 0 || cb != 0 {
            free = append(free, l)
        }
    }

    switch len(free) {
        case 0:
            /* ZIV */
            return k == 0

        case 1:
            l := free[0]
            ca, cb := sa.CoefAt(l), sb.CoefAt(l)
            switch {
                case ca == cb:
                    return strongSIV(fn, ra, rb, forFusion, l, ca, k, res, dist, dKnown)
                case ca == 0:
                    return crossingInRange(fn, ra, rb, forFusion, l, -k, cb)
                case cb == 0:
                    return crossingInRange(fn, ra, rb, forFusion, l, k, ca)
                default:
                    return k % gcd(ca, cb) == 0
            }

        default:
            /* MIV: GCD divisibility over all free coefficients */
            g := int64(0)
            for _, l := range free {
                g = gcd(g, gcd(sa.CoefAt(l), sb.CoefAt(l)))
            }
            return k % g == 0
    }
}

// strongSIV resolves the classic equal-coefficient case to an exact
// direction and distance at level l, with the trip-range independence check.
func strongSIV(fn *hir.Function, ra *hir.Ref, rb *hir.Ref, forFusion bool, l int, c int64, k int64, res *[hir.MaxLoopNestLevel + 1]dd.Direction, dist *[hir.MaxLoopNestLevel + 1]int64, dKnown *[hir.MaxLoopNestLevel + 1]bool) bool {
    if k % c != 0 {
        return false
    }
    vd := -k / c // IV-value distance, sink iteration minus source iteration

    /* with constant bounds the distance must fit the trip range */
    if lo, hi, step, ok := loopRange(fn, ra, rb, forFusion, l); ok {
        if vd % step != 0 {
            return false
        }
        if span := hi - lo; vd > span || vd < -span {
            return false
        }
        vd /= step
    }

    dir := dd.EQ
    if vd > 0 {
        dir = dd.LT
    } else if vd < 0 {
        dir = dd.GT
    }
    if res[l] &= dir; res[l] == dd.UNINIT {
        return false // the input constraint excludes the only direction left
    }
    if dKnown[l] && dist[l] != vd {
        return false // another dimension demands a different distance
    }
    dist[l], dKnown[l] = vd, true
    return true
}

// crossingInRange handles the weak-zero SIV case: one side is invariant at
// level l, the dependence exists only at the single crossing iteration
// c*i = k, which constant bounds may rule out.
func crossingInRange(fn *hir.Function, ra *hir.Ref, rb *hir.Ref, forFusion bool, l int, k int64, c int64) bool {
    if k % c != 0 {
        return false
    }
    v := k / c
    if lo, hi, step, ok := loopRange(fn, ra, rb, forFusion, l); ok {
        if v < lo || v > hi || (v - lo) % step != 0 {
            return false
        }
    }
    return true // in range: every iteration may meet the crossing, no narrowing
}

/** Helpers **/

func commonDepth(fn *hir.Function, ra *hir.Ref, rb *hir.Ref, forFusion bool) int {
    if !forFusion {
        return fn.CommonDepth(ra.Node, rb.Node)
    }
    da, db := fn.LoopDepth(ra.Node), fn.LoopDepth(rb.Node)
    if db < da {
        da = db
    }
    return da
}

// loopRange fetches constant loop bounds for level l, preferring the source
// side's nest (under fusion the two sides run distinct loops).
func loopRange(fn *hir.Function, ra *hir.Ref, rb *hir.Ref, forFusion bool, l int) (int64, int64, int64, bool) {
    loop := fn.LoopAtLevel(ra.Node, l)
    if loop == hir.NoNode && forFusion {
        loop = fn.LoopAtLevel(rb.Node, l)
    }
    if loop == hir.NoNode {
        return 0, 0, 0, false
    }
    pp := fn.Node(loop)
    if !pp.Lower.IsConst() || !pp.Upper.IsConst() || !pp.Stride.IsConst() || pp.Stride.Const <= 0 {
        return 0, 0, 0, false
    }
    return pp.Lower.Const, pp.Upper.Const, pp.Stride.Const, true
}

func inDirAt(in *dd.DirectionVector, l int) dd.Direction {
    if d := in.DirAt(l); d != dd.UNINIT {
        return d
    }
    return dd.ALL
}

func conservative(fn *hir.Function, src hir.RefID, dst hir.RefID, in *dd.DirectionVector, depth int) dd.Edge {
    e := dd.Edge{Src: src, Sink: dst}
    for l := 1; l <= depth; l++ {
        e.DV.SetDirAt(inDirAt(in, l), l)
    }
    return normalize(fn, e, depth)
}

// normalize enforces the storage convention: the leading non-EQ direction
// must admit LT, otherwise the edge is flipped (directions reversed,
// distances negated). Loop-independent edges are oriented lexically forward.
func normalize(fn *hir.Function, e dd.Edge, depth int) dd.Edge {
    for l := 1; l <= depth; l++ {
        switch d := e.DV.DirAt(l); {
            case d == dd.EQ:
                continue
            case d & dd.LT == 0:
                return flip(e)
            default:
                return e
        }
    }
    if after(fn, e.Src, e.Sink) {
        return flip(e)
    }
    return e
}

func flip(e dd.Edge) dd.Edge {
    e.Src, e.Sink = e.Sink, e.Src
    e.DV.Reverse()
    e.Dist.Negate()
    return e
}

// after checks whether ref a lexically follows ref b.
func after(fn *hir.Function, a hir.RefID, b hir.RefID) bool {
    na, nb := fn.Node(fn.Ref(a).Node).TopNo, fn.Node(fn.Ref(b).Node).TopNo
    return na > nb || (na == nb && a > b)
}

func gcd(a int64, b int64) int64 {
    if a < 0 { a = -a }
    if b < 0 { b = -b }
    for b != 0 {
        a, b = b, a % b
    }
    return a
}
