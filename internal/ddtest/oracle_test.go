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

package ddtest

import (
    `testing`

    `github.com/cloudwego/hirloop/internal/dd`
    `github.com/cloudwego/hirloop/internal/hir`
    `github.com/stretchr/testify/require`
)

// one level-1 loop over [0, 99] with two statements
func loop1(t *testing.T) (*hir.Function, hir.NodeID, hir.NodeID, hir.NodeID) {
    t.Helper()
    fn := hir.NewFunction(t.Name())
    rg := fn.NewRegion()
    l1 := fn.NewLoop(rg, hir.ConstExpr(0), hir.ConstExpr(99), hir.ConstExpr(1))
    s1 := fn.NewInst(l1, false)
    s2 := fn.NewInst(l1, false)
    return fn, l1, s1, s2
}

func freeDV() *dd.DirectionVector {
    return new(dd.DirectionVector) // UNINIT everywhere reads as unconstrained
}

func TestOracle_ZIV(t *testing.T) {
    fn, _, s1, s2 := loop1(t)
    w1 := fn.NewMemRef(s1, 1, true, hir.ConstExpr(3))
    w2 := fn.NewMemRef(s2, 1, true, hir.ConstExpr(4))
    require.Empty(t, Oracle{}.Test(fn, w1, w2, freeDV(), false))

    w3 := fn.NewMemRef(s2, 1, true, hir.ConstExpr(3))
    ee := Oracle{}.Test(fn, w1, w3, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, dd.ALL, ee[0].DV.DirAt(1))
}

func TestOracle_StrongSIV(t *testing.T) {
    fn, _, s1, s2 := loop1(t)
    w1 := fn.NewMemRef(s1, 1, true, hir.IVExpr(1, 1, 0))  // a[i] =
    r2 := fn.NewMemRef(s2, 1, false, hir.IVExpr(1, 1, -1)) // ... = a[i-1]
    ee := Oracle{}.Test(fn, w1, r2, freeDV(), false)
    require.Len(t, ee, 1)

    /* flow dependence carried with distance 1 */
    require.Equal(t, w1, ee[0].Src)
    require.Equal(t, r2, ee[0].Sink)
    require.Equal(t, dd.FLOW, ee[0].Type(fn))
    require.Equal(t, dd.LT, ee[0].DV.DirAt(1))
    d, ok := ee[0].Dist.DistAt(1)
    require.True(t, ok)
    require.Equal(t, int64(1), d)
}

// a distance beyond the constant trip range proves independence
func TestOracle_StrongSIV_TripRange(t *testing.T) {
    fn := hir.NewFunction("triprange")
    rg := fn.NewRegion()
    l1 := fn.NewLoop(rg, hir.ConstExpr(0), hir.ConstExpr(9), hir.ConstExpr(1))
    s1 := fn.NewInst(l1, false)
    s2 := fn.NewInst(l1, false)
    w1 := fn.NewMemRef(s1, 1, true, hir.IVExpr(1, 1, 0))
    r2 := fn.NewMemRef(s2, 1, false, hir.IVExpr(1, 1, -50))
    require.Empty(t, Oracle{}.Test(fn, w1, r2, freeDV(), false))

    /* a non-stride-multiple distance proves it too */
    fn.SetLoopBounds(l1, hir.ConstExpr(0), hir.ConstExpr(98), hir.ConstExpr(2))
    r3 := fn.NewMemRef(s2, 1, false, hir.IVExpr(1, 1, -3))
    require.Empty(t, Oracle{}.Test(fn, w1, r3, freeDV(), false))
}

func TestOracle_WeakZeroSIV(t *testing.T) {
    fn, l1, s1, s2 := loop1(t)
    w1 := fn.NewMemRef(s1, 1, true, hir.IVExpr(1, 1, 0)) // a[i] =
    w2 := fn.NewMemRef(s2, 1, true, hir.ConstExpr(4))    // a[4] =
    ee := Oracle{}.Test(fn, w1, w2, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, dd.ALL, ee[0].DV.DirAt(1))

    /* narrowing the loop past the crossing iteration kills the dependence */
    fn.SetLoopBounds(l1, hir.ConstExpr(5), hir.ConstExpr(99), hir.ConstExpr(1))
    require.Empty(t, Oracle{}.Test(fn, w1, w2, freeDV(), false))
}

func TestOracle_GCD(t *testing.T) {
    fn, _, s1, s2 := loop1(t)
    w1 := fn.NewMemRef(s1, 1, true, hir.IVExpr(2, 1, 0))  // a[2i] =
    r2 := fn.NewMemRef(s2, 1, false, hir.IVExpr(2, 1, 1)) // ... = a[2i+1]
    require.Empty(t, Oracle{}.Test(fn, w1, r2, freeDV(), false))

    r3 := fn.NewMemRef(s2, 1, false, hir.IVExpr(4, 1, 2)) // ... = a[4i+2]
    ee := Oracle{}.Test(fn, w1, r3, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, dd.ALL, ee[0].DV.DirAt(1))
}

// an unknown symbolic term on one side makes the dimension opaque, the same
// term on both sides cancels
func TestOracle_BlobTerms(t *testing.T) {
    fn, _, s1, s2 := loop1(t)
    w1 := fn.NewMemRef(s1, 1, true, hir.BlobExpr(hir.IVExpr(1, 1, 0), 77))
    r2 := fn.NewMemRef(s2, 1, false, hir.IVExpr(1, 1, 5))
    ee := Oracle{}.Test(fn, w1, r2, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, dd.ALL, ee[0].DV.DirAt(1))

    /* identical blob terms cancel, the dimension is a strong SIV again */
    r3 := fn.NewMemRef(s2, 1, false, hir.BlobExpr(hir.IVExpr(1, 1, 5), 77))
    ee = Oracle{}.Test(fn, w1, r3, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, r3, ee[0].Src)
    require.Equal(t, w1, ee[0].Sink)
    require.Equal(t, dd.LT, ee[0].DV.DirAt(1))
    d, ok := ee[0].Dist.DistAt(1)
    require.True(t, ok)
    require.Equal(t, int64(5), d)
}

// stored edges always lead with a direction admitting LT: a backward raw
// result comes back flipped
func TestOracle_Normalization(t *testing.T) {
    fn, _, s1, s2 := loop1(t)
    w1 := fn.NewMemRef(s1, 1, true, hir.IVExpr(1, 1, 0))  // a[i] =
    w2 := fn.NewMemRef(s2, 1, true, hir.IVExpr(1, 1, 1))  // a[i+1] =
    ee := Oracle{}.Test(fn, w1, w2, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, w2, ee[0].Src)
    require.Equal(t, w1, ee[0].Sink)
    require.Equal(t, dd.LT, ee[0].DV.DirAt(1))
    d, ok := ee[0].Dist.DistAt(1)
    require.True(t, ok)
    require.Equal(t, int64(1), d)
}

func TestOracle_DistinctBases(t *testing.T) {
    fn, _, s1, s2 := loop1(t)
    w1 := fn.NewMemRef(s1, 1, true, hir.IVExpr(1, 1, 0))
    w2 := fn.NewMemRef(s2, 2, true, hir.IVExpr(1, 1, 0))
    require.Empty(t, Oracle{}.Test(fn, w1, w2, freeDV(), false))

    /* registered may-alias pairs degrade to the conservative edge */
    fn.SetMayAlias(1, 2)
    ee := Oracle{}.Test(fn, w1, w2, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, dd.ALL, ee[0].DV.DirAt(1))
    require.True(t, Oracle{}.MayAlias(fn, w1, w2))
}

func TestOracle_ScalarTemps(t *testing.T) {
    fn, _, s1, s2 := loop1(t)
    def := fn.NewTempRef(s1, 30, true)
    use := fn.NewTempRef(s2, 30, false)

    /* forward def-use: the loop-independent flow edge */
    ee := Oracle{}.Test(fn, def, use, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, def, ee[0].Src)
    require.Equal(t, dd.FLOW, ee[0].Type(fn))
    require.Equal(t, dd.EQ, ee[0].DV.DirAt(1))

    /* def-def: output dependence at any direction */
    def2 := fn.NewTempRef(s2, 30, true)
    ee = Oracle{}.Test(fn, def, def2, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, dd.OUTPUT, ee[0].Type(fn))
    require.Equal(t, dd.ALL, ee[0].DV.DirAt(1))

    /* distinct temps never meet */
    other := fn.NewTempRef(s2, 31, false)
    require.Empty(t, Oracle{}.Test(fn, def, other, freeDV(), false))
}

// pinning a level EQ scopes the test to deeper levels only
func TestOracle_PinnedLevels(t *testing.T) {
    fn := hir.NewFunction("pinned")
    rg := fn.NewRegion()
    l1 := fn.NewLoop(rg, hir.ConstExpr(0), hir.ConstExpr(99), hir.ConstExpr(1))
    l2 := fn.NewLoop(l1, hir.ConstExpr(0), hir.ConstExpr(99), hir.ConstExpr(1))
    s1 := fn.NewInst(l2, false)
    s2 := fn.NewInst(l2, false)
    w1 := fn.NewMemRef(s1, 1, true, hir.IVExpr(1, 1, 0))  // a[i] =
    r2 := fn.NewMemRef(s2, 1, false, hir.IVExpr(1, 1, 1)) // ... = a[i+1]

    /* free at both levels: carried at level 1 */
    ee := Oracle{}.Test(fn, w1, r2, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, dd.LT, ee[0].DV.DirAt(1))

    /* level 1 pinned EQ: nothing can flow within one outer iteration */
    in := new(dd.DirectionVector)
    in.SetDirAt(dd.EQ, 1)
    in.SetDirAt(dd.ALL, 2)
    require.Empty(t, Oracle{}.Test(fn, w1, r2, in, false))
}

// fusion mode identifies the IVs of two sibling loop bodies positionally
func TestOracle_ForFusion(t *testing.T) {
    fn := hir.NewFunction("fusion")
    rg := fn.NewRegion()
    la := fn.NewLoop(rg, hir.ConstExpr(0), hir.ConstExpr(99), hir.ConstExpr(1))
    lb := fn.NewLoop(rg, hir.ConstExpr(0), hir.ConstExpr(99), hir.ConstExpr(1))
    sa := fn.NewInst(la, false)
    sb := fn.NewInst(lb, false)
    w := fn.NewMemRef(sa, 1, true, hir.IVExpr(1, 1, 0))  // a[i] =
    r := fn.NewMemRef(sb, 1, false, hir.IVExpr(1, 1, 0)) // ... = a[i]

    /* as siblings there is no common loop: a loop-independent edge */
    ee := Oracle{}.Test(fn, w, r, freeDV(), false)
    require.Len(t, ee, 1)
    require.Equal(t, 0, ee[0].DV.Deepest())

    /* fused, the dependence is same-iteration at level 1 */
    ee = Oracle{}.Test(fn, w, r, freeDV(), true)
    require.Len(t, ee, 1)
    require.Equal(t, dd.EQ, ee[0].DV.DirAt(1))
}
