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

package hir

import (
    `testing`

    `github.com/stretchr/testify/require`
)

func TestFunction_Build(t *testing.T) {
    fn := NewFunction("build")
    rg := fn.NewRegion()
    l1 := fn.NewLoop(rg, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    l2 := fn.NewLoop(l1, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    s1 := fn.NewInst(l2, false)
    s2 := fn.NewInst(l1, false)
    require.Equal(t, int8(1), fn.Node(l1).Level)
    require.Equal(t, int8(2), fn.Node(l2).Level)
    require.True(t, fn.Contains(rg, s1))
    require.True(t, fn.Contains(l1, s1))
    require.False(t, fn.Contains(l2, s2))
    require.Equal(t, 2, fn.CommonDepth(s1, s1))
    require.Equal(t, 1, fn.CommonDepth(s1, s2))
    require.Equal(t, rg, fn.EnclosingRegion(s1))
    require.Equal(t, l1, fn.ParentLoop(l2))
    require.Equal(t, NoNode, fn.ParentLoop(rg))
    require.False(t, fn.IsInnermost(l1))
    require.True(t, fn.IsInnermost(l2))
    require.Equal(t, l1, fn.LoopAtLevel(s1, 1))
    require.Equal(t, l2, fn.LoopAtLevel(s1, 2))
    require.Equal(t, NoNode, fn.LoopAtLevel(s2, 2))
}

func TestFunction_LexicalOrder(t *testing.T) {
    fn := NewFunction("lexical")
    rg := fn.NewRegion()
    s0 := fn.NewInst(rg, false)
    l1 := fn.NewLoop(rg, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    s1 := fn.NewInst(l1, false)
    s2 := fn.NewInst(l1, false)
    require.Less(t, fn.Node(s0).TopNo, fn.Node(l1).TopNo)
    require.Less(t, fn.Node(s1).TopNo, fn.Node(s2).TopNo)

    /* refs come back in lexical order, blobs trailing their owner */
    r0 := fn.NewMemRef(s1, 7, true, IVExpr(1, 1, 0))
    rb := fn.NewBlobRef(r0, 42)
    r1 := fn.NewMemRef(s2, 7, false, IVExpr(1, 1, 1))
    require.Equal(t, []RefID{r0, rb, r1}, fn.RefsUnder(l1))
    require.Equal(t, []RefID{r0, rb, r1}, fn.RefsUnder(rg))

    /* removal tombstones, ids stay valid */
    fn.RemoveInst(s2)
    require.True(t, fn.Ref(r1).Dead)
    require.Equal(t, []RefID{r0, rb}, fn.RefsUnder(rg))
}

// loop levels follow the full enclosing chain, including a parent that is
// itself a loop and non-loop nodes in between
func TestFunction_LoopLevels(t *testing.T) {
    fn := NewFunction("levels")
    rg := fn.NewRegion()
    l1 := fn.NewLoop(rg, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    l2 := fn.NewLoop(l1, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    l3 := fn.NewLoop(l2, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    require.Equal(t, int8(1), fn.Node(l1).Level)
    require.Equal(t, int8(2), fn.Node(l2).Level)
    require.Equal(t, int8(3), fn.Node(l3).Level)
    require.Equal(t, 3, fn.LoopDepth(l3))

    /* a conditional between the loops does not reset the chain */
    gg := fn.NewIf(l3)
    l4 := fn.NewLoop(gg, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    require.Equal(t, int8(4), fn.Node(l4).Level)
    require.Equal(t, l4, fn.LoopAtLevel(l4, 4))

    /* ChildLoops stops at the first loop on each path down */
    require.Equal(t, []NodeID{l1}, fn.ChildLoops(rg))
    require.Equal(t, []NodeID{l2}, fn.ChildLoops(l1))
    require.Equal(t, []NodeID{l4}, fn.ChildLoops(l3))
    require.Empty(t, fn.ChildLoops(l4))
}

func TestFunction_DeepNestPanics(t *testing.T) {
    fn := NewFunction("deep")
    p := fn.NewRegion()
    for i := 0; i < MaxLoopNestLevel; i++ {
        p = fn.NewLoop(p, ConstExpr(0), ConstExpr(9), ConstExpr(1))
    }
    require.Panics(t, func() { fn.NewLoop(p, ConstExpr(0), ConstExpr(9), ConstExpr(1)) })
}

func TestFunction_Print(t *testing.T) {
    fn := NewFunction("print")
    rg := fn.NewRegion()
    l1 := fn.NewLoop(rg, ConstExpr(0), ConstExpr(99), ConstExpr(1))
    s1 := fn.NewInst(l1, false)
    fn.NewMemRef(s1, 3, true, IVExpr(1, 1, 0), IVExpr(2, 1, 4))
    fn.NewTempRef(s1, 9, false)
    out := fn.String()
    require.Contains(t, out, "DO i1 = 0, 99, 1")
    require.Contains(t, out, "a3[i1][4 + 2*i1] =")
    require.Contains(t, out, "t9")
}

func TestExpr_String(t *testing.T) {
    require.Equal(t, "5", ConstExpr(5).String())
    require.Equal(t, "0", ConstExpr(0).String())
    require.Equal(t, "i2", IVExpr(1, 2, 0).String())
    require.Equal(t, "7 + 3*i1", IVExpr(3, 1, 7).String())
    require.Equal(t, "i1 + t8", BlobExpr(IVExpr(1, 1, 0), 8).String())
    require.True(t, ConstExpr(1).IsConst())
    require.False(t, IVExpr(1, 1, 0).IsConst())
    require.False(t, BlobExpr(ConstExpr(0), 8).IsConst())
}
