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
    `fmt`
)

// Function owns the node and ref arenas for one function's HIR and acts as
// the function-scoped registry the analyses hang off of. Structural mutators
// keep the lexical pre-order numbers (TopNo) up to date; they do NOT notify
// any analysis, the mutating client owes the appropriate markXModified call.
type Function struct {
    Name  string
    nodes []Node
    refs  []Ref
    roots []NodeID
    alias map[[2]int32]bool
}

func NewFunction(name string) *Function {
    return &Function{
        Name:  name,
        alias: make(map[[2]int32]bool),
    }
}

/** Arena Access **/

func (self *Function) Node(id NodeID) *Node {
    if id < 0 || int(id) >= len(self.nodes) {
        panic(fmt.Sprintf("hir: invalid node id: %d", id))
    }
    return &self.nodes[id]
}

func (self *Function) Ref(id RefID) *Ref {
    if id < 0 || int(id) >= len(self.refs) {
        panic(fmt.Sprintf("hir: invalid ref id: %d", id))
    }
    return &self.refs[id]
}

func (self *Function) Roots() []NodeID {
    return self.roots
}

func (self *Function) NumNodes() int { return len(self.nodes) }
func (self *Function) NumRefs() int  { return len(self.refs) }

/** Tree Construction **/

func (self *Function) NewRegion() NodeID {
    id := self.newNode(Region, NoNode)
    self.roots = append(self.roots, id)
    self.renumber()
    return id
}

// NewLoop appends a loop under parent, its nesting level is derived from the
// enclosing loop chain.
func (self *Function) NewLoop(parent NodeID, lower Expr, upper Expr, stride Expr) NodeID {
    lv := self.LoopDepth(parent) + 1
    if lv > MaxLoopNestLevel {
        panic(fmt.Sprintf("hir: loop nest deeper than %d levels", MaxLoopNestLevel))
    }
    id := self.newNode(Loop, parent)
    pp := self.Node(id)
    pp.Level = int8(lv)
    pp.Lower, pp.Upper, pp.Stride = lower, upper, stride
    self.renumber()
    return id
}

func (self *Function) NewInst(parent NodeID, call bool) NodeID {
    id := self.newNode(Inst, parent)
    self.Node(id).IsCall = call
    self.renumber()
    return id
}

func (self *Function) NewIf(parent NodeID) NodeID     { return self.newStmt(If, parent) }
func (self *Function) NewSwitch(parent NodeID) NodeID { return self.newStmt(Switch, parent) }
func (self *Function) NewLabel(parent NodeID) NodeID  { return self.newStmt(Label, parent) }
func (self *Function) NewGoto(parent NodeID) NodeID   { return self.newStmt(Goto, parent) }

func (self *Function) newStmt(k Kind, parent NodeID) NodeID {
    id := self.newNode(k, parent)
    self.renumber()
    return id
}

func (self *Function) newNode(k Kind, parent NodeID) NodeID {
    id := NodeID(len(self.nodes))
    self.nodes = append(self.nodes, Node{ID: id, Kind: k, Parent: parent})
    if parent != NoNode {
        pp := self.Node(parent)
        switch pp.Kind {
            case Region, Loop, If, Switch : pp.Children = append(pp.Children, id)
            default                       : panic(fmt.Sprintf("hir: %s node cannot own children", pp.Kind))
        }
    }
    return id
}

// NewMemRef attaches a memory reference (one Subs entry per array dimension)
// to a statement.
func (self *Function) NewMemRef(inst NodeID, symbase int32, lval bool, subs ...Expr) RefID {
    if self.Node(inst).Kind != Inst {
        panic("hir: refs can only be attached to inst nodes")
    }
    id := RefID(len(self.refs))
    ss := make([]Expr, len(subs))
    copy(ss, subs)
    self.refs = append(self.refs, Ref{ID: id, Node: inst, SymBase: symbase, LVal: lval, Memory: true, Subs: ss})
    self.Node(inst).Refs = append(self.Node(inst).Refs, id)
    return id
}

// NewTempRef attaches a scalar temp reference (a terminal ref).
func (self *Function) NewTempRef(inst NodeID, symbase int32, lval bool) RefID {
    if self.Node(inst).Kind != Inst {
        panic("hir: refs can only be attached to inst nodes")
    }
    id := RefID(len(self.refs))
    self.refs = append(self.refs, Ref{ID: id, Node: inst, SymBase: symbase, LVal: lval})
    self.Node(inst).Refs = append(self.Node(inst).Refs, id)
    return id
}

// NewBlobRef attaches an rvalue scalar sub-ref to ref, representing a temp
// folded into one of its subscripts. Blob refs participate in the dependence
// graph like ordinary terminal refs.
func (self *Function) NewBlobRef(ref RefID, symbase int32) RefID {
    rr := self.Ref(ref)
    id := RefID(len(self.refs))
    self.refs = append(self.refs, Ref{ID: id, Node: rr.Node, SymBase: symbase})
    self.Ref(ref).Blobs = append(self.Ref(ref).Blobs, id)
    return id
}

/** Tree Mutation **/

// RemoveInst tombstones a statement and its refs. The arena slot survives so
// outstanding RefIDs stay in range (they read as Dead).
func (self *Function) RemoveInst(inst NodeID) {
    pp := self.Node(inst)
    if pp.Kind != Inst {
        panic("hir: RemoveInst on a non-inst node")
    }
    pp.Dead = true
    for _, r := range pp.Refs {
        self.Ref(r).Dead = true
        for _, b := range self.Ref(r).Blobs {
            self.Ref(b).Dead = true
        }
    }
    cc := self.Node(pp.Parent).Children
    for i, c := range cc {
        if c == inst {
            self.Node(pp.Parent).Children = append(cc[:i], cc[i + 1:]...)
            break
        }
    }
    self.renumber()
}

func (self *Function) SetLoopBounds(loop NodeID, lower Expr, upper Expr, stride Expr) {
    pp := self.Node(loop)
    if pp.Kind != Loop {
        panic("hir: SetLoopBounds on a non-loop node")
    }
    pp.Lower, pp.Upper, pp.Stride = lower, upper, stride
}

func (self *Function) ReplaceSubscript(ref RefID, dim int, e Expr) {
    rr := self.Ref(ref)
    if !rr.Memory || dim < 0 || dim >= len(rr.Subs) {
        panic("hir: invalid subscript replacement")
    }
    rr.Subs[dim] = e
}

/** Alias Table **/

// SetMayAlias registers that two distinct symbases may refer to overlapping
// storage (e.g. two formal array parameters).
func (self *Function) SetMayAlias(sa int32, sb int32) {
    if sa > sb {
        sa, sb = sb, sa
    }
    self.alias[[2]int32{sa, sb}] = true
}

func (self *Function) MayAlias(sa int32, sb int32) bool {
    if sa == sb {
        return true
    }
    if sa > sb {
        sa, sb = sb, sa
    }
    return self.alias[[2]int32{sa, sb}]
}

/** Tree Queries **/

// ParentLoop returns the nearest enclosing loop of id (excluding id itself),
// or NoNode.
func (self *Function) ParentLoop(id NodeID) NodeID {
    for p := self.Node(id).Parent; p != NoNode; p = self.Node(p).Parent {
        if self.Node(p).Kind == Loop {
            return p
        }
    }
    return NoNode
}

// EnclosingRegion walks up to the root region owning id.
func (self *Function) EnclosingRegion(id NodeID) NodeID {
    for p := id; p != NoNode; p = self.Node(p).Parent {
        if self.Node(p).Kind == Region {
            return p
        }
    }
    panic(fmt.Sprintf("hir: node %d is not attached to a region", id))
}

// Contains checks whether node lies in the subtree rooted at ancestor
// (inclusive).
func (self *Function) Contains(ancestor NodeID, node NodeID) bool {
    for p := node; p != NoNode; p = self.Node(p).Parent {
        if p == ancestor {
            return true
        }
    }
    return false
}

// IsInnermost checks that a loop contains no nested loops.
func (self *Function) IsInnermost(loop NodeID) bool {
    return len(self.DescendantLoops(loop)) == 0
}

// LoopAtLevel returns the enclosing loop of node at the given 1-based level
// (node itself when it is that loop), or NoNode when node is not nested that
// deep.
func (self *Function) LoopAtLevel(node NodeID, level int) NodeID {
    for p := node; p != NoNode; p = self.Node(p).Parent {
        if pp := self.Node(p); pp.Kind == Loop && int(pp.Level) == level {
            return p
        }
    }
    return NoNode
}

// CommonDepth returns the number of loops enclosing both a and b, i.e. the
// deepest level at which the two nodes still share a loop.
func (self *Function) CommonDepth(a NodeID, b NodeID) int {
    ca := self.loopChain(a)
    cb := self.loopChain(b)
    n := len(ca)
    if len(cb) < n {
        n = len(cb)
    }
    d := 0
    for i := 0; i < n && ca[i] == cb[i]; i++ {
        d++
    }
    return d
}

// LoopDepth returns the number of loops enclosing node (counting node itself
// when it is a loop).
func (self *Function) LoopDepth(node NodeID) int {
    return len(self.loopChain(node))
}

// loopChain returns the enclosing loops of node outermost-first, including
// node itself if it is a loop.
func (self *Function) loopChain(node NodeID) []NodeID {
    var ch []NodeID
    for p := node; p != NoNode; p = self.Node(p).Parent {
        if self.Node(p).Kind == Loop {
            ch = append(ch, p)
        }
    }
    for i, j := 0, len(ch) - 1; i < j; i, j = i + 1, j - 1 {
        ch[i], ch[j] = ch[j], ch[i]
    }
    return ch
}

// ChildLoops collects the outermost loops strictly below node, in lexical
// order, without descending into them.
func (self *Function) ChildLoops(node NodeID) []NodeID {
    var ret []NodeID
    var walk func(NodeID)
    walk = func(id NodeID) {
        for _, c := range self.Node(id).Children {
            switch pp := self.Node(c); {
                case pp.Dead           : continue
                case pp.Kind == Loop   : ret = append(ret, c)
                default                : walk(c)
            }
        }
    }
    walk(node)
    return ret
}

// DescendantLoops collects all loops strictly below node, in lexical order.
func (self *Function) DescendantLoops(node NodeID) []NodeID {
    var ret []NodeID
    self.walkChildren(node, func(id NodeID) {
        if self.Node(id).Kind == Loop {
            ret = append(ret, id)
        }
    })
    return ret
}

// RefsUnder collects every live ref in the subtree rooted at node, in
// lexical order, blob sub-refs trailing their owner.
func (self *Function) RefsUnder(node NodeID) []RefID {
    var ret []RefID
    walk := func(id NodeID) {
        pp := self.Node(id)
        if pp.Kind != Inst || pp.Dead {
            return
        }
        for _, r := range pp.Refs {
            if rr := self.Ref(r); !rr.Dead {
                ret = append(ret, r)
                for _, b := range rr.Blobs {
                    if !self.Ref(b).Dead {
                        ret = append(ret, b)
                    }
                }
            }
        }
    }
    if self.Node(node).Kind == Inst {
        walk(node)
    } else {
        self.walkChildren(node, walk)
    }
    return ret
}

// walkChildren visits the subtree below node in lexical pre-order,
// snapshotting each child list before descending so the visitor observes a
// consistent tree even if it mutates siblings.
func (self *Function) walkChildren(node NodeID, fn func(NodeID)) {
    cc := make([]NodeID, len(self.Node(node).Children))
    copy(cc, self.Node(node).Children)
    for _, c := range cc {
        if self.Node(c).Dead {
            continue
        }
        fn(c)
        self.walkChildren(c, fn)
    }
}

/** Lexical Order **/

// renumber rebuilds the lexical pre-order numbers after any structural
// mutation. Functions are small enough that a full renumber beats tracking
// partial updates.
func (self *Function) renumber() {
    no := int32(0)
    var walk func(NodeID)
    walk = func(id NodeID) {
        self.Node(id).TopNo = no
        no++
        for _, c := range self.Node(id).Children {
            if !self.Node(c).Dead {
                walk(c)
            }
        }
    }
    for _, r := range self.roots {
        walk(r)
    }
}
