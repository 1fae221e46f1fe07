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

// Node is one HIR tree node, stored in the per-function arena and addressed
// by NodeID (which equals its arena index). Loops and regions carry children
// in lexical order; the loop bound fields are only meaningful for Kind ==
// Loop, the Refs / IsCall fields only for statement kinds.
type Node struct {
    ID       NodeID
    Kind     Kind
    Parent   NodeID
    Children []NodeID
    TopNo    int32
    Dead     bool

    /* loops only */
    Level  int8
    Lower  Expr
    Upper  Expr
    Stride Expr

    /* statements only */
    Refs   []RefID
    IsCall bool
}

// Ref is a memory or scalar access site, stored in the per-function ref
// arena. Removed refs are tombstoned (Dead flag), never deallocated, so a
// RefID stays a stable graph key for the lifetime of the function.
type Ref struct {
    ID      RefID
    Node    NodeID
    SymBase int32
    LVal    bool
    Memory  bool
    Dead    bool
    Subs    []Expr
    Blobs   []RefID
}

// IsTerminal checks for a scalar temp access, i.e. a ref with no subscript
// dimensions of its own (the "terminal" refs of the dependence graph).
func (self *Ref) IsTerminal() bool {
    return !self.Memory
}
