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

// MaxLoopNestLevel is the deepest loop nesting the HIR can represent.
// Nests deeper than this are not brought into HIR form in the first place.
const MaxLoopNestLevel = 9

type (
    NodeID int32
    RefID  int32
)

const (
    NoNode NodeID = -1
    NoRef  RefID  = -1
)

// Kind discriminates the node payload. HIR trees are structured: loops and
// regions own lexically ordered children, everything else is a statement.
type Kind uint8

const (
    Region Kind = iota + 1
    Loop
    If
    Switch
    Inst
    Label
    Goto
)

func (self Kind) String() string {
    switch self {
        case Region : return "region"
        case Loop   : return "loop"
        case If     : return "if"
        case Switch : return "switch"
        case Inst   : return "inst"
        case Label  : return "label"
        case Goto   : return "goto"
        default     : return "???"
    }
}
