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
    `io`
    `strings`
)

// Print dumps the HIR tree in an indented, numbered form:
//
//     <0> REGION
//     <1> + DO i1 = 0, 99, 1
//     <2> |   a[i1] = ...
func (self *Function) Print(w io.Writer) {
    fmt.Fprintf(w, "FUNCTION %s\n", self.Name)
    for _, r := range self.roots {
        self.printNode(w, r, 0)
    }
}

func (self *Function) String() string {
    var sb strings.Builder
    self.Print(&sb)
    return sb.String()
}

func (self *Function) printNode(w io.Writer, id NodeID, depth int) {
    pp := self.Node(id)
    if pp.Dead {
        return
    }
    ind := ""
    if depth > 0 {
        ind = strings.Repeat("|   ", depth - 1) + "+ "
    }
    fmt.Fprintf(w, "<%d> %s%s\n", pp.TopNo, ind, self.nodeText(pp))
    for _, c := range pp.Children {
        self.printNode(w, c, depth + 1)
    }
}

func (self *Function) nodeText(pp *Node) string {
    switch pp.Kind {
        case Region : return "REGION"
        case Loop   : return fmt.Sprintf("DO i%d = %s, %s, %s", pp.Level, pp.Lower, pp.Upper, pp.Stride)
        case If     : return "IF"
        case Switch : return "SWITCH"
        case Label  : return "LABEL"
        case Goto   : return "GOTO"
        case Inst   : return self.instText(pp)
        default     : return "???"
    }
}

func (self *Function) instText(pp *Node) string {
    var tt []string
    for _, r := range pp.Refs {
        if rr := self.Ref(r); !rr.Dead {
            tt = append(tt, self.RefString(r))
        }
    }
    kind := "INST"
    if pp.IsCall {
        kind = "CALL"
    }
    return fmt.Sprintf("%s %s", kind, strings.Join(tt, ", "))
}

// RefString renders one reference, lvalues marked with a trailing "=".
func (self *Function) RefString(id RefID) string {
    rr := self.Ref(id)
    sb := new(strings.Builder)
    if rr.Memory {
        fmt.Fprintf(sb, "a%d", rr.SymBase)
        for _, s := range rr.Subs {
            fmt.Fprintf(sb, "[%s]", s)
        }
    } else {
        fmt.Fprintf(sb, "t%d", rr.SymBase)
    }
    if rr.LVal {
        sb.WriteString(" =")
    }
    return sb.String()
}
