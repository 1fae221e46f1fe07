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
)

// DepType classifies an edge by the lvalue roles of its endpoints.
type DepType uint8

const (
    FLOW DepType = iota
    ANTI
    OUTPUT
    INPUT
)

func (self DepType) String() string {
    switch self {
        case FLOW   : return "flow"
        case ANTI   : return "anti"
        case OUTPUT : return "output"
        case INPUT  : return "input"
        default     : return "???"
    }
}

// Edge is one dependence between two references. Edges are value types: the
// owning graph copies each edge into both adjacency lists, nothing is shared.
type Edge struct {
    Src  hir.RefID
    Sink hir.RefID
    DV   DirectionVector
    Dist DistanceVector
}

// Type derives the dependence kind from the endpoints' current lvalue roles.
// It is recomputed on every call, nothing is cached: if a transformation
// changes a ref's role, the edge follows.
func (self *Edge) Type(fn *hir.Function) DepType {
    sl := fn.Ref(self.Src).LVal
    kl := fn.Ref(self.Sink).LVal
    switch {
        case sl && kl   : return OUTPUT
        case sl && !kl  : return FLOW
        case !sl && kl  : return ANTI
        default         : return INPUT
    }
}

// IsLoopIndependent checks that the dependence can occur within a single
// iteration of every loop enclosing both endpoints down to depth.
func (self *Edge) IsLoopIndependent(depth int) bool {
    for l := 1; l <= depth; l++ {
        if d := self.DV.DirAt(l); d != UNINIT && d & EQ == 0 {
            return false
        }
    }
    return true
}

// CarryingLevel returns the shallowest level whose direction excludes EQ,
// i.e. the loop that carries this dependence, or 0 for a loop-independent
// edge.
func (self *Edge) CarryingLevel() int {
    for l := 1; l <= hir.MaxLoopNestLevel; l++ {
        switch d := self.DV.DirAt(l); {
            case d == UNINIT     : return 0
            case d & EQ == 0     : return l
        }
    }
    return 0
}

func (self *Edge) String(fn *hir.Function) string {
    return fmt.Sprintf("%s --%s %s--> %s", fn.RefString(self.Src), self.Type(fn), self.DV.String(), fn.RefString(self.Sink))
}
