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
    `math/bits`
    `strings`

    `github.com/cloudwego/hirloop/internal/hir`
)

// Direction is a bitmask over the three elementary iteration orderings of a
// dependence at one nesting level. Unions encode partial knowledge, ALL
// means "anything is possible" and is the conservative fallback.
type Direction uint8

const (
    UNINIT Direction = 0
    GT     Direction = 0x1
    EQ     Direction = 0x2
    LT     Direction = 0x4
    GE     Direction = GT | EQ
    LG     Direction = GT | LT
    LE     Direction = EQ | LT
    ALL    Direction = GT | EQ | LT
)

func (self Direction) String() string {
    switch self {
        case GT  : return ">"
        case EQ  : return "="
        case GE  : return ">="
        case LT  : return "<"
        case LG  : return "<>"
        case LE  : return "<="
        case ALL : return "*"
        default  : return "?"
    }
}

// Reverse mirrors the direction, as seen from the other endpoint.
func (self Direction) Reverse() Direction {
    ret := self & EQ
    if self & GT != 0 { ret |= LT }
    if self & LT != 0 { ret |= GT }
    return ret
}

// IsSingular checks for an exact direction (exactly one elementary ordering
// remains possible).
func (self Direction) IsSingular() bool {
    return bits.OnesCount8(uint8(self)) == 1
}

// DirectionVector is the per-level qualitative dependence information of one
// edge. Levels are 1-based; levels beyond the deepest common nesting of the
// edge's endpoints stay UNINIT.
type DirectionVector struct {
    dv [hir.MaxLoopNestLevel]Direction
}

func (self *DirectionVector) DirAt(level int) Direction {
    checkLevel(level)
    return self.dv[level - 1]
}

func (self *DirectionVector) SetDirAt(dir Direction, level int) {
    checkLevel(level)
    self.dv[level - 1] = dir
}

// Deepest returns the deepest initialized level, 0 for an empty vector.
func (self *DirectionVector) Deepest() int {
    for i := hir.MaxLoopNestLevel; i > 0; i-- {
        if self.dv[i - 1] != UNINIT {
            return i
        }
    }
    return 0
}

// Reverse flips every level in place, converting a src-to-sink vector into
// the sink-to-src one.
func (self *DirectionVector) Reverse() {
    for i := range self.dv {
        self.dv[i] = self.dv[i].Reverse()
    }
}

func (self *DirectionVector) String() string {
    n := self.Deepest()
    tt := make([]string, 0, n)
    for i := 1; i <= n; i++ {
        tt = append(tt, self.dv[i - 1].String())
    }
    return "(" + strings.Join(tt, " ") + ")"
}

// DistanceVector carries the optional per-level iteration distances paired
// with a DirectionVector. A distance is only recorded when a dependence test
// established it exactly.
type DistanceVector struct {
    dist  [hir.MaxLoopNestLevel]int64
    known [hir.MaxLoopNestLevel]bool
}

func (self *DistanceVector) DistAt(level int) (int64, bool) {
    checkLevel(level)
    return self.dist[level - 1], self.known[level - 1]
}

func (self *DistanceVector) SetDistAt(dist int64, level int) {
    checkLevel(level)
    self.dist[level - 1] = dist
    self.known[level - 1] = true
}

// Negate flips the sign of every known distance, matching a reversed
// direction vector.
func (self *DistanceVector) Negate() {
    for i := range self.dist {
        self.dist[i] = -self.dist[i]
    }
}

func (self *DistanceVector) String() string {
    n := 0
    for i := hir.MaxLoopNestLevel; i > 0; i-- {
        if self.known[i - 1] {
            n = i
            break
        }
    }
    tt := make([]string, 0, n)
    for i := 0; i < n; i++ {
        if self.known[i] {
            tt = append(tt, fmt.Sprint(self.dist[i]))
        } else {
            tt = append(tt, "?")
        }
    }
    return "(" + strings.Join(tt, " ") + ")"
}

func checkLevel(level int) {
    if level < 1 || level > hir.MaxLoopNestLevel {
        panic(fmt.Sprintf("hirdd: loop nest level out of range: %d", level))
    }
}
