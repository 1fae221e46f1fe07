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

// RefinedDependence is the transient result of a demand-driven refinement.
// It is never stored in the graph; Independent is the terminal answer (no
// dependence at any tested level) and makes the vectors meaningless, callers
// must check it before reading them.
type RefinedDependence struct {
    dv          DirectionVector
    dist        DistanceVector
    refined     bool
    independent bool
}

func (self *RefinedDependence) IsRefined() bool     { return self.refined }
func (self *RefinedDependence) IsIndependent() bool { return self.independent }

func (self *RefinedDependence) GetDV() *DirectionVector {
    if self.independent {
        panic("hirdd: reading the DV of an independent refinement result")
    }
    return &self.dv
}

func (self *RefinedDependence) GetDistV() *DistanceVector {
    if self.independent {
        panic("hirdd: reading the distances of an independent refinement result")
    }
    return &self.dist
}

// IsRefinableDepAtLevel checks whether refining edge at level can possibly
// produce a stronger answer: a level already pinned to a single elementary
// direction, or not initialized at all, has nothing left to refine. Callers
// must consult this before paying for RefineDV.
func IsRefinableDepAtLevel(e *Edge, level int) bool {
    d := e.DV.DirAt(level)
    return d != UNINIT && !d.IsSingular()
}

// RefineDV re-runs the dependence test for the pair at a specific level
// range: levels shallower than startLevel are pinned EQ, levels startLevel
// through deepestLevel are left free. The coarse graph edge is deliberately
// not reused, a level-scoped test can be strictly stronger than anything
// derivable from it.
//
// The result is reported src-to-dst regardless of how the oracle normalized
// its edges.
func (self *Analysis) RefineDV(src hir.RefID, dst hir.RefID, startLevel int, deepestLevel int, forFusion bool) RefinedDependence {
    if startLevel < 1 || deepestLevel < startLevel || deepestLevel > hir.MaxLoopNestLevel {
        panic(fmt.Sprintf("hirdd: invalid refinement level range [%d, %d]", startLevel, deepestLevel))
    }

    /* level-scoped input vector */
    in := new(DirectionVector)
    for l := 1; l < startLevel; l++ {
        in.SetDirAt(EQ, l)
    }
    for l := startLevel; l <= deepestLevel; l++ {
        in.SetDirAt(ALL, l)
    }

    /* terminal state: the oracle proved independence under the constraint */
    ee := self.oracle.Test(self.fn, src, dst, in, forFusion)
    if len(ee) == 0 {
        self.trace("refine [%d, %d]: refs %d, %d independent", startLevel, deepestLevel, src, dst)
        return RefinedDependence{independent: true}
    }

    /* union the surviving dependences, reoriented src-to-dst */
    var ret RefinedDependence
    for i := range ee {
        dv, dist := ee[i].DV, ee[i].Dist
        if ee[i].Src != src {
            dv.Reverse()
            dist.Negate()
        }
        for l := 1; l <= hir.MaxLoopNestLevel; l++ {
            ret.dv.SetDirAt(ret.dv.DirAt(l) | dv.DirAt(l), l)
        }
        if i == 0 {
            ret.dist = dist
        } else {
            ret.dist.meet(&dist)
        }
    }

    /* refined iff some level of interest came back stronger than ALL */
    for l := startLevel; l <= deepestLevel; l++ {
        if d := ret.dv.DirAt(l); d != UNINIT && d != ALL {
            ret.refined = true
            break
        }
    }
    self.trace("refine [%d, %d]: refs %d, %d -> %s", startLevel, deepestLevel, src, dst, ret.dv.String())
    return ret
}

// meet keeps only the distances on which both vectors agree.
func (self *DistanceVector) meet(other *DistanceVector) {
    for l := 1; l <= hir.MaxLoopNestLevel; l++ {
        d, ok := self.DistAt(l)
        o, ok2 := other.DistAt(l)
        if ok && (!ok2 || d != o) {
            self.known[l - 1] = false
        }
    }
}
