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
    `github.com/cloudwego/hirloop/internal/hir`
)

// Oracle is the mathematical dependence test. Given a candidate pair and an
// input direction vector constraining the levels of interest (EQ pins a
// level to "same iteration", ALL and UNINIT leave it free), it returns the
// surviving dependences as normalized edges, or nothing when the pair is
// proven independent under the constraint.
//
// Returned edges may have Src and Sink swapped relative to the arguments:
// the test normalizes so the leading non-EQ direction always admits LT.
// When forFusion is set, both refs are analyzed as if they resided at the
// deepest common nesting level, identifying the IVs of the two bodies
// positionally (the legality question behind loop fusion).
type Oracle interface {
    Test(fn *hir.Function, src hir.RefID, dst hir.RefID, in *DirectionVector, forFusion bool) []Edge
}

// AliasOracle answers may-alias queries over the symbolic bases of two
// memory references. Consulted lazily, only for pairs that survive the
// cheaper pruning.
type AliasOracle interface {
    MayAlias(fn *hir.Function, a hir.RefID, b hir.RefID) bool
}
