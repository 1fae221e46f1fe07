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

package hirloop

import (
	"github.com/cloudwego/hirloop/internal/dd"
)

// MismatchError occurs when Verify finds the incrementally maintained
// dependence graph diverging from a from-scratch rebuild, which almost
// always means a transformation forgot its markXModified call.
//
// Contract violations (wrong node kinds, out-of-range levels, reading an
// independent refinement result) are not errors: they panic, they are bugs
// in the calling pass, not runtime conditions.
type MismatchError = dd.MismatchError
