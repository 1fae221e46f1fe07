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
	"fmt"

	"github.com/cloudwego/hirloop/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithMaxNestRefs sets the reference-count cutoff above which pairwise
// dependence testing degrades to conservative edges. Pair enumeration is
// quadratic; past the cutoff the engine stops consulting the dependence
// test and records all-directions edges instead.
//
// Set this option to "0" to disable the cutoff.
//
// The default value of this option is "4096".
func WithMaxNestRefs(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("hirloop: invalid nest ref cutoff: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxNestRefs = n }
	}
}

// WithMaxDistNodes sets the chunk-count cap of the distribution
// preprocessing graph. Bodies with more chunks are marked invalid for
// distribution rather than analyzed.
//
// Set this option to "0" to disable the cap.
//
// The default value of this option is "512".
func WithMaxDistNodes(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("hirloop: invalid dist node cap: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxDistNodes = n }
	}
}

// WithVerifyLevel selects the scope of Verify: 1 compares at region scope,
// 2..9 at the loops of that level, -1 at innermost loops only. "0" keeps
// the HIRLOOP_DD_VERIFY environment setting.
func WithVerifyLevel(level int) Option {
	if level < -1 || level > MaxLoopNestLevel {
		panic(fmt.Sprintf("hirloop: invalid verify level: %d", level))
	} else {
		return func(o *opts.Options) {
			if level != 0 {
				o.VerifyLevel = level
			}
		}
	}
}

// SetMaxNestRefs sets the default pair-testing cutoff for all analyses
// created from now on.
//
// This value can also be configured with the `HIRLOOP_MAX_NEST_REFS`
// environment variable.
//
// Returns the old opts.MaxNestRefs value.
func SetMaxNestRefs(n int) int {
	n, opts.MaxNestRefs = opts.MaxNestRefs, n
	return n
}

// SetMaxDistNodes sets the default distribution chunk cap for all analyses
// created from now on.
//
// This value can also be configured with the `HIRLOOP_MAX_DIST_NODES`
// environment variable.
//
// Returns the old opts.MaxDistNodes value.
func SetMaxDistNodes(n int) int {
	n, opts.MaxDistNodes = opts.MaxDistNodes, n
	return n
}
