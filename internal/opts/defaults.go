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

package opts

import (
	"os"
	"strconv"
)

const (
	_DefaultMaxNestRefs  = 4096 // cutoff at 4k references per loop nest (pair testing is quadratic)
	_DefaultMaxDistNodes = 512  // cutoff at 512 lexical chunks per distribution graph
)

var (
	MaxNestRefs  = parseOrDefault("HIRLOOP_MAX_NEST_REFS", _DefaultMaxNestRefs, 16)
	MaxDistNodes = parseOrDefault("HIRLOOP_MAX_DIST_NODES", _DefaultMaxDistNodes, 2)
	DebugDD      = os.Getenv("HIRLOOP_DEBUG_DD") != ""
	DebugDDDir   = os.Getenv("HIRLOOP_DEBUG_DD_DIR")
	VerifyLevel  = parseVerifyLevel(os.Getenv("HIRLOOP_DD_VERIFY"))
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("hirloop: invalid value for " + key)
	} else if ret := int(val); ret <= min {
		panic("hirloop: value too small for " + key)
	} else {
		return ret
	}
}

// parseVerifyLevel maps HIRLOOP_DD_VERIFY to a nesting level: "region" (or
// "1".."9") re-verifies from the region scope down, "innermost" only checks
// innermost loops, empty disables verification.
func parseVerifyLevel(env string) int {
	switch env {
	case "":
		return 0
	case "region":
		return 1
	case "innermost":
		return -1
	default:
		if val, err := strconv.ParseUint(env, 10, 8); err != nil || val < 1 || val > 9 {
			panic("hirloop: invalid value for HIRLOOP_DD_VERIFY")
		} else {
			return int(val)
		}
	}
}
