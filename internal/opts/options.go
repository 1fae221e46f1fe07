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

type Options struct {
	MaxNestRefs  int
	MaxDistNodes int
	VerifyLevel  int
}

func (self *Options) CanTestNest(nrefs int) bool {
	return self.MaxNestRefs > nrefs || self.MaxNestRefs == 0
}

func (self *Options) CanAddChunk(nchunks int) bool {
	return self.MaxDistNodes > nchunks || self.MaxDistNodes == 0
}

func GetDefaultOptions() Options {
	return Options{
		MaxNestRefs:  MaxNestRefs,
		MaxDistNodes: MaxDistNodes,
		VerifyLevel:  VerifyLevel,
	}
}
