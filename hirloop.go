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

// Package hirloop is a validity-tracked data dependence engine for a
// high-level loop IR. It maintains one dependence graph per function and
// keeps it usable across a pipeline of loop transformations without a full
// rebuild after every edit.
//
// The invalidation contract is client-driven: after mutating the tree, a
// transformation must declare what it touched through exactly one of
// MarkLoopBodyModified (references inside a loop body),
// MarkLoopBoundsModified (a loop's bound or stride expressions) or
// MarkNonLoopRegionModified (references outside all loops of a region).
// The engine then invalidates precisely that scope and lazily rebuilds it
// on the next GetGraph request.
package hirloop

import (
	"github.com/cloudwego/hirloop/internal/dd"
	"github.com/cloudwego/hirloop/internal/ddtest"
	"github.com/cloudwego/hirloop/internal/distpp"
	"github.com/cloudwego/hirloop/internal/hir"
	"github.com/cloudwego/hirloop/internal/opts"
	"github.com/cloudwego/hirloop/internal/stats"
)

// Re-exported client surface.
type (
	Function           = hir.Function
	NodeID             = hir.NodeID
	RefID              = hir.RefID
	Expr               = hir.Expr
	DDAnalysis         = dd.Analysis
	DDGraph            = dd.GraphView
	DDEdge             = dd.Edge
	Direction          = dd.Direction
	DirectionVector    = dd.DirectionVector
	DistanceVector     = dd.DistanceVector
	RefinedDependence  = dd.RefinedDependence
	DistGraph          = distpp.Graph
	PiBlock            = []*distpp.Chunk
)

// MaxLoopNestLevel is re-exported for clients sizing their own level maps.
const MaxLoopNestLevel = hir.MaxLoopNestLevel

// NewFunction creates an empty HIR function to build a loop nest in.
func NewFunction(name string) *Function {
	return hir.NewFunction(name)
}

// NewAnalysis wires a dependence analysis over fn with the standard
// dependence-test and alias oracles. All collaborators are injected here;
// the analysis itself holds no global state.
func NewAnalysis(fn *Function, options ...Option) *DDAnalysis {
	o := opts.GetDefaultOptions()
	for _, fv := range options {
		fv(&o)
	}
	oracle := ddtest.Oracle{}
	return dd.NewAnalysis(fn, oracle, oracle, stats.New(fn), o)
}

// NewDistGraph builds the distribution preprocessing graph for loop, using
// dda's function, statistics and dependence information. Check
// IsGraphValid on the result before using it.
func NewDistGraph(loop NodeID, dda *DDAnalysis, options ...Option) *DistGraph {
	o := opts.GetDefaultOptions()
	for _, fv := range options {
		fv(&o)
	}
	return distpp.Build(loop, dda, dda.Stats(), o)
}
