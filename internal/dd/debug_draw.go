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
    `os`

    `github.com/ajstarks/svgo`
    `github.com/cloudwego/hirloop/internal/hir`
)

// draw_ddgraph renders the visible edges of a view as an SVG: one row per
// ref in lexical order, dependences as arcs on the right, labeled with the
// dep type and direction vector. Debug only.
func draw_ddgraph(fname string, view *GraphView) {
    fn := view.an.fn
    refs := view.Refs()
    maxw := 0
    rowy := make(map[hir.RefID]int, len(refs))
    for i, r := range refs {
        rowy[r] = 100 + i * 28
        if n := len(fn.RefString(r)); n > maxw {
            maxw = n
        }
    }
    labx := maxw * 9 + 40
    fp, err := os.OpenFile(fname, os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644)
    if err != nil {
        panic(err)
    }
    p := svg.New(fp)
    p.Start(labx + 640, len(refs) * 28 + 160)
    if _, err = fp.WriteString(`<rect width="100%" height="100%" fill="white" />` + "\n"); err != nil {
        panic(err)
    }
    p.Text(16, 48, fmt.Sprintf("DD graph, node %d", view.node), "fill:gray;font-size:16px;font-family:monospace")
    for _, r := range refs {
        p.Text(labx, rowy[r], fn.RefString(r), "fill:black;font-size:16px;font-family:monospace;text-anchor:end")
    }
    arc := 0
    for _, r := range refs {
        for _, e := range view.Outgoing(r) {
            sy, ok := rowy[e.Sink]
            if !ok {
                continue // endpoint outside the subtree of interest
            }
            dy := rowy[e.Src]
            dx := labx + 20 + (arc % 16) * 36
            arc++
            p.Line(labx + 10, dy - 5, dx, dy - 5, "stroke:black")
            p.Line(dx, dy - 5, dx, sy - 5, "stroke:black")
            p.Line(dx, sy - 5, labx + 10, sy - 5, "stroke:black;marker-end:url(#arrow)")
            p.Circle(labx + 10, sy - 5, 3, "fill:black")
            my := (dy + sy) / 2
            p.Text(dx + 4, my, fmt.Sprintf("%s %s", e.Type(fn), e.DV.String()), "fill:darkred;font-size:12px;font-family:monospace")
        }
    }
    p.End()
    if err = fp.Close(); err != nil {
        panic(err)
    }
}
