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

package mir

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/oleiade/lane"
)

// DumpText writes the body's text form plus the declaration table to fn.
func DumpText(mir *Body, fn string) error {
	buf := []string{
		mir.String(),
		"",
		"locals:",
		spew.Sdump(mir.Locals),
	}
	return os.WriteFile(fn, []byte(strings.Join(buf, "\n")), 0644)
}

func dumpbb(mir *Body, bb BlockID) string {
	var w int
	var ins []string
	var term []string
	blk := &mir.Blocks[bb]
	for _, v := range blk.Stmts {
		ss := v.String()
		vv := strings.ReplaceAll(html.EscapeString(ss), " ", "&nbsp;")
		ins = append(ins, fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", vv))
		if len(ss) > w {
			w = len(ss)
		}
	}
	for _, ss := range strings.Split(blk.Term.String(), "\n") {
		vv := strings.ReplaceAll(html.EscapeString(ss), " ", "&nbsp;")
		term = append(term, fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", vv))
		if len(ss) > w {
			w = len(ss)
		}
	}
	buf := []string{
		"<table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n",
		fmt.Sprintf("<tr><td width=\"%d\">%s</td></tr>\n", w*10+5, bb),
	}
	if len(ins) != 0 {
		buf = append(buf, "<hr/>\n")
		buf = append(buf, ins...)
	}
	buf = append(buf, "<hr/>\n")
	buf = append(buf, term...)
	buf = append(buf, "</table>")
	return strings.Join(buf, "")
}

// DumpDot writes a Graphviz rendering of the CFG to fn.
func DumpDot(mir *Body, fn string) error {
	q := lane.NewQueue()
	n := make(map[BlockID]bool)
	e := make(map[struct{ A, B BlockID }]bool)
	buf := []string{
		"digraph CFG {",
		`    xdotversion = "15"`,
		`    graph [ fontname = "Fira Code" ]`,
		`    node [ fontname = "Fira Code" fontsize="16" shape = "plaintext" ]`,
		`    edge [ fontname = "Fira Code" ]`,
		`    START [ shape = "circle" ]`,
		`    START -> bb0`,
	}
	n[0] = true
	for q.Enqueue(BlockID(0)); !q.Empty(); {
		p := q.Dequeue().(BlockID)
		buf = append(buf, fmt.Sprintf(`    %s [ label = < %s > ]`, p, dumpbb(mir, p)))
		for _, ln := range mir.Blocks[p].Term.Successors() {
			if !n[ln] {
				n[ln] = true
				q.Enqueue(ln)
			}
			edge := struct{ A, B BlockID }{p, ln}
			if !e[edge] {
				e[edge] = true
				buf = append(buf, fmt.Sprintf(`    %s -> %s`, p, ln))
			}
		}
	}
	buf = append(buf, "}")
	return os.WriteFile(fn, []byte(strings.Join(buf, "\n")), 0644)
}
