// Command htscoredemo mirrors the teacher's _example/main.go: instead of
// standing up a server, it builds a fixed two-table catalog, hand-builds
// the binding tree for one query (no parser is in scope, spec.md §1), runs
// it through core.Context.Compile, and prints the resulting Pipe tree.
package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/core"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/pipe"
)

func main() {
	cat := schoolCatalog()
	ctx := core.New(cat, nil, logrus.StandardLogger(), nil)

	// /school{code, name}
	school, _, _ := cat.Table("school")
	root := &binding.Root{}
	home := &binding.Home{BaseBinding: root}
	table := &binding.Table{BaseBinding: home, Table: school}
	code := &binding.Column{BaseBinding: table, Column: "code"}
	name := &binding.Column{BaseBinding: table, Column: "name"}
	sel := &binding.Selection{
		BaseBinding: table,
		Elements:    []binding.Binding{code, name},
		Dom: domain.Record{Fields: []domain.Field{
			{Name: "code", Domain: domain.Text{}},
			{Name: "name", Domain: domain.Text{}},
		}},
	}
	query := &binding.Collect{BaseBinding: root, Seed: sel, Dom: sel.Dom}

	produced, err := ctx.Compile(query)
	if err != nil {
		panic(err)
	}

	out, err := pipe.Marshal(*produced)
	if err != nil {
		panic(err)
	}
	fmt.Printf("compiled %d bytes of plan\n", len(out))
	printPipe(produced.Data, 0)
}

func schoolCatalog() *catalog.Catalog {
	school := &catalog.Table{
		Name: "school",
		Columns: []catalog.Column{
			{Name: "code", Domain: domain.Text{}},
			{Name: "name", Domain: domain.Text{}},
		},
		Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
		Joins: []catalog.Join{
			{
				Direction:     catalog.Reverse,
				OriginTable:   "department",
				OriginColumns: []string{"school"},
				TargetTable:   "school",
				TargetColumns: []string{"code"},
				IsSingular:    false,
				IsTotal:       false,
			},
		},
	}
	department := &catalog.Table{
		Name: "department",
		Columns: []catalog.Column{
			{Name: "code", Domain: domain.Text{}},
			{Name: "name", Domain: domain.Text{}},
			{Name: "school", Domain: domain.Text{}, Nullable: true},
		},
		Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
		Joins: []catalog.Join{
			{
				Direction:     catalog.Direct,
				OriginTable:   "department",
				OriginColumns: []string{"school"},
				TargetTable:   "school",
				TargetColumns: []string{"code"},
				IsSingular:    true,
				IsTotal:       false,
			},
		},
	}
	return &catalog.Catalog{
		Schemas: map[string]*catalog.Schema{
			"": {Name: "", Tables: map[string]*catalog.Table{
				"school":     school,
				"department": department,
			}},
		},
	}
}

// printPipe is a minimal recursive dumper; pipe.Marshal (wired above) is
// the format meant for logs/tooling, this is just readable terminal output.
func printPipe(p pipe.Pipe, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch pp := p.(type) {
	case pipe.ComposePipe:
		fmt.Println(indent + "compose")
		printPipe(pp.Left, depth+1)
		printPipe(pp.Right, depth+1)
	case pipe.IteratePipe:
		fmt.Println(indent + "iterate")
		printPipe(pp.Value, depth+1)
	case pipe.RecordPipe:
		fmt.Printf("%srecord %v\n", indent, pp.Names)
		for _, f := range pp.Fields {
			printPipe(f, depth+1)
		}
	case pipe.SQLPipe:
		fmt.Printf("%ssql: %s\n", indent, pp.SQL)
	case pipe.ExtractPipe:
		fmt.Printf("%sextract[%d]\n", indent, pp.Index)
	default:
		fmt.Printf("%s%T\n", indent, pp)
	}
}
