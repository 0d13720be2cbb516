package pipe

import (
	"gopkg.in/vmihailenco/msgpack.v2"

	"github.com/htscore/htscore/domain"
)

// node is the flattened, serializable shape one Pipe renders to: a type
// tag plus whatever attributes that variant carries (original_source's
// Pipe.__yaml__ generators, translated to a msgpack-friendly struct since
// this repo's Pipe is an interface rather than YAMLable).
type node struct {
	Type     string                 `msgpack:"type"`
	Attrs    map[string]interface{} `msgpack:"attrs,omitempty"`
	Children map[string]*node       `msgpack:"children,omitempty"`
}

// Marshal renders p to msgpack bytes, for logging/inspecting a compiled
// plan without running it.
func Marshal(p Pipe) ([]byte, error) {
	return msgpack.Marshal(toNode(p))
}

func toNode(p Pipe) *node {
	if p == nil {
		return nil
	}
	switch pp := p.(type) {
	case ValuePipe:
		return &node{Type: "value", Attrs: map[string]interface{}{"data": pp.Data}}
	case ExtractPipe:
		return &node{Type: "extract", Attrs: map[string]interface{}{"index": pp.Index}}
	case RecordPipe:
		n := &node{Type: "record", Attrs: map[string]interface{}{"names": pp.Names, "name": pp.Name}}
		n.Children = map[string]*node{}
		for i, f := range pp.Fields {
			n.Children[indexKey(i)] = toNode(f)
		}
		return n
	case IteratePipe:
		return &node{Type: "iterate", Children: map[string]*node{"value": toNode(pp.Value)}}
	case ComposePipe:
		return &node{Type: "compose", Children: map[string]*node{
			"left": toNode(pp.Left), "right": toNode(pp.Right),
		}}
	case AnnihilatePipe:
		return &node{Type: "annihilate", Children: map[string]*node{
			"test": toNode(pp.Test), "value": toNode(pp.Value),
		}}
	case SinglePipe:
		return &node{Type: "single"}
	case MixPipe:
		n := &node{Type: "mix"}
		n.Children = map[string]*node{}
		for i, k := range pp.KeyPipes {
			n.Children[indexKey(i)] = toNode(k)
		}
		return n
	case SQLPipe:
		return &node{Type: "sql", Attrs: map[string]interface{}{
			"sql":    pp.SQL,
			"input":  domainStrings(pp.InputDomains),
			"output": domainStrings(pp.OutputDomains),
		}}
	case BatchSQLPipe:
		return &node{Type: "batch_sql", Attrs: map[string]interface{}{
			"sql":    pp.SQL,
			"input":  domainStrings(pp.InputDomains),
			"output": domainStrings(pp.OutputDomains),
			"batch":  pp.Batch,
		}}
	case ProducePipe:
		return &node{Type: "produce", Attrs: map[string]interface{}{"meta": pp.Meta.String()},
			Children: map[string]*node{"data": toNode(pp.Data)}}
	default:
		return &node{Type: "unknown"}
	}
}

func domainStrings(ds []domain.Domain) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func indexKey(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	return string(rune('a' + i - 10))
}
