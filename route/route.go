// Package route implements spec.md §4.2: a one-to-one structural walk that
// turns a binding.Binding tree into a flow.Flow tree. Each binding class
// maps to its flow class; order directions are extracted at Sort/Clip
// nodes via binding.Direct; condition-optional attaches propagate a nil
// Flow through. Unknown binding classes are a "cannot route an expression"
// error.
//
// Grounded on original_source/.../core/tr/route.py, translated class for
// class: RoutingState.route's memoizing cache becomes State.route's map
// keyed by binding pointer identity (bindings are never mutated once
// built, so pointer identity is a safe cache key); the Adapter dispatch
// keyed on Python's `adapt(...)` decorator becomes an ordinary Go type
// switch.
package route

import (
	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/flow"
)

// State caches bindings already routed within one compilation, exactly
// mirroring RoutingState in the original.
type State struct {
	cache map[binding.Binding]flow.Flow
}

// NewState returns an empty routing cache.
func NewState() *State { return &State{cache: make(map[binding.Binding]flow.Flow)} }

// Route converts one binding tree into its flow tree, memoizing by binding
// identity so a binding shared by multiple parents (e.g. a referenced
// calculated field) is only routed once.
func Route(b binding.Binding) (flow.Flow, error) {
	return NewState().Route(b)
}

func (s *State) Route(b binding.Binding) (f flow.Flow, err error) {
	if b == nil {
		return nil, nil
	}
	if cached, ok := s.cache[b]; ok {
		return cached, nil
	}
	defer errs.TranslateGuard(&err, "While routing:", b.Mark())
	f, err = s.route(b)
	if err != nil {
		return nil, err
	}
	s.cache[b] = f
	return f, nil
}

func (s *State) route(b binding.Binding) (flow.Flow, error) {
	switch bb := b.(type) {
	case *binding.Root:
		return &flow.Root{}, nil

	case *binding.Home:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		return &flow.Home{Base: flow.Base{Src: b}, BaseFlow: base}, nil

	case *binding.Table:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		return &flow.Table{Base: flow.Base{Src: b}, BaseFlow: base, Table: bb.Table}, nil

	case *binding.Chain:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		return &flow.Chain{Base: flow.Base{Src: b}, BaseFlow: base, Joins: bb.Joins}, nil

	case *binding.Sieve:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		filter, err := s.Route(bb.Filter)
		if err != nil {
			return nil, err
		}
		return &flow.Sieve{Base: flow.Base{Src: b}, BaseFlow: base, Filter: filter}, nil

	case *binding.Sort:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		order, err := s.routeOrder(bb.Order)
		if err != nil {
			return nil, err
		}
		return &flow.Sort{Base: flow.Base{Src: b}, BaseFlow: base, Order: order,
			Limit: bb.Limit, Offset: bb.Offset}, nil

	case *binding.Quotient:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		seed, err := s.Route(bb.Seed)
		if err != nil {
			return nil, err
		}
		kernels, err := s.routeAll(bb.Kernels)
		if err != nil {
			return nil, err
		}
		return &flow.Quotient{Base: flow.Base{Src: b}, BaseFlow: base, Seed: seed, Kernels: kernels}, nil

	case *binding.Kernel:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		quotient, err := s.Route(bb.Quotient)
		if err != nil {
			return nil, err
		}
		return &flow.Kernel{Base: flow.Base{Src: b}, BaseFlow: base, Quotient: quotient, Index: bb.Index}, nil

	case *binding.Complement:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		quotient, err := s.Route(bb.Quotient)
		if err != nil {
			return nil, err
		}
		return &flow.Complement{Base: flow.Base{Src: b}, BaseFlow: base, Quotient: quotient}, nil

	case *binding.Cover:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		seed, err := s.Route(bb.Seed)
		if err != nil {
			return nil, err
		}
		return &flow.Cover{Base: flow.Base{Src: b}, BaseFlow: base, Seed: seed}, nil

	case *binding.Fork:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		kernels, err := s.routeAll(bb.Kernels)
		if err != nil {
			return nil, err
		}
		return &flow.Fork{Base: flow.Base{Src: b}, BaseFlow: base, Kernels: kernels}, nil

	case *binding.Attach:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		seed, err := s.Route(bb.Seed)
		if err != nil {
			return nil, err
		}
		images, err := s.routeImages(bb.Images)
		if err != nil {
			return nil, err
		}
		cond, err := s.Route(bb.Condition)
		if err != nil {
			return nil, err
		}
		return &flow.Attach{Base: flow.Base{Src: b}, BaseFlow: base, Seed: seed,
			Images: images, Condition: cond}, nil

	case *binding.Clip:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		seed, err := s.Route(bb.Seed)
		if err != nil {
			return nil, err
		}
		order, err := s.routeOrderedBindings(bb.Order)
		if err != nil {
			return nil, err
		}
		return &flow.Clip{Base: flow.Base{Src: b}, BaseFlow: base, Seed: seed,
			Order: order, Limit: bb.Limit, Offset: bb.Offset}, nil

	case *binding.Locate:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		seed, err := s.Route(bb.Seed)
		if err != nil {
			return nil, err
		}
		images, err := s.routeImages(bb.Images)
		if err != nil {
			return nil, err
		}
		cond, err := s.Route(bb.Condition)
		if err != nil {
			return nil, err
		}
		return &flow.Locate{Base: flow.Base{Src: b}, BaseFlow: base, Seed: seed,
			Images: images, Condition: cond}, nil

	case *binding.Column:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		link, err := s.Route(bb.Link)
		if err != nil {
			return nil, err
		}
		return &flow.Column{Base: flow.Base{Src: b}, BaseFlow: base, Column: bb.Column, Link: link}, nil

	case *binding.Literal:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		return &flow.Literal{Base: flow.Base{Src: b}, BaseFlow: base, Value: bb.Value, Dom: bb.Dom}, nil

	case *binding.Cast:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		return &flow.Cast{Base: flow.Base{Src: b}, BaseFlow: base, Dom: bb.Dom}, nil

	case *binding.Rescoping:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		scope, err := s.Route(bb.Scope)
		if err != nil {
			return nil, err
		}
		return &flow.Rescoping{Base: flow.Base{Src: b}, BaseFlow: base, Scope: scope}, nil

	case *binding.Formula:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		args := make(map[string][]flow.Flow, len(bb.Arguments))
		for name, slot := range bb.Arguments {
			routed, err := s.routeAll(slot)
			if err != nil {
				return nil, err
			}
			args[name] = routed
		}
		return &flow.Formula{Base: flow.Base{Src: b}, BaseFlow: base, Sig: bb.Sig,
			Dom: bb.Dom, Arguments: args}, nil

	case *binding.Selection:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		elements, err := s.routeAll(bb.Elements)
		if err != nil {
			return nil, err
		}
		return &flow.Selection{Base: flow.Base{Src: b}, BaseFlow: base, Elements: elements, Dom: bb.Dom}, nil

	case *binding.Identity:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		elements, err := s.routeAll(bb.Elements)
		if err != nil {
			return nil, err
		}
		return &flow.Identity{Base: flow.Base{Src: b}, BaseFlow: base, Elements: elements}, nil

	case *binding.Collect:
		base, err := s.Route(bb.BaseBinding)
		if err != nil {
			return nil, err
		}
		seed, err := s.Route(bb.Seed)
		if err != nil {
			return nil, err
		}
		return &flow.Collect{Base: flow.Base{Src: b}, BaseFlow: base, Seed: seed, Dom: bb.Dom}, nil

	case *binding.Wrapping:
		return s.Route(bb.BaseBinding)

	case *binding.Decorate:
		return s.Route(bb.BaseBinding)

	default:
		return nil, errs.ErrCannotRoute.New("cannot route an expression")
	}
}

func (s *State) routeAll(bs []binding.Binding) ([]flow.Flow, error) {
	out := make([]flow.Flow, len(bs))
	for i, b := range bs {
		f, err := s.Route(b)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// routeOrder routes a Sort binding's order list, defaulting any element
// with no explicit direction decoration to ascending (+1) -- mirrors
// RouteSort's `direction = direct(binding); if direction is None: direction = +1`.
func (s *State) routeOrder(bs []binding.Binding) ([]flow.Ordered, error) {
	out := make([]flow.Ordered, len(bs))
	for i, b := range bs {
		f, err := s.Route(b)
		if err != nil {
			return nil, err
		}
		dir := binding.Direct(b)
		if dir == 0 {
			dir = +1
		}
		out[i] = flow.Ordered{Flow: f, Direction: dir}
	}
	return out, nil
}

// routeOrderedBindings routes a Clip binding's order list, which already
// carries an explicit direction per pair (no default needed).
func (s *State) routeOrderedBindings(obs []binding.OrderedBinding) ([]flow.Ordered, error) {
	out := make([]flow.Ordered, len(obs))
	for i, ob := range obs {
		f, err := s.Route(ob.Binding)
		if err != nil {
			return nil, err
		}
		out[i] = flow.Ordered{Flow: f, Direction: ob.Direction}
	}
	return out, nil
}

func (s *State) routeImages(ims []binding.ImagePair) ([]flow.Image, error) {
	out := make([]flow.Image, len(ims))
	for i, im := range ims {
		lhs, err := s.Route(im.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := s.Route(im.RHS)
		if err != nil {
			return nil, err
		}
		out[i] = flow.Image{LHS: lhs, RHS: rhs}
	}
	return out, nil
}
