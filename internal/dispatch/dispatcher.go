package dispatch

import (
	"context"

	"grimm.is/spring/internal/clock"
	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/logging"
	"grimm.is/spring/internal/metrics"
)

// Dispatcher routes named operations with positional arguments to a
// Backend. Arguments are validated against the operation's parameter list
// before the backend is touched.
type Dispatcher struct {
	backend Backend
	ops     map[string]*Operation
	order   []*Operation
	metrics *metrics.Registry
	logger  *logging.Logger
}

// New creates a dispatcher over backend. reg may be nil.
func New(backend Backend, reg *metrics.Registry) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		ops:     make(map[string]*Operation),
		metrics: reg,
		logger:  logging.WithComponent("dispatch"),
	}
	for _, op := range operations() {
		d.ops[op.Name] = op
		d.order = append(d.order, op)
	}
	return d
}

// Operations returns the table in registration order.
func (d *Dispatcher) Operations() []*Operation {
	out := make([]*Operation, len(d.order))
	copy(out, d.order)
	return out
}

// Lookup finds an operation by name.
func (d *Dispatcher) Lookup(name string) (*Operation, bool) {
	op, ok := d.ops[name]
	return op, ok
}

func (d *Dispatcher) lookup(name string) (*Operation, error) {
	op, ok := d.ops[name]
	if !ok {
		return nil, errors.Attr(errors.Errorf(errors.KindArgument, "unknown operation %q", name), "operation", name)
	}
	return op, nil
}

// bind checks args against op and fills defaulted trailing parameters.
func bind(op *Operation, args []Value) ([]Value, error) {
	if len(args) < op.required() || len(args) > len(op.Params) {
		want := len(op.Params)
		if r := op.required(); r != want {
			return nil, errors.Attr(errors.Errorf(errors.KindArgument,
				"%s expects %d to %d arguments, got %d", op.Name, r, want, len(args)), "operation", op.Name)
		}
		return nil, errors.Attr(errors.Errorf(errors.KindArgument,
			"%s expects %d arguments, got %d", op.Name, want, len(args)), "operation", op.Name)
	}

	bound := make([]Value, len(op.Params))
	for i, p := range op.Params {
		if i >= len(args) {
			bound[i] = *p.Default
			continue
		}
		if args[i].Type != p.Type {
			err := errors.Errorf(errors.KindArgument, "%s: argument %d (%s) must be %s, got %s",
				op.Name, i+1, p.Name, p.Type, args[i].Type)
			return nil, errors.Attr(errors.Attr(err, "operation", op.Name), "param", p.Name)
		}
		bound[i] = args[i]
	}
	return bound, nil
}

// Call invokes the named operation. Argument errors are returned before
// the backend is called.
func (d *Dispatcher) Call(ctx context.Context, name string, args []Value) (Value, error) {
	op, err := d.lookup(name)
	if err != nil {
		return Nil, err
	}
	bound, err := bind(op, args)
	if err != nil {
		d.record(op.Name, err, 0)
		return Nil, err
	}

	start := clock.Now()
	v, err := op.run(ctx, d.backend, bound)
	d.record(op.Name, err, clock.Since(start).Seconds())

	if err != nil {
		d.logger.Debug("operation failed", "operation", op.Name, "kind", errors.GetKind(err).String(), "error", err)
		return Nil, err
	}
	if op.Mutates {
		d.audit(op, bound, v)
	}
	return v, nil
}

// CallStrings parses command-line words against the operation's parameter
// types and calls it.
func (d *Dispatcher) CallStrings(ctx context.Context, name string, words []string) (Value, error) {
	op, err := d.lookup(name)
	if err != nil {
		return Nil, err
	}
	if len(words) > len(op.Params) {
		_, err := bind(op, make([]Value, len(words)))
		return Nil, err
	}

	args := make([]Value, len(words))
	for i, w := range words {
		v, err := parseArg(w, op.Params[i].Type)
		if err != nil {
			return Nil, errors.Attr(errors.Attr(err, "operation", op.Name), "param", op.Params[i].Name)
		}
		args[i] = v
	}
	return d.Call(ctx, name, args)
}

func (d *Dispatcher) record(name string, err error, seconds float64) {
	if d.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = errors.GetKind(err).String()
	}
	d.metrics.RecordOperation(name, result, seconds)
}

func (d *Dispatcher) audit(op *Operation, args []Value, result Value) {
	details := map[string]any{"outcome": result.String()}
	for i, p := range op.Params {
		details[p.Name] = args[i].String()
	}
	resource := ""
	if len(args) > 0 {
		resource = args[0].String()
	}
	d.logger.Audit(op.Name, resource, details)
}
