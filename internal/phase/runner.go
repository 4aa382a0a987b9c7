package phase

import (
	"context"
	"sync"

	"grimm.is/spring/internal/config"
	"grimm.is/spring/internal/dispatch"
	"grimm.is/spring/internal/errors"
	"grimm.is/spring/internal/logging"
	"grimm.is/spring/internal/metrics"
)

// Caller invokes named operations. *dispatch.Dispatcher implements it.
type Caller interface {
	Call(ctx context.Context, name string, args []dispatch.Value) (dispatch.Value, error)
	Lookup(name string) (*dispatch.Operation, bool)
}

// StepResult records one executed step.
type StepResult struct {
	Operation string
	Result    dispatch.Value
	ErrorKind string
	Error     string
}

// Report summarises one phase run.
type Report struct {
	Phase  string
	Steps  []StepResult
	Failed int
}

// Runner executes configured phases through a Caller.
type Runner struct {
	caller  Caller
	metrics *metrics.Registry
	logger  *logging.Logger

	mu     sync.RWMutex
	phases map[string]config.Phase
	names  []string
}

// NewRunner creates a runner. reg may be nil.
func NewRunner(caller Caller, phases []config.Phase, reg *metrics.Registry) *Runner {
	r := &Runner{
		caller:  caller,
		metrics: reg,
		logger:  logging.WithComponent("phase"),
	}
	r.SetPhases(phases)
	return r
}

// SetPhases replaces the known phases.
func (r *Runner) SetPhases(phases []config.Phase) {
	m := make(map[string]config.Phase, len(phases))
	names := make([]string, 0, len(phases))
	for _, p := range phases {
		m[p.Name] = p
		names = append(names, p.Name)
	}
	r.mu.Lock()
	r.phases = m
	r.names = names
	r.mu.Unlock()
}

// Names returns the phase names in configuration order.
func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Validate checks that every step names a known operation and that its
// args convert and match the operation's parameters. It does not call
// anything.
func (r *Runner) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.names {
		p := r.phases[name]
		for i, s := range p.Steps {
			op, ok := r.caller.Lookup(s.Operation)
			if !ok {
				return errors.Attr(errors.Errorf(errors.KindArgument,
					"phase %q step %d: unknown operation %q", p.Name, i+1, s.Operation), "phase", p.Name)
			}
			args, err := ConvertArgs(s.Args)
			if err == nil {
				_, err = op.Bind(args)
			}
			if err != nil {
				return errors.Attr(errors.Wrapf(err, errors.KindArgument,
					"phase %q step %d (%s)", p.Name, i+1, s.Operation), "phase", p.Name)
			}
		}
	}
	return nil
}

// Run executes the named phase. A failing step stops the phase unless it
// has continue_on_error; the report lists every step attempted either way.
func (r *Runner) Run(ctx context.Context, name string) (*Report, error) {
	r.mu.RLock()
	p, ok := r.phases[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Attr(errors.Errorf(errors.KindNotFound, "unknown phase %q", name), "phase", name)
	}

	log := r.logger.WithFields(map[string]any{"phase": name})
	log.Info("Running phase", "steps", len(p.Steps))

	report := &Report{Phase: name}
	var firstErr error
	for i, s := range p.Steps {
		if err := ctx.Err(); err != nil {
			firstErr = errors.Wrap(err, errors.KindUnavailable, "phase cancelled")
			break
		}

		res := StepResult{Operation: s.Operation}
		args, err := ConvertArgs(s.Args)
		if err == nil {
			res.Result, err = r.caller.Call(ctx, s.Operation, args)
		}
		r.recordStep(name, err == nil)

		if err != nil {
			res.ErrorKind = errors.GetKind(err).String()
			res.Error = err.Error()
			report.Failed++
			log.Warn("Step failed", "step", i+1, "operation", s.Operation, "error", err)
			report.Steps = append(report.Steps, res)
			if firstErr == nil {
				firstErr = errors.Attr(errors.Attr(err, "phase", name), "step", i+1)
			}
			if !p.ContinueOnError {
				break
			}
			continue
		}

		log.Debug("Step done", "step", i+1, "operation", s.Operation, "result", res.Result.String())
		report.Steps = append(report.Steps, res)
	}

	if r.metrics != nil {
		r.metrics.RecordPhase(name, firstErr == nil)
	}
	if firstErr != nil && p.ContinueOnError && !errors.IsKind(firstErr, errors.KindUnavailable) {
		log.Warn("Phase finished with failures", "failed", report.Failed)
		return report, nil
	}
	if firstErr != nil {
		return report, firstErr
	}
	log.Info("Phase finished")
	return report, nil
}

// RunAll runs the named phases in order and stops at the first phase
// that returns an error.
func (r *Runner) RunAll(ctx context.Context, names []string) ([]*Report, error) {
	var reports []*Report
	for _, name := range names {
		rep, err := r.Run(ctx, name)
		if rep != nil {
			reports = append(reports, rep)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (r *Runner) recordStep(phase string, ok bool) {
	if r.metrics != nil {
		r.metrics.RecordStep(phase, ok)
	}
}
