package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// Strategy is one way to locate or perform an action
type Strategy struct {
	Name string
	// Applies is optional; a strategy whose precondition does not hold is skipped
	Applies func(ctx context.Context) bool
	Run     func(ctx context.Context) (interface{}, error)
}

// Action is a named operation against the live page
type Action struct {
	Name       string
	Strategies []Strategy
	// Timeout bounds each strategy execution
	Timeout time.Duration
	// Settle is the fixed wait after a successful strategy
	Settle time.Duration
	// Input simulates keyboard or mouse input once every strategy failed
	Input func(ctx context.Context) (interface{}, error)
	// Manual is shown to the operator when nothing else worked
	Manual string
}

// Pipeline runs actions as an ordered list of heuristics
type Pipeline struct {
	operator interfaces.Operator
	logger   *logrus.Logger
}

// New - creates new pipeline. operator may be nil, in which case manual prompts are skipped
func New(operator interfaces.Operator, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		operator: operator,
		logger:   logger,
	}
}

// Run - tries every strategy in order and falls back to input simulation, then to the operator
func (p *Pipeline) Run(ctx context.Context, action Action) entities.Outcome {
	log := p.logger.WithField("action", action.Name)
	outcome := entities.Outcome{Action: action.Name}

	var lastErr error
	for _, strategy := range action.Strategies {
		if err := ctx.Err(); err != nil {
			outcome.Status = entities.OutcomeFailed
			outcome.Err = err
			return outcome
		}

		if strategy.Applies != nil && !guard(ctx, strategy.Applies) {
			outcome.Attempts = append(outcome.Attempts, entities.Attempt{
				Strategy: strategy.Name,
				Result:   entities.AttemptSkipped,
			})
			continue
		}

		value, err := p.attempt(ctx, action.Timeout, strategy.Run)
		if err == nil {
			outcome.Attempts = append(outcome.Attempts, entities.Attempt{
				Strategy: strategy.Name,
				Result:   entities.AttemptSucceeded,
			})
			log.WithField("strategy", strategy.Name).Debug("strategy succeeded")
			if err := Sleep(ctx, action.Settle); err != nil {
				outcome.Status = entities.OutcomeFailed
				outcome.Err = err
				return outcome
			}
			outcome.Status = entities.OutcomeSucceeded
			outcome.Strategy = strategy.Name
			outcome.Value = value
			return outcome
		}

		lastErr = err
		outcome.Attempts = append(outcome.Attempts, entities.Attempt{
			Strategy: strategy.Name,
			Result:   entities.AttemptFailed,
			Error:    err.Error(),
		})
		log.WithField("strategy", strategy.Name).Debugf("strategy failed: %v", err)

		if errors.Is(err, entities.ErrUnrecoverable) {
			log.Warnf("unrecoverable failure: %v", err)
			return p.manual(ctx, action, outcome, lastErr)
		}
	}

	if action.Input != nil {
		value, err := p.attempt(ctx, action.Timeout, action.Input)
		if err == nil {
			outcome.Attempts = append(outcome.Attempts, entities.Attempt{
				Strategy: "input",
				Result:   entities.AttemptSucceeded,
			})
			log.Info("performed with simulated input")
			if err := Sleep(ctx, action.Settle); err != nil {
				outcome.Status = entities.OutcomeFailed
				outcome.Err = err
				return outcome
			}
			outcome.Status = entities.OutcomeFallback
			outcome.Strategy = "input"
			outcome.Value = value
			return outcome
		}
		lastErr = err
		outcome.Attempts = append(outcome.Attempts, entities.Attempt{
			Strategy: "input",
			Result:   entities.AttemptFailed,
			Error:    err.Error(),
		})
	}

	return p.manual(ctx, action, outcome, lastErr)
}

// manual - asks the operator to finish the action, or reports failure
func (p *Pipeline) manual(ctx context.Context, action Action, outcome entities.Outcome, lastErr error) entities.Outcome {
	if action.Manual != "" && p.operator != nil && ctx.Err() == nil {
		p.logger.WithField("action", action.Name).Warn("waiting for manual intervention")
		err := p.operator.Pause(ctx, action.Manual)
		if err == nil {
			outcome.Status = entities.OutcomeManual
			outcome.Strategy = "manual"
			return outcome
		}
		lastErr = err
	}

	outcome.Status = entities.OutcomeFailed
	if lastErr != nil {
		outcome.Err = fmt.Errorf("%s: %w: %w", action.Name, entities.ErrActionFailed, lastErr)
	} else {
		outcome.Err = fmt.Errorf("%s: %w", action.Name, entities.ErrActionFailed)
	}
	return outcome
}

// attempt - runs fn under the action timeout and turns panics into errors
func (p *Pipeline) attempt(ctx context.Context, timeout time.Duration, fn func(context.Context) (interface{}, error)) (value interface{}, err error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()

	value, err = fn(stepCtx)
	if ctx.Err() != nil || stepCtx.Err() == nil || errors.Is(err, entities.ErrUnrecoverable) {
		return value, err
	}
	// a result that arrives after the deadline does not count
	if err == nil {
		err = stepCtx.Err()
	}
	return nil, fmt.Errorf("%w: %v", entities.ErrTimeout, err)
}

// guard - evaluates a precondition; a panicking precondition does not hold
func guard(ctx context.Context, applies func(context.Context) bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return applies(ctx)
}

// Sleep - blocks for d unless ctx is done first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
