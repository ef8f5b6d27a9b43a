package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"travelops/internal/itinerary"
	"travelops/internal/llm"
	"travelops/pkg/prompts"
)

const (
	DefaultMaxAttempts = 3
	repairTokens       = 520
)

var ErrUnusableItinerary = errors.New("model output unusable after retries, try again with fewer days or a shorter vibe")

type State string

const (
	StateGenerated     State = "generated"
	StateValidatedOK   State = "validated_ok"
	StateValidatedFail State = "validated_fail"
	StateRepaired      State = "repaired"
	StateRejected      State = "rejected"
	StateFatal         State = "fatal"
	StateAccepted      State = "accepted"
)

type Transition struct {
	Attempt int
	State   State
	Detail  string
}

type Trace []Transition

// Last returns the final state reached, or an empty state for an empty trace.
func (t Trace) Last() State {
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1].State
}

func (t Trace) Count(state State) int {
	n := 0
	for _, tr := range t {
		if tr.State == state {
			n++
		}
	}
	return n
}

type LoopInput struct {
	Prompt    string
	Allowed   []string
	Days      int
	Dates     []string
	MaxTokens int
}

type LoopResult struct {
	Text      string
	Validated bool
	Attempts  int
	Trace     Trace
}

// Loop drives generate, validate and repair rounds until a draft passes or
// the attempt budget runs out.
type Loop struct {
	gen         llm.Generator
	prompts     *prompts.Prompts
	maxAttempts int
}

func NewLoop(gen llm.Generator, p *prompts.Prompts, maxAttempts int) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Loop{gen: gen, prompts: p, maxAttempts: maxAttempts}
}

func (l *Loop) Run(ctx context.Context, in LoopInput) (*LoopResult, error) {
	res := &LoopResult{}
	var retained string

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		res.Attempts = attempt
		record := func(state State, detail string) {
			res.Trace = append(res.Trace, Transition{Attempt: attempt, State: state, Detail: detail})
			slog.Debug("Itinerary state", "attempt", attempt, "state", state, "detail", detail)
		}

		draft, err := l.generate(ctx, llm.Request{
			System:    l.prompts.System.Planner,
			User:      in.Prompt,
			MaxTokens: in.MaxTokens,
		})
		if err != nil {
			record(StateFatal, err.Error())
			return res, fmt.Errorf("generate itinerary: %w", err)
		}
		draft.text = itinerary.EnsurePlacesUsed(draft.text, in.Allowed)
		record(StateGenerated, draft.firstLine())

		verdict := itinerary.ValidateReply(draft.text, in.Allowed, in.Days)
		if verdict.IsOK() {
			record(StateValidatedOK, "")
			record(StateAccepted, "")
			res.Text, res.Validated = draft.text, true
			return res, nil
		}
		record(StateValidatedFail, verdict.Instruction)
		if !itinerary.IsControlToken(draft.text) || retained == "" {
			retained = draft.text
		}

		repairPrompt, err := l.prompts.RenderRepair(prompts.RepairParams{
			Instruction: verdict.Instruction,
			Days:        in.Days,
			Dates:       in.Dates,
			Places:      in.Allowed,
			Itinerary:   draft.text,
		})
		if err != nil {
			return res, fmt.Errorf("render repair prompt: %w", err)
		}

		repaired, err := l.generate(ctx, llm.Request{
			System:    l.prompts.System.Repair,
			User:      repairPrompt,
			MaxTokens: max(repairTokens, in.MaxTokens),
		})
		if err != nil {
			record(StateFatal, err.Error())
			return res, fmt.Errorf("repair itinerary: %w", err)
		}
		if itinerary.IsControlToken(repaired.text) {
			record(StateRejected, repaired.firstLine())
			continue
		}
		record(StateRepaired, repaired.firstLine())

		verdict = itinerary.ValidateReply(repaired.text, in.Allowed, in.Days)
		if verdict.IsOK() {
			record(StateValidatedOK, "")
			record(StateAccepted, "")
			res.Text, res.Validated = repaired.text, true
			return res, nil
		}
		record(StateValidatedFail, verdict.Instruction)
		retained = repaired.text
	}

	if itinerary.IsControlToken(retained) {
		res.Trace = append(res.Trace, Transition{Attempt: res.Attempts, State: StateFatal, Detail: "no usable draft"})
		return res, ErrUnusableItinerary
	}

	slog.Warn("Itinerary did not pass validation, returning best effort", "attempts", res.Attempts)
	res.Trace = append(res.Trace, Transition{Attempt: res.Attempts, State: StateAccepted, Detail: "unvalidated"})
	res.Text = retained
	return res, nil
}

type reply struct {
	text string
}

func (r reply) firstLine() string {
	line, _, _ := strings.Cut(r.text, "\n")
	return line
}

// generate treats an empty backend reply as empty text so the guard can
// reject it like any other unusable answer.
func (l *Loop) generate(ctx context.Context, req llm.Request) (reply, error) {
	text, err := l.gen.Generate(ctx, req)
	if err != nil {
		if llm.IsEmptyResponse(err) {
			return reply{}, nil
		}
		return reply{}, err
	}
	return reply{text: strings.TrimSpace(text)}, nil
}
