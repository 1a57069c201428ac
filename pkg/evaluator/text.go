package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"digital.vasic.skilleval/pkg/agent"
	"digital.vasic.skilleval/pkg/assertion"
	"digital.vasic.skilleval/pkg/assessor"
)

const (
	expertPrompt = "You are an expert at Speakeasy SDK generation."
	stepsPrompt  = expertPrompt + " List the steps you would take."

	correctnessTokens   = 2000
	completenessTokens  = 2000
	hallucinationTokens = 1000

	// completenessThreshold is the share of required steps a
	// response must cover.
	completenessThreshold = 0.8
)

var errNoCompleter = errors.New("no model configured for text suites")

// activation grades the skill description against trigger phrases.
// Without skill content there is nothing to grade and the test
// passes vacuously.
func (e *Evaluator) activation(in Input, d *Detail) {
	d.Passed = true
	if in.Skill == nil {
		d.Summary = "no skill content"
		return
	}
	description := strings.ToLower(in.Skill.Description)

	for _, phrase := range in.Case.ShouldActivate {
		matched := false
		for _, word := range strings.Fields(phrase) {
			if len(word) > 3 && strings.Contains(description, strings.ToLower(word)) {
				matched = true
				break
			}
		}
		d.addCheck("activate: "+phrase, matched, "expected activate")
	}
	for _, phrase := range in.Case.ShouldNotActivate {
		matched := strings.Contains(description, strings.ToLower(phrase))
		d.addCheck("not_activate: "+phrase, !matched, "expected not_activate")
	}
	d.summarize()
}

// correctness checks one answer against the case's assertions.
func (e *Evaluator) correctness(ctx context.Context, in Input, d *Detail) {
	d.Prompt = truncate(in.Case.Prompt, 100)
	system := expertPrompt
	if in.Skill != nil {
		system += "\n\nHere is your skill context:\n\n" + in.Skill.Raw
	}

	text, err := e.complete(ctx, d, system, in.Case.Prompt, correctnessTokens)
	if err != nil {
		d.Error = err.Error()
		return
	}
	d.Passed = true
	for i, r := range e.engine.Check(text, in.Case.Assertions) {
		c := d.addCheck(fmt.Sprintf("assertion_%d_%s", i, r.Type), r.Passed, r.Message)
		if len(r.Invalid) > 0 {
			c.Extra = map[string]any{"invalid": r.Invalid}
		}
	}
	d.summarize()
}

// completeness asks for the steps of a task and looks for each
// required step's key terms in the answer.
func (e *Evaluator) completeness(ctx context.Context, in Input, d *Detail) {
	d.Prompt = truncate(in.Case.Prompt, 100)
	system := stepsPrompt
	if in.Skill != nil {
		system += "\n\nSkill context:\n\n" + in.Skill.Raw
	}

	text, err := e.complete(ctx, d, system, in.Case.Prompt, completenessTokens)
	if err != nil {
		d.Error = err.Error()
		return
	}
	output := strings.ToLower(text)

	found := 0
	for i, step := range in.Case.RequiredSteps {
		ok := stepCovered(output, step)
		if ok {
			found++
		}
		d.Checks = append(d.Checks, assessor.Check{
			Name:    fmt.Sprintf("step_%d", i),
			Passed:  ok,
			Details: step,
		})
	}
	d.Passed = float64(found) >= float64(len(in.Case.RequiredSteps))*completenessThreshold
	d.Summary = fmt.Sprintf("%d/%d steps covered", found, len(in.Case.RequiredSteps))
}

// stepCovered reports whether at least half (rounded down) of the
// step's words longer than three characters occur in output.
func stepCovered(output, step string) bool {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(step)) {
		if len(w) > 3 {
			terms = append(terms, w)
		}
	}
	hits := 0
	for _, t := range terms {
		if strings.Contains(output, t) {
			hits++
		}
	}
	return hits >= len(terms)/2
}

// hallucination asks every prompt and fails any answer that names
// an extension or command outside the whitelists.
func (e *Evaluator) hallucination(ctx context.Context, in Input, d *Detail) {
	system := expertPrompt
	if in.Skill != nil {
		system += "\n\nSkill context:\n\n" + in.Skill.Raw
	}
	checks := []assertion.Definition{
		{Type: "no_invalid_extensions", ValidList: in.Case.ValidExtensions},
		{Type: "no_invalid_commands", ValidList: in.Case.ValidCommands},
	}

	d.Passed = true
	for i, prompt := range in.Case.Prompts {
		name := fmt.Sprintf("prompt_%d", i)
		text, err := e.complete(ctx, d, system, prompt, hallucinationTokens)
		if err != nil {
			c := d.addCheck(name, false, truncate(prompt, 50)+": "+err.Error())
			c.Extra = map[string]any{"error": err.Error()}
			continue
		}

		results := e.engine.Check(text, checks)
		passed := results[0].Passed && results[1].Passed
		details := truncate(prompt, 50)
		if !passed {
			var msgs []string
			for _, r := range results {
				if !r.Passed {
					msgs = append(msgs, r.Message)
				}
			}
			details += ": " + strings.Join(msgs, "; ")
		}
		c := d.addCheck(name, passed, details)
		c.Extra = map[string]any{
			"invalid_extensions": nonNil(results[0].Invalid),
			"invalid_commands":   nonNil(results[1].Invalid),
		}
	}
	d.summarize()
}

func (e *Evaluator) complete(ctx context.Context, d *Detail, system, prompt string, maxTokens int) (string, error) {
	if e.completer == nil {
		return "", errNoCompleter
	}
	res, err := e.completer.Complete(ctx, agent.Completion{
		System:    system,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	d.CostUSD += res.CostUSD
	return res.Text, nil
}

// addCheck appends a required check: a failure fails the detail.
func (d *Detail) addCheck(name string, passed bool, details string) *assessor.Check {
	if !passed {
		d.Passed = false
	}
	d.Checks = append(d.Checks, assessor.Check{Name: name, Passed: passed, Details: details})
	return &d.Checks[len(d.Checks)-1]
}

func (d *Detail) summarize() {
	passed := 0
	for _, c := range d.Checks {
		if c.Passed {
			passed++
		}
	}
	d.Summary = fmt.Sprintf("%d/%d checks passed", passed, len(d.Checks))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
