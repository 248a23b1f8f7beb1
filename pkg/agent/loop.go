package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
)

// RunOptions override run-level limits. Zero values fall back to config.
type RunOptions struct {
	MaxSteps        int
	MaxPagesFetched int
	Mode            Mode
}

const stepLimitNote = "[Note: Reached step limit] "

// Run drives the model through the tool loop until it answers, a limit
// is reached, or the model transport fails. Tool and page failures are
// reported back to the model as tool results and never abort the run.
func (a *Agent) Run(ctx context.Context, prompt string, opts RunOptions) Result {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = a.cfg.MaxSteps
	}
	maxPagesFetched := opts.MaxPagesFetched
	if maxPagesFetched <= 0 {
		maxPagesFetched = a.cfg.MaxPagesFetched
	}
	mode := opts.Mode
	if mode == "" {
		mode = a.cfg.Mode
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(prompt),
	}
	tools := a.toolDefinitions()
	st := newRunState()
	lastAssistantText := ""

	for step := 0; step < maxSteps; step++ {
		a.log.Info().Int("step", step+1).Int("max_steps", maxSteps).Msg("agent step")

		msg, err := a.chat.Chat(ctx, a.cfg.Model, messages, tools)
		if err != nil {
			// The model transport is the one collaborator the loop
			// cannot route around.
			a.log.Error().Err(err).Msg("model call failed")
			return Result{
				Answer:  fmt.Sprintf("Error communicating with LLM: %v", err),
				Sources: st.sources(),
				Debug:   st.traces,
			}
		}

		if len(msg.ToolCalls) == 0 {
			answer := msg.Content
			a.log.Info().Int("answer_chars", len(answer)).Msg("agent completed with final answer")
			a.verifyProductURLs(ctx, st, maxPagesFetched, mode)
			return Result{
				Answer:  a.sanitizeAnswer(answer, st),
				Sources: st.sources(),
				Debug:   st.traces,
			}
		}
		if msg.Content != "" {
			lastAssistantText = msg.Content
		}

		assistantParam := msg.ToAssistantMessageParam()
		messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantParam})

		for _, call := range msg.ToolCalls {
			name := strings.TrimSpace(call.Function.Name)
			args := json.RawMessage(call.Function.Arguments)
			if !json.Valid(args) {
				a.log.Error().Str("tool", name).Msg("invalid tool call arguments")
				messages = append(messages, openai.ToolMessage("Invalid tool call arguments", call.ID))
				st.traces = append(st.traces, Trace{Step: step + 1, Tool: name})
				continue
			}

			a.log.Info().Str("tool", name).RawJSON("args", args).Msg("tool call")
			result := a.executeTool(ctx, st, name, args, maxPagesFetched)
			messages = append(messages, openai.ToolMessage(result.content, call.ID))

			if result.url != "" {
				st.attempted[result.url] = struct{}{}
				if result.verified {
					title := result.title
					if title == "" {
						title = result.url
					}
					st.addVerified(&urlRecord{
						URL:          result.url,
						Title:        title,
						Verdict:      result.verdict,
						ProductCount: result.productCount,
						Reason:       result.verificationReason,
						FinalURL:     result.finalURL,
						CanonicalURL: result.canonicalURL,
						SKU:          result.sku,
					})
				} else if result.rejectionReason != "" {
					st.rejected[result.url] = result.rejectionReason
				}
			}

			st.traces = append(st.traces, Trace{
				Step:         step + 1,
				Tool:         name,
				Args:         args,
				ResultLength: len(result.content),
				Success:      result.success,
			})

			if st.pagesFetched() >= maxPagesFetched && !st.budgetNotified {
				st.budgetNotified = true
				a.log.Warn().Int("max_pages_fetched", maxPagesFetched).Msg("page budget exhausted")
				messages = append(messages, openai.UserMessage(fmt.Sprintf(
					"Maximum number of pages fetched (%d). Please provide your final answer based on the information gathered so far.",
					maxPagesFetched)))
			}
		}
	}

	a.log.Warn().Int("max_steps", maxSteps).Msg("step budget exhausted")
	answer := a.stepLimitAnswer(lastAssistantText, st)
	answer = a.sanitizeAnswer(answer, st)
	a.verifyProductURLs(ctx, st, maxPagesFetched, mode)
	return Result{
		Answer:  answer,
		Sources: st.sources(),
		Debug:   st.traces,
	}
}

// stepLimitAnswer builds a best-effort answer when the loop runs out of
// steps before the model volunteers one.
func (a *Agent) stepLimitAnswer(lastAssistantText string, st *runState) string {
	if lastAssistantText != "" {
		return stepLimitNote + lastAssistantText
	}
	sources := st.sources()
	if len(sources) == 0 {
		return "I reached the step limit before finding any verified sources. Please try a different query or increase max_steps."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d verified source(s), but reached the step limit. Here's what I gathered:\n\n", len(sources))
	for _, src := range sources {
		fmt.Fprintf(&b, "- %s: %s\n", src.Title, src.URL)
	}
	return b.String()
}
