// Package ai drives the conversation with Claude: a bounded loop that
// sends the evolving message sequence, executes any requested tools, and
// feeds the results back until the model produces a final answer or the
// round budget forces one.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	maxTokens   = 800
	temperature = 0
)

// systemPrompt holds the static behavioral rules sent with every query.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with access to tools for course information.

Search Tool Usage:
- Use the search tool only for questions about specific course content or detailed educational materials
- Synthesize search results into accurate, fact-based responses
- If a search yields no results, state this clearly without offering alternatives

Course Outline Tool Usage:
- Use the outline tool when users ask about course structure, syllabus, lesson lists, or what a course covers
- It returns the course title, course link, and the complete lesson list

Response Protocol:
- General knowledge questions: answer from existing knowledge without searching
- Course-specific questions: search first, then answer
- Course structure questions: use the outline tool
- Provide direct answers only — no reasoning process, search explanations, or meta-commentary

All responses must be brief, clear, and educational. Provide only the direct answer to what was asked.`

// messageCreator is the slice of the Anthropic client the generator
// uses; *anthropic.MessageService satisfies it.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// ToolExecutor dispatches one named tool invocation. *tools.Registry
// satisfies it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (string, error)
}

// Generator orchestrates one query against the model. It holds no
// per-query state; every Generate call is independent.
type Generator struct {
	messages  messageCreator
	model     anthropic.Model
	maxRounds int
}

// New builds a Generator over an Anthropic client. maxRounds bounds the
// number of tool-execution rounds per query.
func New(client *anthropic.Client, model string, maxRounds int) *Generator {
	return &Generator{messages: client.Messages, model: anthropic.Model(model), maxRounds: maxRounds}
}

// loop states; the forced toolless final call is the awaitingModel branch
// taken once the round budget is spent, not a fallthrough.
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateExecutingTools
	stateDone
)

// Generate runs the query to completion and returns the final answer
// text. history, when non-empty, is appended to the system prompt. defs
// and executor enable tool use; with either absent the model answers in
// a single call. Model/network errors return unwrapped — mapping them to
// a user-visible failure is the transport layer's job.
func (g *Generator) Generate(ctx context.Context, query, history string, defs []anthropic.ToolUnionUnionParam, executor ToolExecutor) (string, error) {
	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
	}

	var response *anthropic.Message
	rounds := 0
	state := stateAwaitingModel

	for {
		switch state {
		case stateAwaitingModel:
			// Tools ride along only while the round budget lasts; the
			// at-budget call omits them entirely, forcing an answer.
			withTools := len(defs) > 0 && rounds < g.maxRounds

			resp, err := g.messages.New(ctx, g.buildParams(system, messages, defs, withTools))
			if err != nil {
				return "", err
			}
			response = resp

			if withTools && executor != nil && resp.StopReason == anthropic.MessageStopReasonToolUse {
				state = stateExecutingTools
			} else {
				state = stateDone
			}

		case stateExecutingTools:
			results := executeToolBlocks(ctx, response.Content, executor)
			messages = append(messages, assistantMessage(response.Content))
			messages = append(messages, anthropic.NewUserMessage(results...))
			rounds++
			state = stateAwaitingModel

		case stateDone:
			return firstText(response), nil
		}
	}
}

func (g *Generator) buildParams(system string, messages []anthropic.MessageParam, defs []anthropic.ToolUnionUnionParam, withTools bool) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.F(g.model),
		MaxTokens:   anthropic.Int(maxTokens),
		Temperature: anthropic.Float(temperature),
		System:      anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(system)}),
		Messages:    anthropic.F(messages),
	}
	if withTools {
		params.Tools = anthropic.F(defs)
		params.ToolChoice = anthropic.F[anthropic.ToolChoiceUnionParam](anthropic.ToolChoiceAutoParam{
			Type: anthropic.F(anthropic.ToolChoiceAutoTypeAuto),
		})
	}
	return params
}

// executeToolBlocks dispatches every tool-use block in emission order and
// returns one tool_result block per invocation, tagged with its call ID.
// A failure in one block becomes that block's result text and never
// aborts its siblings.
func executeToolBlocks(ctx context.Context, content []anthropic.ContentBlock, executor ToolExecutor) []anthropic.ContentBlockParamUnion {
	var results []anthropic.ContentBlockParamUnion
	for _, block := range content {
		if block.Type != anthropic.ContentBlockTypeToolUse {
			continue
		}
		text, err := executor.Execute(ctx, block.Name, block.Input)
		isError := false
		if err != nil {
			text = fmt.Sprintf("Tool execution error: %v", err)
			isError = true
		}
		results = append(results, anthropic.NewToolResultBlock(block.ID, text, isError))
	}
	return results
}

// assistantMessage re-wraps the model's raw content blocks as the
// assistant turn preceding the tool results.
func assistantMessage(content []anthropic.ContentBlock) anthropic.MessageParam {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(content))
	for _, block := range content {
		switch block.Type {
		case anthropic.ContentBlockTypeText:
			blocks = append(blocks, anthropic.NewTextBlock(block.Text))
		case anthropic.ContentBlockTypeToolUse:
			blocks = append(blocks, anthropic.ToolUseBlockParam{
				Type:  anthropic.F(anthropic.ToolUseBlockParamTypeToolUse),
				ID:    anthropic.F(block.ID),
				Name:  anthropic.F(block.Name),
				Input: anthropic.F[interface{}](block.Input),
			})
		}
	}
	return anthropic.MessageParam{
		Role:    anthropic.F(anthropic.MessageParamRoleAssistant),
		Content: anthropic.F(blocks),
	}
}

// firstText extracts the first text block of a response, or "" when the
// model returned none.
func firstText(response *anthropic.Message) string {
	for _, block := range response.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			return block.Text
		}
	}
	return ""
}
