package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"moneyminder/internal/analytics"
	"moneyminder/internal/display"
	"moneyminder/internal/log"
	"moneyminder/internal/reconcile"
	"moneyminder/internal/tracker"
)

const fallbackAnswer = "Sorry, something went wrong while processing your question. Please try again."

// QueryContext identifies one question through the pipeline. Now is
// injectable so period math and execution timing are reproducible in tests.
type QueryContext struct {
	SessionID string
	QueryID   string
	Now       func() time.Time
}

func NewQueryContext(sessionID string) QueryContext {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return QueryContext{
		SessionID: sessionID,
		QueryID:   uuid.NewString(),
		Now:       time.Now,
	}
}

// Turn is one prior exchange in the conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Result is the full outcome of one question.
type Result struct {
	Answer     string         `json:"answer"`
	Views      []display.View `json:"views,omitempty"`
	ToolsUsed  []string       `json:"tools_used,omitempty"`
	ToolRounds int            `json:"tool_rounds"`
}

// Pipeline runs a question through the model's tool-calling loop, tracks
// every execution, adapts results for display and reconciles the final
// answer against the numbers the tools produced.
type Pipeline struct {
	model     Model
	executor  *Executor
	views     *display.Registry
	logger    *log.Logger
	maxRounds int
}

func NewPipeline(model Model, executor *Executor, views *display.Registry, logger *log.Logger, maxRounds int) *Pipeline {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Pipeline{
		model:     model,
		executor:  executor,
		views:     views,
		logger:    logger,
		maxRounds: maxRounds,
	}
}

// Answer never fails: model errors and panics anywhere below degrade to a
// generic answer so one bad query cannot take a chat session down.
func (p *Pipeline) Answer(ctx context.Context, qctx QueryContext, question string, history []Turn) (result Result) {
	logger := p.logger.WithQuery(qctx.SessionID, qctx.QueryID)
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Query pipeline panicked", log.FieldError, fmt.Sprint(r))
			result = Result{Answer: fallbackAnswer}
		}
	}()

	logger.InfoContext(ctx, "Processing query", log.FieldQuestionLen, len(question))

	trk := tracker.New()
	draft, rounds, err := p.runToolLoop(ctx, qctx, logger, question, history, trk)
	if err != nil {
		logger.ErrorContext(ctx, "Model call failed", log.FieldError, err.Error())
		return Result{Answer: fallbackAnswer}
	}

	records := trk.Completed()
	result = Result{
		Answer:     reconcile.Process(question, draft, records),
		ToolRounds: rounds,
	}
	for _, rec := range records {
		result.Views = append(result.Views, p.views.Render(question, rec))
		result.ToolsUsed = append(result.ToolsUsed, rec.Tool)
	}
	if result.Answer == "" {
		result.Answer = fallbackAnswer
	}

	logger.InfoContext(ctx, "Query answered",
		log.FieldToolRound, rounds,
		"tools", len(records))
	return result
}

func (p *Pipeline) runToolLoop(ctx context.Context, qctx QueryContext, logger *log.Logger, question string, history []Turn, trk *tracker.Tracker) (string, int, error) {
	contents := buildContents(history, question)
	config := &genai.GenerateContentConfig{
		Tools:             Declarations(),
		SystemInstruction: systemInstruction(qctx.Now),
	}

	var draft string
	rounds := 0
	for rounds < p.maxRounds {
		resp, err := p.model.Generate(ctx, contents, config)
		if err != nil {
			return "", rounds, err
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			draft = resp.Text()
			break
		}
		rounds++

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}

		for _, call := range calls {
			args := analytics.DecodeArgs(call.Name, call.Args)
			trk.Begin(call.Name, args, qctx.Now())

			payload, err := p.executor.Execute(ctx, args)
			if err != nil {
				payload = fmt.Sprintf("Error executing %s: %v", call.Name, err)
				logger.WarnContext(ctx, "Tool execution failed",
					log.FieldToolName, call.Name,
					log.FieldError, err.Error())
			}

			rec := trk.Finish(payload, qctx.Now())
			if rec != nil {
				log.LogToolExecution(ctx, logger, rec.Tool, rounds,
					rec.Duration.Milliseconds(), len(rec.Result))
			}

			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     call.Name,
						Response: map[string]any{"result": payload},
					},
				}},
			})
		}
	}
	return draft, rounds, nil
}

func buildContents(history []Turn, question string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == genai.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	return append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: question}},
	})
}

func systemInstruction(now func() time.Time) *genai.Content {
	prompt := fmt.Sprintf(`You are a personal finance assistant answering questions about the user's transaction ledger.
Today's date is %s.

Use the provided tools to look up real numbers before answering. Never invent amounts.
When a question spans two periods or categories, call the relevant tool once per period or category.
Answer concisely in plain prose with dollar amounts formatted like $12.34.`,
		now().Format("2006-01-02"))
	return &genai.Content{Parts: []*genai.Part{{Text: prompt}}}
}
