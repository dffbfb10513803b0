package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"strings"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/service/qa"
	"github.com/sandevgo/tuskqa/pkg/log"
)

// QA is the part of the QA service exposed as tools.
type QA interface {
	Ask(ctx context.Context, owner, question string) (qa.Answer, error)
	IngestFact(ctx context.Context, owner, text, source string, at time.Time) (string, error)
	ForgetFact(ctx context.Context, owner, factID string) error
	ListFacts(ctx context.Context, owner string) ([]core.Fact, error)
}

// Server exposes the owner's QA over the Model Context Protocol on stdio.
// Stdout carries protocol frames only; logs must go to stderr.
type Server struct {
	qa    QA
	owner string
	mcp   *mcpsrv.MCPServer
	in    io.Reader
	out   io.Writer
	errw  io.Writer
}

func NewServer(owner string, svc QA, in io.Reader, out, errw io.Writer) *Server {
	s := &Server{qa: svc, owner: owner, in: in, out: out, errw: errw}

	s.mcp = mcpsrv.NewMCPServer(core.AppName, core.AppVersion,
		mcpsrv.WithToolCapabilities(false),
		mcpsrv.WithRecovery(),
	)

	s.mcp.AddTool(mcpproto.NewTool("ask",
		mcpproto.WithDescription("Answer a question from the user's own facts, meals and check-ins, citing evidence ids."),
		mcpproto.WithString("question", mcpproto.Required(), mcpproto.Description("The question to answer")),
	), s.handleAsk)

	s.mcp.AddTool(mcpproto.NewTool("ingest_fact",
		mcpproto.WithDescription("Remember a fact about the user."),
		mcpproto.WithString("text", mcpproto.Required(), mcpproto.Description("The fact, in one sentence")),
		mcpproto.WithString("source", mcpproto.Description("Where the fact came from")),
	), s.handleIngest)

	s.mcp.AddTool(mcpproto.NewTool("forget_fact",
		mcpproto.WithDescription("Forget a fact by id."),
		mcpproto.WithString("id", mcpproto.Required(), mcpproto.Description("Fact id, with or without the fact_ prefix")),
	), s.handleForget)

	s.mcp.AddTool(mcpproto.NewTool("list_facts",
		mcpproto.WithDescription("List every remembered fact."),
	), s.handleList)

	return s
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("serving MCP on stdio")

	stdio := mcpsrv.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(s.errw, "mcp: ", stdlog.LstdFlags))

	if err := stdio.Listen(ctx, s.in, s.out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(context.Context) error {
	return nil
}

type askResult struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence *float64 `json:"confidence,omitempty"`
	Path       string   `json:"path"`
	NeedsWeb   bool     `json:"needs_web,omitempty"`
}

func (s *Server) handleAsk(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	ans, err := s.qa.Ask(ctx, s.owner, question)
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(askResult{
		Answer:     ans.Text,
		Citations:  ans.Citations,
		Confidence: ans.Confidence,
		Path:       string(ans.Path),
		NeedsWeb:   ans.NeedsWeb,
	})
	if err != nil {
		return nil, err
	}
	return mcpproto.NewToolResultText(string(data)), nil
}

func (s *Server) handleIngest(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	source := req.GetString("source", "mcp")

	id, err := s.qa.IngestFact(ctx, s.owner, text, source, time.Now())
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return mcpproto.NewToolResultText("fact_" + id), nil
}

func (s *Server) handleForget(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	if err := s.qa.ForgetFact(ctx, s.owner, id); err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return mcpproto.NewToolResultText("forgot " + id), nil
}

func (s *Server) handleList(ctx context.Context, _ mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	facts, err := s.qa.ListFacts(ctx, s.owner)
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	if len(facts) == 0 {
		return mcpproto.NewToolResultText("no facts"), nil
	}

	var sb strings.Builder
	for _, f := range facts {
		fmt.Fprintf(&sb, "fact_%s: %s", f.ID, f.Content)
		if !f.At.IsZero() {
			fmt.Fprintf(&sb, " (%s)", f.At.Format(time.RFC3339))
		}
		sb.WriteByte('\n')
	}
	return mcpproto.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}
