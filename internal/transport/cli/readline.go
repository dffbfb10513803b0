package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/service/command"
	"github.com/sandevgo/tuskqa/internal/service/qa"
	"github.com/sandevgo/tuskqa/internal/service/ui"
	"github.com/sandevgo/tuskqa/pkg/conv"
	"github.com/sandevgo/tuskqa/pkg/log"
)

// Asker answers one question for an owner.
type Asker interface {
	Ask(ctx context.Context, owner, question string) (qa.Answer, error)
}

var (
	footerStyle = lipgloss.NewStyle().Foreground(ui.SubtleColor)
	errorStyle  = lipgloss.NewStyle().Foreground(ui.ErrorColor)
)

type ReadLine struct {
	owner  string
	qa     Asker
	router *command.Router
	rl     *readline.Instance
}

func NewReadLine(cfg core.AppConfig, asker Asker, router *command.Router) (*ReadLine, error) {
	if err := os.MkdirAll(cfg.GetRuntimePath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "?> ",
		HistoryFile:     filepath.Join(cfg.GetRuntimePath(), "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		owner:  cfg.GetOwner(),
		qa:     asker,
		router: router,
		rl:     rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ask anything about your data, /help for commands, 'exit' to quit")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		r.handle(ctx, r.rl.Stdout(), line)
	}
}

func (r *ReadLine) handle(ctx context.Context, out io.Writer, line string) {
	if reply, ok := r.router.Execute(ctx, r.owner, line); ok {
		fmt.Fprintln(out, conv.MarkdownToText(reply))
		return
	}

	ans, err := r.qa.Ask(ctx, r.owner, line)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("ask failed")
		fmt.Fprintln(out, errorStyle.Render("Error: "+err.Error()))
		return
	}
	fmt.Fprintln(out, RenderAnswer(ans))
}

// RenderAnswer prints the answer with a dimmed sources line.
func RenderAnswer(ans qa.Answer) string {
	var footer []string
	if len(ans.Citations) > 0 {
		footer = append(footer, "sources: "+strings.Join(ans.Citations, ", "))
	}
	if ans.Confidence != nil {
		footer = append(footer, fmt.Sprintf("confidence %.2f", *ans.Confidence))
	}
	if ans.Path == qa.PathFallback && ans.Reason != "" {
		footer = append(footer, "fallback: "+ans.Reason)
	}
	if len(footer) == 0 {
		return ans.Text
	}
	return ans.Text + "\n" + footerStyle.Render(strings.Join(footer, " · "))
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
