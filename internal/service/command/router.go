package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/tuskqa/internal/core"
)

type Router struct {
	commands map[string]core.Command
}

func New(commands []core.Command) *Router {
	c := &Router{commands: make(map[string]core.Command)}

	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	return c
}

// Execute runs input as a slash command. The bool is false when input is not
// a command and should be treated as a question.
func (c *Router) Execute(ctx context.Context, owner, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")
	// Telegram appends the bot name in groups: /facts@tuskqa_bot
	name, _, _ = strings.Cut(name, "@")
	args := parts[1:]

	if name == "help" || name == "start" {
		return c.help(), true
	}

	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command: /%s. Try /help.", name), true
	}

	result, err := cmd.Execute(ctx, owner, args)
	if err != nil {
		return failed(name, err), true
	}
	return result, true
}

// ListCommands is sorted by name.
func (c *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}

func (c *Router) help() string {
	items := []string{"Send any other text to ask a question about your data."}
	for _, cmd := range c.ListCommands() {
		items = append(items, fmt.Sprintf("/%s - %s", cmd.Name(), cmd.Description()))
	}
	return join(heading("Commands"), bullets(items))
}
