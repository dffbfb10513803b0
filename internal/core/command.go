package core

import "context"

// Command is a slash command shared by the chat surfaces.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, owner string, args []string) (string, error)
}
