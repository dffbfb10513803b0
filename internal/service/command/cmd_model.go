package command

import (
	"context"

	"github.com/sandevgo/tuskqa/internal/core"
)

type ModelCommand struct {
	cfg core.ProviderConfig
}

func NewModelCommand(cfg core.ProviderConfig) *ModelCommand {
	return &ModelCommand{cfg: cfg}
}

func (c *ModelCommand) Name() string        { return "model" }
func (c *ModelCommand) Description() string { return "Show the model answering questions" }

func (c *ModelCommand) Execute(context.Context, string, []string) (string, error) {
	return join(
		heading("Answering model"),
		field("Provider", c.cfg.GetProvider())+field("Model", c.cfg.GetModel()),
		hint("change it with TUSKQA_LLM_PROVIDER and TUSKQA_LLM_MODEL, or run tuskqa install"),
	), nil
}
