package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskqa/pkg/log"
)

type MetricsConfig struct {
	Enabled bool   `env:"TUSKQA_METRICS_ENABLED" envDefault:"false"`
	Addr    string `env:"TUSKQA_METRICS_ADDR" envDefault:"127.0.0.1:9464"`
}

func NewMetricsConfig(ctx context.Context) *MetricsConfig {
	c := &MetricsConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Metrics config")
	}
	return c
}
