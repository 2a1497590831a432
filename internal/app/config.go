package service

import (
	"github.com/okian/rankdelta/internal/config"
	"github.com/okian/rankdelta/internal/domain/params"
)

// WithConfig applies every service setting carried by cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		policy := params.DefaultPolicy()
		policy.OverflowRatio = cfg.RowOverflowRatio
		if len(cfg.LowerIsBetter) > 0 {
			policy.LowerIsBetter = append([]string(nil), cfg.LowerIsBetter...)
		}
		for _, opt := range []Option{
			WithDataDir(cfg.DataDir),
			WithLinksFile(cfg.LinksFile),
			WithCurrentPeriod(cfg.CurrentPeriod),
			WithMaxItems(cfg.MaxItems),
			WithPolicy(policy),
			WithAcronyms(cfg.Acronyms...),
			WithRenderTimeout(cfg.RenderTimeout()),
		} {
			opt(s)
		}
	}
}
