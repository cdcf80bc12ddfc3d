package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the fields a command depends on. mode selects the
// command's requirement set so `train` does not demand a Notion token.
func (c *Config) Validate(mode string) error {
	var problems []string
	need := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	switch c.Store.Driver {
	case "sqlite":
		need(c.Store.Path, "store.path")
	case "postgres":
		need(c.Store.DatabaseURL, "store.database_url")
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "train", "predict":
		need(c.Model.ArtifactDir, "model.artifact_dir")
	case "enrich":
		need(c.Registry.BaseURL, "registry.base_url")
		if c.Enrich.DelaySecs < 0 || c.Enrich.BackoffSecs < 0 {
			problems = append(problems, "enrich delays must be >= 0")
		}
	case "serve":
		need(c.Model.ArtifactDir, "model.artifact_dir")
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "export":
		need(c.Notion.Token, "notion.token")
		need(c.Notion.PredictionDB, "notion.prediction_db")
	case "assistant":
		need(c.Anthropic.Key, "anthropic.key")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
