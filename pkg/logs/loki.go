package logs

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/grafana/loki-client-go/loki"
	promconfig "github.com/prometheus/common/config"
	"github.com/prometheus/common/model"
	slogloki "github.com/samber/slog-loki/v3"

	"github.com/Alijeyrad/odonto_backend/config"
)

var (
	lokiMu      sync.Mutex
	lokiClients []*loki.Client
)

func newLokiHandler(cfg *config.Config, level slog.Level) (slog.Handler, error) {
	endpoint := strings.TrimRight(cfg.Logging.Output.Loki.Endpoint, "/") + "/loki/api/v1/push"

	lc, err := loki.NewDefaultConfig(endpoint)
	if err != nil {
		return nil, fmt.Errorf("loki config: %w", err)
	}
	if u := cfg.Logging.Output.Loki.Username; u != "" {
		lc.Client.BasicAuth = &promconfig.BasicAuth{
			Username: u,
			Password: promconfig.Secret(cfg.Logging.Output.Loki.Password),
		}
	}
	lc.ExternalLabels.LabelSet = model.LabelSet{
		"service": model.LabelValue(cfg.Observability.ServiceName),
		"env":     model.LabelValue(cfg.Server.Environment),
	}

	client, err := loki.New(lc)
	if err != nil {
		return nil, fmt.Errorf("loki client: %w", err)
	}

	lokiMu.Lock()
	lokiClients = append(lokiClients, client)
	lokiMu.Unlock()

	return slogloki.Option{Level: level, Client: client}.NewLokiHandler(), nil
}

// Shutdown flushes and stops the Loki clients created by New.
func Shutdown() {
	lokiMu.Lock()
	defer lokiMu.Unlock()
	for _, c := range lokiClients {
		c.Stop()
	}
	lokiClients = nil
}
