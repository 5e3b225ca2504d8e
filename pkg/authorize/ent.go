package authorize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	entadapter "github.com/casbin/ent-adapter"
)

// DefaultModel is used when no model file is configured. "manage" on a
// resource grants every action on it.
const DefaultModel = `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = g(r.sub, p.sub, r.dom) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || keyMatch2(r.obj, p.obj)) && (p.act == "*" || p.act == "manage" || keyMatch(r.act, p.act))
`

// PolicyChannel is the LISTEN/NOTIFY channel replicas use to announce
// policy changes.
const PolicyChannel = "casbin_policy_update"

// policyReloadFailed is set when a watcher-triggered reload fails and
// cleared by the next successful one.
var policyReloadFailed atomic.Bool

// IsPolicyHealthy reports whether the last policy reload succeeded.
func IsPolicyHealthy() bool { return !policyReloadFailed.Load() }

// CleanupFunc releases what an enforcer constructor acquired.
type CleanupFunc func(ctx context.Context)

func noCleanup(context.Context) {}

// LoadModel reads the model at path, or DefaultModel when path is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(DefaultModel)
	}
	m, err := model.NewModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("authorize: load model %s: %w", path, err)
	}
	return m, nil
}

// NewEnforcer creates a DistributedEnforcer whose policies are stored in
// PostgreSQL through the ent adapter. With PolicySyncEnabled a watcher
// reloads them when another replica writes. The cleanup closes the watcher.
func NewEnforcer(cfg Config, dsn string) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	m, err := LoadModel(cfg.CasbinModelPath)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("authorize: policy adapter: %w", err)
	}
	e, err := casbin.NewDistributedEnforcer(m, adapter)
	if err != nil {
		return nil, nil, fmt.Errorf("authorize: enforcer: %w", err)
	}
	e.EnableAutoSave(true)
	e.EnableEnforce(true)

	if !cfg.PolicySyncEnabled {
		return e, noCleanup, nil
	}
	closeWatcher, err := watchPolicies(e, dsn)
	if err != nil {
		return nil, nil, err
	}
	return e, func(context.Context) {
		slog.Info("closing casbin policy watcher")
		closeWatcher()
	}, nil
}

func watchPolicies(e *casbin.DistributedEnforcer, dsn string) (func(), error) {
	w, err := psqlwatcher.NewWatcherWithConnString(context.Background(), dsn, psqlwatcher.Option{
		Channel: PolicyChannel,
	})
	if err != nil {
		return nil, fmt.Errorf("authorize: policy watcher: %w", err)
	}

	reload := func(msg string) {
		slog.Debug("casbin policy update received", "message", msg)
		err := e.LoadPolicy()
		policyReloadFailed.Store(err != nil)
		if err != nil {
			slog.Error("reload casbin policies", "error", err)
		}
	}
	if err := w.SetUpdateCallback(reload); err != nil {
		w.Close()
		return nil, fmt.Errorf("authorize: policy watcher callback: %w", err)
	}
	if err := e.SetWatcher(w); err != nil {
		w.Close()
		return nil, fmt.Errorf("authorize: attach policy watcher: %w", err)
	}
	return func() { w.Close() }, nil
}

// NewMemoryEnforcer builds an enforcer whose policies live only in process
// memory, backed by an empty scratch CSV file. It serves the memory
// database driver and tests.
func NewMemoryEnforcer(modelPath string) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.CreateTemp("", "odonto-policy-*.csv")
	if err != nil {
		return nil, nil, fmt.Errorf("authorize: scratch policy file: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	cleanup := func(context.Context) { _ = os.Remove(name) }

	e, err := casbin.NewDistributedEnforcer(m, fileadapter.NewAdapter(name))
	if err != nil {
		cleanup(context.Background())
		return nil, nil, fmt.Errorf("authorize: enforcer: %w", err)
	}
	e.EnableAutoSave(false)
	e.EnableEnforce(true)
	return e, cleanup, nil
}
