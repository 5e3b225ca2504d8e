package authorize

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Alijeyrad/odonto_backend/internal/domain"
	"github.com/Alijeyrad/odonto_backend/pkg/reqctx"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestAuditedAuthorizationLogsDenialWithRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	authz := NewAuditedAuthorization(newTestAuthorization(t), logger)

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{RequestID: "req-42"})
	ctx = reqctx.WithPrincipal(ctx, domain.Principal{UserID: uuid.New(), Role: domain.RoleAlumno})

	if err := authz.MustEnforce(ctx, "someone", DomainSys, ResourceAudit, ActionRead); err != ErrForbidden {
		t.Fatalf("MustEnforce() = %v, want ErrForbidden", err)
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %s", len(lines), buf.String())
	}
	got := lines[0]
	if got["msg"] != "authz_decision" || got["level"] != "WARN" {
		t.Errorf("unexpected line %v", got)
	}
	if got["request_id"] != "req-42" || got["role"] != string(domain.RoleAlumno) {
		t.Errorf("request attributes missing: %v", got)
	}
}

func TestAuditedAuthorizationQuietOnRepeatedSeed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	authz := NewAuditedAuthorization(newTestAuthorization(t), logger)
	ctx := context.Background()

	if _, err := authz.AddPermission(ctx, RoleAlumno, DomainSys, ResourcePhoto, ActionRead, EffectAllow); err != nil {
		t.Fatal(err)
	}
	first := len(decodeLines(t, &buf))

	added, err := authz.AddPermission(ctx, RoleAlumno, DomainSys, ResourcePhoto, ActionRead, EffectAllow)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("second AddPermission should report no change")
	}
	if got := len(decodeLines(t, &buf)); got != first {
		t.Errorf("repeated seed logged at info: %d lines, want %d", got, first)
	}
}
