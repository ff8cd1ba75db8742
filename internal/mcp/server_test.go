package mcp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"secrules/internal/config"
	"secrules/internal/dispatch"
	"secrules/internal/logging"
	"secrules/internal/rules"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *bytes.Buffer) {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{Locale: "en"}
	}

	logger, buf := logging.NewTestLogger()
	s, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s, buf
}

// dispatchText runs one registered operation and returns its string result.
func dispatchText(t *testing.T, s *Server, category dispatch.Category, name string, params map[string]any) string {
	t.Helper()

	result, err := s.Registry().Dispatch(context.Background(), category, name, params)
	if err != nil {
		t.Fatalf("Dispatch(%s, %q) error = %v", category, name, err)
	}
	text, ok := result.(string)
	if !ok {
		t.Fatalf("Dispatch(%s, %q) result = %T, want string", category, name, result)
	}
	return text
}

func TestNewServerRequiresConfig(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Fatal("NewServer(nil, nil) expected error, got nil")
	}
}

func TestCatalogRegistration(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		category dispatch.Category
		name     string
		want     bool
	}{
		{dispatch.CategoryTool, "list_rules", true},
		{dispatch.CategoryTool, "get_rule", true},
		{dispatch.CategoryTool, "delete_all", false},
		{dispatch.CategoryTool, "execute_command", false},
		{dispatch.CategoryResource, "rule://index", true},
		{dispatch.CategoryResource, "rule://en/sec-001", true},
		{dispatch.CategoryResource, "rule://es/sec-012", true},
		{dispatch.CategoryResource, "rule://fr/sec-001", false},
		{dispatch.CategoryPrompt, "explain_rule", true},
		{dispatch.CategoryPrompt, "audit_code", true},
		// names never leak across categories
		{dispatch.CategoryResource, "list_rules", false},
		{dispatch.CategoryPrompt, "get_rule", false},
	}

	for _, tt := range tests {
		if got := s.Registry().Has(tt.category, tt.name); got != tt.want {
			t.Errorf("Has(%s, %q) = %v, want %v", tt.category, tt.name, got, tt.want)
		}
	}

	if got := s.Registry().Names(dispatch.CategoryTool); len(got) != 2 {
		t.Errorf("tool names = %v, want exactly list_rules and get_rule", got)
	}
	// index plus one resource per writeup in each locale
	if got := len(s.Registry().Names(dispatch.CategoryResource)); got != 1+s.Corpus().Len() {
		t.Errorf("resource count = %d, want %d", got, 1+s.Corpus().Len())
	}
}

func TestListRules(t *testing.T) {
	s, _ := newTestServer(t, nil)

	out := dispatchText(t, s, dispatch.CategoryTool, "list_rules", map[string]any{})
	for _, id := range s.Corpus().IDs() {
		if !strings.Contains(out, id) {
			t.Errorf("list_rules output missing %s", id)
		}
	}
	if !strings.Contains(out, "Command injection in tool handlers") {
		t.Errorf("list_rules output missing titles:\n%s", out)
	}

	critical := dispatchText(t, s, dispatch.CategoryTool, "list_rules", map[string]any{"severity": "critical"})
	if !strings.Contains(critical, "SEC-001") || !strings.Contains(critical, "SEC-004") {
		t.Errorf("critical filter dropped a critical writeup:\n%s", critical)
	}
	if strings.Contains(critical, "SEC-008") || strings.Contains(critical, "SEC-012") {
		t.Errorf("critical filter kept a non-critical writeup:\n%s", critical)
	}

	low := dispatchText(t, s, dispatch.CategoryTool, "list_rules", map[string]any{"severity": "low"})
	if lines := strings.Count(strings.TrimSpace(low), "\n") + 1; lines != 1 {
		t.Errorf("low filter returned %d lines, want 1:\n%s", lines, low)
	}

	_, err := s.Registry().Dispatch(context.Background(), dispatch.CategoryTool, "list_rules",
		map[string]any{"severity": "catastrophic"})
	if err == nil || !strings.Contains(err.Error(), "unknown severity") {
		t.Errorf("bad severity error = %v, want unknown severity message", err)
	}
}

func TestListRulesSpanish(t *testing.T) {
	s, _ := newTestServer(t, nil)

	out := dispatchText(t, s, dispatch.CategoryTool, "list_rules", map[string]any{"locale": "es"})
	if !strings.Contains(out, "Inyección de comandos en manejadores de herramientas") {
		t.Errorf("Spanish listing missing translated title:\n%s", out)
	}
}

func TestGetRule(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name      string
		params    map[string]any
		want      []string
		errorText string
	}{
		{
			name:   "lowercase id",
			params: map[string]any{"id": "sec-008"},
			want:   []string{"# SEC-008: Missing timeouts on tool execution", "- Severity: medium"},
		},
		{
			name:   "spanish locale",
			params: map[string]any{"id": "SEC-008", "locale": "es"},
			want:   []string{"tiempos límite", "- Locale: es"},
		},
		{
			name:   "unknown locale falls back to english",
			params: map[string]any{"id": "SEC-001", "locale": "fr"},
			want:   []string{"Command injection in tool handlers"},
		},
		{
			name:      "missing id",
			params:    map[string]any{},
			errorText: "missing required parameter",
		},
		{
			name:      "non-string id",
			params:    map[string]any{"id": 42},
			errorText: "must be a string",
		},
		{
			name:      "unknown id",
			params:    map[string]any{"id": "sec-999"},
			errorText: `no writeup with id "SEC-999"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Registry().Dispatch(context.Background(), dispatch.CategoryTool, "get_rule", tt.params)
			if tt.errorText != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got result %v", tt.errorText, result)
				}
				if !strings.Contains(err.Error(), tt.errorText) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errorText)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			text := result.(string)
			for _, want := range tt.want {
				if !strings.Contains(text, want) {
					t.Errorf("writeup missing %q:\n%s", want, text)
				}
			}
		})
	}
}

func TestDispatchUnknownOperation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	_, err := s.Registry().Dispatch(context.Background(), dispatch.CategoryTool, "delete_all", nil)
	var unknown *dispatch.UnknownOperationError
	if !errors.As(err, &unknown) {
		t.Fatalf("Dispatch(delete_all) error = %v, want UnknownOperationError", err)
	}
	if unknown.Category != dispatch.CategoryTool || unknown.Name != "delete_all" {
		t.Errorf("error names (%s, %q), want (tool, delete_all)", unknown.Category, unknown.Name)
	}

	// a tool name is not a resource name
	_, err = s.Registry().Dispatch(context.Background(), dispatch.CategoryResource, "list_rules", nil)
	if !dispatch.IsUnknownOperation(err) {
		t.Errorf("cross-category dispatch error = %v, want UnknownOperationError", err)
	}
}

func TestIndexResource(t *testing.T) {
	s, _ := newTestServer(t, nil)

	out := dispatchText(t, s, dispatch.CategoryResource, "rule://index", map[string]any{"uri": "rule://index"})
	for _, want := range []string{"# Security rule corpus", "## en", "## es", "rule://en/sec-001", "SEC-012"} {
		if !strings.Contains(out, want) {
			t.Errorf("index missing %q:\n%s", want, out)
		}
	}
}

func TestRuleResource(t *testing.T) {
	s, _ := newTestServer(t, nil)

	uri := "rule://es/sec-009"
	out := dispatchText(t, s, dispatch.CategoryResource, uri, map[string]any{"uri": uri})
	if !strings.Contains(out, "SEC-009") || !strings.Contains(out, "Manejo inseguro de errores") {
		t.Errorf("resource %s returned wrong writeup:\n%s", uri, out)
	}
}

func TestExplainRulePrompt(t *testing.T) {
	s, _ := newTestServer(t, nil)

	out := dispatchText(t, s, dispatch.CategoryPrompt, "explain_rule", map[string]any{"id": "sec-001"})
	for _, want := range []string{"Explain security rule SEC-001", "Command injection in tool handlers"} {
		if !strings.Contains(out, want) {
			t.Errorf("explain_rule prompt missing %q:\n%s", want, out)
		}
	}

	_, err := s.Registry().Dispatch(context.Background(), dispatch.CategoryPrompt, "explain_rule", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "missing required parameter") {
		t.Errorf("explain_rule without id error = %v, want missing parameter message", err)
	}
}

func TestAuditCodePrompt(t *testing.T) {
	s, _ := newTestServer(t, nil)

	code := `out, _ := exec.Command("sh", "-c", userInput).Output()`
	out := dispatchText(t, s, dispatch.CategoryPrompt, "audit_code", map[string]any{
		"code":  code,
		"focus": "command execution",
	})

	for _, want := range []string{code, "SEC-001", "SEC-012", "Concentrate on: command execution", "```"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit_code prompt missing %q:\n%s", want, out)
		}
	}
}

func TestDemoToolsOptIn(t *testing.T) {
	cfg := &config.Config{
		Locale:     "en",
		StorageDir: t.TempDir(),
		DemoTools:  true,
	}
	s, buf := newTestServer(t, cfg)

	for _, name := range []string{"execute_command", "read_file", "write_file", "delete_file", "list_files", "get_env"} {
		if !s.Registry().Has(dispatch.CategoryTool, name) {
			t.Errorf("demo tool %q not registered", name)
		}
	}
	if s.Registry().Has(dispatch.CategoryTool, "delete_all") {
		t.Error("delete_all must never be registered, even with demo tools on")
	}
	if !strings.Contains(buf.String(), "intentionally vulnerable") {
		t.Error("expected a loud warning when demo tools are enabled")
	}

	workspace := filepath.Join(cfg.StorageDir, "demo-workspace")
	if info, err := os.Stat(workspace); err != nil || !info.IsDir() {
		t.Errorf("demo workspace %s was not created: %v", workspace, err)
	}
}

func TestServerPrefersMaterializedCorpus(t *testing.T) {
	logger, _ := logging.NewTestLogger()
	embedded, err := rules.Embedded(logger)
	if err != nil {
		t.Fatalf("Embedded() error = %v", err)
	}

	cfg := &config.Config{Locale: "en", StorageDir: t.TempDir()}
	if err := embedded.Materialize(cfg.CorpusDir()); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	s, buf := newTestServer(t, cfg)
	if !strings.Contains(buf.String(), "Corpus loaded from storage") {
		t.Errorf("expected the materialized corpus to win, log:\n%s", buf.String())
	}
	if s.Corpus().Len() != embedded.Len() {
		t.Errorf("corpus size = %d, want %d", s.Corpus().Len(), embedded.Len())
	}
}
