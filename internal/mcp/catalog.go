package mcp

import (
	"context"
	"fmt"
	"strings"

	"secrules/internal/dispatch"
	"secrules/internal/rules"

	"github.com/mark3labs/mcp-go/mcp"
)

const indexURI = "rule://index"

// ruleURI builds the canonical resource URI for one writeup.
func ruleURI(locale, id string) string {
	return fmt.Sprintf("rule://%s/%s", locale, strings.ToLower(id))
}

// addTool binds one tool in both tables: the dispatch registry, which owns
// routing, and the protocol catalog, which owns listing.
func (s *Server) addTool(tool mcp.Tool, handler dispatch.Handler) error {
	if err := s.registry.Register(dispatch.CategoryTool, tool.Name, handler); err != nil {
		return err
	}
	s.mcpServer.AddTool(tool, s.bridgeTool(tool.Name))
	return nil
}

func (s *Server) addResource(resource mcp.Resource, handler dispatch.Handler) error {
	if err := s.registry.Register(dispatch.CategoryResource, resource.URI, handler); err != nil {
		return err
	}
	s.mcpServer.AddResource(resource, s.bridgeResource(resource.URI))
	return nil
}

func (s *Server) addPrompt(prompt mcp.Prompt, handler dispatch.Handler) error {
	if err := s.registry.Register(dispatch.CategoryPrompt, prompt.Name, handler); err != nil {
		return err
	}
	s.mcpServer.AddPrompt(prompt, s.bridgePrompt(prompt.Name, prompt.Description))
	return nil
}

func (s *Server) registerCorpusTools() error {
	listTool := mcp.NewTool("list_rules",
		mcp.WithDescription("List the security rule writeups with their IDs, severities, and titles."),
		mcp.WithString("locale",
			mcp.Description("Locale to list (en, es); defaults to the configured locale"),
		),
		mcp.WithString("severity",
			mcp.Description("Only writeups of this severity (critical, high, medium, low)"),
		),
	)
	if err := s.addTool(listTool, s.handleListRules); err != nil {
		return err
	}

	getTool := mcp.NewTool("get_rule",
		mcp.WithDescription("Return the full markdown writeup for one security rule."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Rule ID, e.g. SEC-008; case-insensitive"),
		),
		mcp.WithString("locale",
			mcp.Description("Writeup locale (en, es); defaults to the configured locale"),
		),
	)
	return s.addTool(getTool, s.handleGetRule)
}

func (s *Server) registerResources() error {
	index := mcp.NewResource(indexURI, "Security rule index",
		mcp.WithResourceDescription("Index of every writeup in the corpus, per locale"),
		mcp.WithMIMEType("text/markdown"),
	)
	if err := s.addResource(index, s.handleIndexResource); err != nil {
		return err
	}

	for _, locale := range s.corpus.Locales() {
		for _, id := range s.corpus.IDs() {
			r, ok := s.corpus.Get(id, locale)
			if !ok {
				continue
			}
			resource := mcp.NewResource(ruleURI(locale, id), fmt.Sprintf("%s (%s)", id, locale),
				mcp.WithResourceDescription(r.Description),
				mcp.WithMIMEType("text/markdown"),
			)
			if err := s.addResource(resource, s.ruleResourceHandler(id, locale)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Server) registerPrompts() error {
	explain := mcp.NewPrompt("explain_rule",
		mcp.WithPromptDescription("Explain one security rule to a developer audience."),
		mcp.WithArgument("id",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("Rule ID, e.g. SEC-008"),
		),
		mcp.WithArgument("locale",
			mcp.ArgumentDescription("Writeup locale (en, es)"),
		),
	)
	if err := s.addPrompt(explain, s.handleExplainRule); err != nil {
		return err
	}

	audit := mcp.NewPrompt("audit_code",
		mcp.WithPromptDescription("Review code against the security rule corpus."),
		mcp.WithArgument("code",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("Source code to review"),
		),
		mcp.WithArgument("focus",
			mcp.ArgumentDescription("Optional area to concentrate on, e.g. 'file handling'"),
		),
	)
	return s.addPrompt(audit, s.handleAuditCode)
}

// registerDemoTools publishes the intentionally vulnerable toolset. Note
// that delete_all, the unknown-operation example the writeups use, is never
// registered anywhere.
func (s *Server) registerDemoTools() error {
	for _, tool := range s.demo.Tools() {
		opts := []mcp.ToolOption{mcp.WithDescription(tool.Description)}
		for _, p := range tool.Params {
			propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
			if p.Required {
				propOpts = append(propOpts, mcp.Required())
			}
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
		if err := s.addTool(mcp.NewTool(tool.Name, opts...), tool.Handler); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleListRules(ctx context.Context, params map[string]any) (any, error) {
	locale := optionalString(params, "locale", s.config.Locale)
	if locale == "" {
		locale = rules.DefaultLocale
	}

	var severity rules.Severity
	if raw := optionalString(params, "severity", ""); raw != "" {
		parsed, err := rules.ParseSeverity(raw)
		if err != nil {
			return nil, userErrorf("unknown severity %q; use critical, high, medium, or low", raw)
		}
		severity = parsed
	}

	var b strings.Builder
	count := 0
	for _, r := range s.corpus.List(locale) {
		if severity != "" && r.Severity != severity {
			continue
		}
		fmt.Fprintf(&b, "%s  %-8s  %s\n", r.ID, r.Severity, r.Title)
		count++
	}

	if count == 0 {
		return fmt.Sprintf("no writeups with severity %q", severity), nil
	}
	return b.String(), nil
}

func (s *Server) handleGetRule(ctx context.Context, params map[string]any) (any, error) {
	id, err := requireString(params, "id")
	if err != nil {
		return nil, err
	}
	locale := optionalString(params, "locale", s.config.Locale)
	if locale == "" {
		locale = rules.DefaultLocale
	}

	r, ok := s.corpus.Get(id, locale)
	if !ok {
		return nil, userErrorf("no writeup with id %q; call list_rules for the catalog", rules.NormalizeID(id))
	}
	return r.Document(), nil
}

func (s *Server) handleIndexResource(ctx context.Context, params map[string]any) (any, error) {
	var b strings.Builder
	b.WriteString("# Security rule corpus\n")

	for _, locale := range s.corpus.Locales() {
		fmt.Fprintf(&b, "\n## %s\n\n", locale)
		for _, id := range s.corpus.IDs() {
			r, ok := s.corpus.Get(id, locale)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- [%s] %s (%s) <%s>\n", r.ID, r.Title, r.Severity, ruleURI(locale, r.ID))
		}
	}
	return b.String(), nil
}

func (s *Server) ruleResourceHandler(id, locale string) dispatch.Handler {
	return func(ctx context.Context, params map[string]any) (any, error) {
		r, ok := s.corpus.Get(id, locale)
		if !ok {
			return nil, userErrorf("writeup %s is not available in locale %s", id, locale)
		}
		return r.Document(), nil
	}
}

func (s *Server) handleExplainRule(ctx context.Context, params map[string]any) (any, error) {
	id, err := requireString(params, "id")
	if err != nil {
		return nil, err
	}
	locale := optionalString(params, "locale", s.config.Locale)
	if locale == "" {
		locale = rules.DefaultLocale
	}

	r, ok := s.corpus.Get(id, locale)
	if !ok {
		return nil, userErrorf("no writeup with id %q", rules.NormalizeID(id))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Explain security rule %s (%q) to a developer building an MCP server. ", r.ID, r.Title)
	b.WriteString("Cover what the weakness is, how it gets exploited, and what the fix looks like in practice. ")
	b.WriteString("Keep it concrete and base your explanation on the writeup below.\n\n")
	b.WriteString(r.Document())
	return b.String(), nil
}

func (s *Server) handleAuditCode(ctx context.Context, params map[string]any) (any, error) {
	code, err := requireString(params, "code")
	if err != nil {
		return nil, err
	}
	focus := optionalString(params, "focus", "")

	var b strings.Builder
	b.WriteString("Review the following code against this security rule corpus. ")
	b.WriteString("For each finding, name the rule ID, quote the offending lines, and suggest the fix the rule recommends.\n\nRules:\n")
	for _, r := range s.corpus.List(rules.DefaultLocale) {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.ID, r.Severity, r.Description)
	}
	if focus != "" {
		fmt.Fprintf(&b, "\nConcentrate on: %s\n", focus)
	}
	b.WriteString("\nCode under review:\n\n```\n")
	b.WriteString(code)
	b.WriteString("\n```\n")
	return b.String(), nil
}
