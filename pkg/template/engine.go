package template

import (
	"context"
	"regexp"
	"sort"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/store"
)

// placeholderRe captures {name} and {{name}} tokens whose body matches
// [A-Za-z0-9_.]+. The double-brace alternative comes first so {{x}} is not
// consumed as a single-brace token. Unbalanced sequences never match and are
// left verbatim.
var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_.]+)\}\}|\{([A-Za-z0-9_.]+)\}`)

// ScanVariables returns the distinct variable names referenced in the given
// texts, sorted for determinism.
func ScanVariables(texts ...string) []string {
	seen := map[string]struct{}{}
	for _, text := range texts {
		for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Engine stores templates, keeps their variable usage in sync, and renders
// them against the registry.
type Engine struct {
	store    *store.Store
	registry *Registry
}

// NewEngine creates a template engine.
func NewEngine(st *store.Store, registry *Registry) *Engine {
	return &Engine{store: st, registry: registry}
}

// Registry exposes the engine's variable registry.
func (e *Engine) Registry() *Registry { return e.registry }

// CreateTemplate inserts a template and records its variable usage in one
// transaction. Unknown names are stubbed with category "unknown".
func (e *Engine) CreateTemplate(ctx context.Context, req store.CreateTemplateRequest) (*models.Template, error) {
	var tpl *models.Template
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		tpl, err = tx.InsertTemplate(ctx, req)
		if err != nil {
			return err
		}
		return e.syncUsage(ctx, tx, tpl)
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// UpdateTemplate updates a template's text and rebuilds its variable usage
// in one transaction.
func (e *Engine) UpdateTemplate(ctx context.Context, businessID, templateID, name, templateType, content, systemPrompt string) (*models.Template, error) {
	var tpl *models.Template
	err := e.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		tpl, err = tx.UpdateTemplateText(ctx, businessID, templateID, name, templateType, content, systemPrompt)
		if err != nil {
			return err
		}
		return e.syncUsage(ctx, tx, tpl)
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (e *Engine) syncUsage(ctx context.Context, tx *store.Store, tpl *models.Template) error {
	names := ScanVariables(tpl.Content, tpl.SystemPrompt)
	variableIDs := make([]string, 0, len(names))
	for _, name := range names {
		v, err := tx.EnsureVariable(ctx, name)
		if err != nil {
			return err
		}
		variableIDs = append(variableIDs, v.ID)
	}
	return tx.ReplaceVariableUsage(ctx, tpl.ID, variableIDs)
}

// Render substitutes every {name}/{{name}} token in the template's content
// and system prompt. A missing provider or a provider error substitutes the
// literal "[Missing: name]"; rendering never fails.
func (e *Engine) Render(tpl *models.Template, rc *RenderContext) (content, systemPrompt string) {
	return e.substitute(tpl.Content, rc), e.substitute(tpl.SystemPrompt, rc)
}

func (e *Engine) substitute(text string, rc *RenderContext) string {
	if text == "" {
		return ""
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		m := placeholderRe.FindStringSubmatch(token)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		return e.resolve(name, rc)
	})
}

// resolve computes one variable's value. Extracted-data entries shadow
// registered providers. Replacement is literal; no recursive expansion.
func (e *Engine) resolve(name string, rc *RenderContext) string {
	if rc.Extra != nil {
		if v, ok := rc.Extra[name]; ok {
			return v
		}
	}
	provider, ok := e.registry.Lookup(name)
	if !ok {
		return "[Missing: " + name + "]"
	}
	value, err := provider(rc)
	if err != nil {
		return "[Missing: " + name + "]"
	}
	return value
}
