package rules

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/compliance"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

var ErrInvalidRuleSet = errors.New("invalid compliance rule set")

// Rule is one entry of the rule file.
type Rule struct {
	Code string `yaml:"code"`
	// States the rule applies to; empty means every state.
	States []string `yaml:"states"`
	When   string   `yaml:"when"`
	Reason string   `yaml:"reason"`
}

type ruleSet struct {
	Rules []Rule `yaml:"rules"`
}

type compiledRule struct {
	Rule
	program cel.Program
}

// Engine evaluates the rule set with CEL. Programs are compiled once at load.
type Engine struct {
	rules []compiledRule
}

var _ ports.ComplianceRules = (*Engine)(nil)

// NewDefaultEngine loads the built-in rule set.
func NewDefaultEngine() (*Engine, error) {
	return Parse(defaultRules)
}

// LoadFile loads a rule set from disk, falling back to the built-in set when
// path is empty.
func LoadFile(path string) (*Engine, error) {
	if path == "" {
		return NewDefaultEngine()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Engine, error) {
	var set ruleSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleSet, err)
	}

	env, err := cel.NewEnv(
		cel.Variable("state", cel.StringType),
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	compiled := make([]compiledRule, 0, len(set.Rules))
	for i, r := range set.Rules {
		if strings.TrimSpace(r.Code) == "" || strings.TrimSpace(r.When) == "" {
			return nil, fmt.Errorf("%w: rule %d needs a code and a condition", ErrInvalidRuleSet, i)
		}
		ast, issues := env.Compile(r.When)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("%w: rule %s: compile: %w", ErrInvalidRuleSet, r.Code, issues.Err())
		}
		prg, err := env.Program(ast,
			cel.InterruptCheckFrequency(100),
			cel.CostLimit(10000),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: program: %w", ErrInvalidRuleSet, r.Code, err)
		}
		for j, s := range r.States {
			r.States[j] = strings.ToUpper(strings.TrimSpace(s))
		}
		compiled = append(compiled, compiledRule{Rule: r, program: prg})
	}

	return &Engine{rules: compiled}, nil
}

// Codes lists the reason codes in evaluation order.
func (e *Engine) Codes() []string {
	codes := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		codes = append(codes, r.Code)
	}
	return codes
}

// Evaluate returns the verdict of the first matching rule, or Allow when none
// matches. An evaluation error is returned as is; callers fail closed.
func (e *Engine) Evaluate(ctx context.Context, state kernel.StateCode, item cart.Item) (compliance.Verdict, error) {
	input := map[string]any{
		"state": state.String(),
		"item":  attributes(item),
	}

	for _, r := range e.rules {
		if err := ctx.Err(); err != nil {
			return compliance.Verdict{}, err
		}
		if len(r.States) > 0 && !slices.Contains(r.States, state.String()) {
			continue
		}

		out, _, err := r.program.ContextEval(ctx, input)
		if err != nil {
			return compliance.Verdict{}, fmt.Errorf("rule %s: eval: %w", r.Code, err)
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return compliance.Verdict{}, fmt.Errorf("rule %s: result not bool", r.Code)
		}
		if matched {
			return compliance.Block(state, r.Code, r.Reason), nil
		}
	}
	return compliance.Allow(), nil
}

func attributes(item cart.Item) map[string]any {
	a := item.Attributes()
	return map[string]any{
		"sku":                  item.SKU(),
		"category":             item.Category(),
		"manufacturer":         item.Manufacturer(),
		"requires_ffl":         item.RequiresFFL(),
		"is_firearm":           a.IsFirearm,
		"is_handgun":           a.IsHandgun,
		"is_magazine":          a.IsMagazine,
		"is_ammo":              a.IsAmmo,
		"has_assault_features": a.HasAssaultFeatures,
		"capacity":             int64(a.Capacity),
		"action_type":          a.ActionType,
		"roster_id":            a.RosterID,
	}
}
