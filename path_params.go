// path_params.go: Path placeholder substitution interceptor
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// PathParamsName is the registry name of the path-parameter interceptor.
const PathParamsName = "path-params"

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// MissingParamPolicy decides what replaces a placeholder whose name has no
// matching parameter.
type MissingParamPolicy string

const (
	// MissingKeepPlaceholder leaves the {{name}} token in the path.
	MissingKeepPlaceholder MissingParamPolicy = "keep"
	// MissingUndefined substitutes the literal "undefined".
	MissingUndefined MissingParamPolicy = "undefined"
	// MissingEmpty substitutes the empty string.
	MissingEmpty MissingParamPolicy = "empty"
)

// Validate checks that the policy is one of the known values. The empty
// policy is accepted and means MissingKeepPlaceholder.
func (p MissingParamPolicy) Validate() error {
	switch p {
	case "", MissingKeepPlaceholder, MissingUndefined, MissingEmpty:
		return nil
	default:
		return NewInvalidMissingPolicyError(p)
	}
}

// PathParamsConfig configures the path-parameter interceptor.
type PathParamsConfig struct {
	MissingParam MissingParamPolicy `json:"missing_param" yaml:"missing_param"`
}

// PathParams rewrites {{name}} placeholders in a request path with values
// taken from the request's parameters, removing every consumed parameter so
// it is not serialized a second time.
//
// Every occurrence of the same name receives the same value; a consumed key
// is removed once, after all occurrences are substituted. Paths without
// placeholders are left untouched along with their parameters. The
// interceptor never fails: a missing name is resolved by MissingParamPolicy.
type PathParams struct {
	policy atomic.Value // MissingParamPolicy
	logger Logger
}

// NewPathParams creates the interceptor. An invalid policy falls back to
// MissingKeepPlaceholder; use PathParamsConfig.MissingParam.Validate to reject it up front.
func NewPathParams(config PathParamsConfig, logger any) *PathParams {
	p := &PathParams{
		logger: NewLogger(logger).With("interceptor", PathParamsName),
	}
	policy := config.MissingParam
	if policy == "" || policy.Validate() != nil {
		policy = MissingKeepPlaceholder
	}
	p.policy.Store(policy)
	return p
}

// Policy returns the active missing-parameter policy.
func (p *PathParams) Policy() MissingParamPolicy {
	return p.policy.Load().(MissingParamPolicy)
}

// SetPolicy replaces the missing-parameter policy for subsequent requests.
func (p *PathParams) SetPolicy(policy MissingParamPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	if policy == "" {
		policy = MissingKeepPlaceholder
	}
	p.policy.Store(policy)
	return nil
}

// OnConfigureRequest implements RequestInterceptor.
func (p *PathParams) OnConfigureRequest(view ConfigRequestView) {
	if view.Path == nil {
		return
	}
	*view.Path = p.Rewrite(*view.Path, view.Parameters)
}

// Rewrite substitutes the placeholders of path from params, deletes the
// consumed keys from params and returns the new path.
//
// Substitution is a single left-to-right pass over the original path: a value
// that itself looks like a placeholder is inserted literally, never expanded.
func (p *PathParams) Rewrite(path string, params map[string]any) string {
	if !strings.Contains(path, "{{") {
		return path
	}

	policy := p.Policy()
	consumed := make(map[string]struct{})
	rewritten := placeholderPattern.ReplaceAllStringFunc(path, func(token string) string {
		name := token[2 : len(token)-2]
		value, ok := params[name]
		if !ok {
			p.logger.Warn("Path placeholder has no matching parameter",
				"placeholder", name,
				"policy", string(policy))
			return missingValue(policy, token)
		}
		consumed[name] = struct{}{}
		return formatParam(value)
	})

	for name := range consumed {
		delete(params, name)
	}

	if len(consumed) > 0 {
		p.logger.Debug("Path placeholders resolved",
			"path", rewritten,
			"consumed", len(consumed),
			"remaining", len(params))
	}
	return rewritten
}

func missingValue(policy MissingParamPolicy, token string) string {
	switch policy {
	case MissingUndefined:
		return "undefined"
	case MissingEmpty:
		return ""
	default:
		return token
	}
}

// formatParam renders a parameter value the way the host framework would
// print it: lists are comma-joined and nil prints as "null".
func formatParam(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			if item == nil {
				continue
			}
			parts[i] = formatParam(item)
		}
		return strings.Join(parts, ",")
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
