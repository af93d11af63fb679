package condition

import (
	"context"
	"regexp"
	"strings"

	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/invoke"
)

// propertyMatch compares a named property against an expected value. All
// comparisons are case-sensitive unless fold is set.
type propertyMatch struct {
	src    config.Source
	name   string
	value  string
	fold   bool
	negate bool
}

func (p propertyMatch) Evaluate(context.Context, *invoke.Invocation) (bool, error) {
	actual, ok := p.src.GetProperty(p.name)
	var matched bool
	if ok {
		if p.fold {
			matched = strings.EqualFold(actual, p.value)
		} else {
			matched = actual == p.value
		}
	}
	if p.negate {
		return !matched, nil
	}
	return matched, nil
}

// PropertyEquals is true when the named property exists and equals value.
func PropertyEquals(src config.Source, name, value string) Condition {
	return propertyMatch{src: src, name: name, value: value}
}

// PropertyNotEquals is true when the named property is absent or differs
// from value.
func PropertyNotEquals(src config.Source, name, value string) Condition {
	return propertyMatch{src: src, name: name, value: value, negate: true}
}

// PropertyEqualsFold is the case-insensitive variant of PropertyEquals.
func PropertyEqualsFold(src config.Source, name, value string) Condition {
	return propertyMatch{src: src, name: name, value: value, fold: true}
}

// PropertyNotEqualsFold is the case-insensitive variant of PropertyNotEquals.
func PropertyNotEqualsFold(src config.Source, name, value string) Condition {
	return propertyMatch{src: src, name: name, value: value, fold: true, negate: true}
}

type propertyExists struct {
	src    config.Source
	name   string
	negate bool
}

func (p propertyExists) Evaluate(context.Context, *invoke.Invocation) (bool, error) {
	_, ok := p.src.GetProperty(p.name)
	if p.negate {
		return !ok, nil
	}
	return ok, nil
}

// PropertyExists is true when the named property is set, regardless of value.
func PropertyExists(src config.Source, name string) Condition {
	return propertyExists{src: src, name: name}
}

// PropertyNotExists is true when the named property is not set.
func PropertyNotExists(src config.Source, name string) Condition {
	return propertyExists{src: src, name: name, negate: true}
}

type propertyRegex struct {
	src     config.Source
	name    string
	pattern *regexp.Regexp
}

func (p propertyRegex) Evaluate(context.Context, *invoke.Invocation) (bool, error) {
	actual, ok := p.src.GetProperty(p.name)
	if !ok {
		return false, nil
	}
	return p.pattern.MatchString(actual), nil
}

// PropertyMatches is true when the named property exists and matches the
// regular expression. The pattern is compiled once at construction.
func PropertyMatches(src config.Source, name, pattern string) (Condition, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WrapInvalid(err, "condition", "PropertyMatches", "pattern compilation")
	}
	return propertyRegex{src: src, name: name, pattern: re}, nil
}
