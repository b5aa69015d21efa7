package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
)

// strengthStates lists the labels the chart calculator emits for the
// day-master strength classification.
var strengthStates = []string{
	"身强", "身弱", "中和", "偏强", "偏弱", "极强", "极弱", "从强", "从弱",
}

var strengthSet = func() map[string]bool {
	m := make(map[string]bool, len(strengthStates))
	for _, s := range strengthStates {
		m[s] = true
	}
	return m
}()

var stateAlt = "(?:" + strings.Join(strengthStates, "|") + ")"

// Strength category (旺衰). The favorable/unfavorable templates come
// first; the state list itself is the catch-all, with a precise
// recognizer built from the fixed label set.
var wangshuaiMatchers = []clauseMatcher{
	{
		name:  "xishen",
		re:    regexp.MustCompile(`^喜用?神?[为是](` + listCls + `)$`),
		build: buildXishen,
	},
	{
		name:  "jishen",
		re:    regexp.MustCompile(`^忌神?[为是](` + listCls + `)$`),
		build: buildJishen,
	},
	{
		name:  "strength-labeled",
		re:    regexp.MustCompile(`^(?:旺衰|日主|日元)[为是]?(` + stateAlt + `(?:[、，,/\s或]+` + stateAlt + `)*)$`),
		build: buildStrength,
	},
	{
		name:  "strength-states",
		re:    regexp.MustCompile(`^(` + stateAlt + `(?:[、，,/\s或]+` + stateAlt + `)*)$`),
		build: buildStrength,
	},
}

// parseFavorName admits an element or a canonical ten god; anything
// else is a vocabulary miss, not a guessable value.
func parseFavorName(tok string) (string, error) {
	if bazi.IsElement(tok) {
		return tok, nil
	}
	if c, ok := bazi.CanonicalTenGod(tok); ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown element or ten god %q", tok)
}

func buildXishen(m []string) (condition.Node, error) {
	tokens, alt := valueList(m[1])
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty favorable list")
	}
	kids := make([]condition.Node, len(tokens))
	for i, tok := range tokens {
		name, err := parseFavorName(tok)
		if err != nil {
			return nil, err
		}
		kids[i] = condition.Xishen{Name: name}
	}
	return combine(kids, alt), nil
}

func buildJishen(m []string) (condition.Node, error) {
	tokens, alt := valueList(m[1])
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty unfavorable list")
	}
	kids := make([]condition.Node, len(tokens))
	for i, tok := range tokens {
		name, err := parseFavorName(tok)
		if err != nil {
			return nil, err
		}
		kids[i] = condition.Jishen{Name: name}
	}
	return combine(kids, alt), nil
}

// buildStrength collapses a state list into one leaf: the chart holds
// a single label, so listed states can only be alternatives.
func buildStrength(m []string) (condition.Node, error) {
	tokens, _ := valueList(m[1])
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty strength list")
	}
	for _, tok := range tokens {
		if !strengthSet[tok] {
			return nil, fmt.Errorf("unknown strength state %q", tok)
		}
	}
	return condition.Wangshuai{States: tokens}, nil
}
