// Match/replace ("tamper") rule tools.

package tools

import (
	"context"
	"fmt"
)

type createTamperRuleArgs struct {
	Name        string `json:"name" jsonschema:"description=Rule name"`
	Section     string `json:"section" jsonschema:"description=Traffic section the rule rewrites: RequestHeader, RequestBody, ResponseHeader or ResponseBody"`
	MatchTerm   string `json:"match_term" jsonschema:"description=Regex matched against the section"`
	ReplaceTerm string `json:"replace_term" jsonschema:"description=Replacement text"`
}

type listTamperRulesArgs struct{}

type updateTamperRuleArgs struct {
	RuleID      string `json:"rule_id" jsonschema:"description=Rule id to update"`
	Name        string `json:"name,omitempty" jsonschema:"description=New rule name"`
	Section     string `json:"section,omitempty" jsonschema:"description=New traffic section"`
	MatchTerm   string `json:"match_term,omitempty" jsonschema:"description=New match regex"`
	ReplaceTerm string `json:"replace_term,omitempty" jsonschema:"description=New replacement text"`
}

// validSections are the traffic sections a rule may target.
var validSections = map[string]bool{
	"RequestHeader":  true,
	"RequestBody":    true,
	"ResponseHeader": true,
	"ResponseBody":   true,
}

const createTamperRuleMutation = `
	mutation createTamperRule($input: CreateTamperRuleInput!) {
		createTamperRule(input: $input) {
			rule {
				id
				name
				isEnabled
			}
		}
	}`

const listTamperRulesQuery = `
	query tamperRules {
		tamperRules {
			nodes {
				id
				name
				isEnabled
				section
			}
		}
	}`

const updateTamperRuleMutation = `
	mutation updateTamperRule($id: ID!, $input: UpdateTamperRuleInput!) {
		updateTamperRule(id: $id, input: $input) {
			rule {
				id
				name
				isEnabled
				section
			}
		}
	}`

func (b *Backend) createTamperRule(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args createTamperRuleArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid create_tamper_rule input", err.Error()), nil
	}
	if args.Name == "" || args.MatchTerm == "" {
		return Fail("Missing rule name or match term", "name and match_term are required"), nil
	}
	if !validSections[args.Section] {
		return Fail(fmt.Sprintf("Invalid section %q", args.Section),
			"section must be one of RequestHeader, RequestBody, ResponseHeader, ResponseBody"), nil
	}

	ruleInput := map[string]interface{}{
		"name":        args.Name,
		"section":     args.Section,
		"matchTerm":   args.MatchTerm,
		"replaceTerm": args.ReplaceTerm,
	}

	data, failed := b.runOperation(ctx, "createTamperRule", createTamperRuleMutation,
		map[string]interface{}{"input": ruleInput}, "Failed to create tamper rule")
	if failed != nil {
		return *failed, nil
	}

	return Succeed(fmt.Sprintf("Created tamper rule %q on %s", args.Name, args.Section), data), nil
}

func (b *Backend) listTamperRules(ctx context.Context, input map[string]interface{}) (Result, error) {
	data, failed := b.runOperation(ctx, "tamperRules", listTamperRulesQuery, nil,
		"Failed to list tamper rules")
	if failed != nil {
		return *failed, nil
	}

	count := len(nodesOf(data, "tamperRules"))
	return Succeed(fmt.Sprintf("Found %d tamper rules", count), data), nil
}

func (b *Backend) updateTamperRule(ctx context.Context, input map[string]interface{}) (Result, error) {
	var args updateTamperRuleArgs
	if err := decodeInput(input, &args); err != nil {
		return Fail("Invalid update_tamper_rule input", err.Error()), nil
	}
	if args.RuleID == "" {
		return Fail("Missing rule id", "rule_id is required"), nil
	}
	if args.Section != "" && !validSections[args.Section] {
		return Fail(fmt.Sprintf("Invalid section %q", args.Section),
			"section must be one of RequestHeader, RequestBody, ResponseHeader, ResponseBody"), nil
	}

	ruleInput := map[string]interface{}{}
	if args.Name != "" {
		ruleInput["name"] = args.Name
	}
	if args.Section != "" {
		ruleInput["section"] = args.Section
	}
	if args.MatchTerm != "" {
		ruleInput["matchTerm"] = args.MatchTerm
	}
	if args.ReplaceTerm != "" {
		ruleInput["replaceTerm"] = args.ReplaceTerm
	}
	if len(ruleInput) == 0 {
		return Fail("Nothing to update", "provide at least one field to change"), nil
	}

	data, failed := b.runOperation(ctx, "updateTamperRule", updateTamperRuleMutation,
		map[string]interface{}{"id": args.RuleID, "input": ruleInput}, "Failed to update tamper rule")
	if failed != nil {
		return *failed, nil
	}

	return Succeed(fmt.Sprintf("Updated tamper rule %s", args.RuleID), data), nil
}
