package pipeline

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"leadflow/internal/models"
)

// ValidateForStage evaluates every rule bound to targetStageID against the
// lead snapshot. One error per failing rule, in declaration order.
func ValidateForStage(lead *models.Lead, targetStageID string, rules []models.ValidationRule) []models.ValidationError {
	var errs []models.ValidationError
	for _, rule := range rules {
		if !rule.AppliesTo(targetStageID) {
			continue
		}
		if lead.HasField(rule.Field) {
			continue
		}
		errs = append(errs, models.ValidationError{Field: rule.Field, Message: ruleMessage(rule)})
	}
	return errs
}

func ruleMessage(rule models.ValidationRule) string {
	if strings.TrimSpace(rule.Message) != "" {
		return rule.Message
	}
	return fmt.Sprintf("%s is required", rule.Field)
}

type ruleDocument struct {
	Rules []models.ValidationRule `yaml:"rules"`
}

// ParseRules reads a YAML rule set:
//
//	rules:
//	  - field: phone
//	    stages: [qualificado]
//	    message: Telefone é obrigatório
func ParseRules(data []byte) ([]models.ValidationRule, error) {
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := CheckRules(doc.Rules); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

// CheckRules rejects rules without a field or without target stages.
func CheckRules(rules []models.ValidationRule) error {
	for i, r := range rules {
		if strings.TrimSpace(r.Field) == "" {
			return fmt.Errorf("rule #%d: field is required", i+1)
		}
		if len(r.AppliesToStages) == 0 {
			return fmt.Errorf("rule #%d (%s): at least one stage is required", i+1, r.Field)
		}
	}
	return nil
}
