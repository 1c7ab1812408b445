package model

import json "github.com/goccy/go-json"

type CalculationRequest struct {
	TenantID                string                  `json:"tenant_id"`
	Operator                Operator                `json:"operator"`
	CalculationInstructions CalculationInstructions `json:"calculation_instructions"`
}

// Operator identifies who performs the batch; Level is the single numeric
// permission level (subagents are below 6).
type Operator struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type CalculationInstructions struct {
	Mutations []Mutation `json:"mutations"`
}

type Mutation struct {
	MutationID             string          `json:"mutation_id"`
	MutationDefinitionName string          `json:"mutation_definition_name"`
	ActualAt               string          `json:"actual_at"`
	DossierID              string          `json:"dossier_id,omitempty"`
	MutationProperties     json.RawMessage `json:"mutation_properties"`
}
