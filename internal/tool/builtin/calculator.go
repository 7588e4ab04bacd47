// Package builtin ships the demo tools registered by default.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// number tolerates operands the model quoted as strings.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = number(f)
	return nil
}

// CalculatorTool is a four-function calculator. Results are rounded to 4
// decimal places.
type CalculatorTool struct{}

func (t *CalculatorTool) Name() string {
	return "calculator"
}

func (t *CalculatorTool) Description() string {
	return "Four function calculator. Operations are rounded to 4 decimal places."
}

func (t *CalculatorTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type":        "string",
				"description": "The arithmetic operation to perform.",
				"enum":        []string{"add", "subtract", "multiply", "divide"},
			},
			"a": map[string]interface{}{
				"type":        "number",
				"description": "The first number.",
			},
			"b": map[string]interface{}{
				"type":        "number",
				"description": "The second number.",
			},
		},
		"required": []string{"operation", "a", "b"},
	}
}

type calculatorInput struct {
	Operation string `json:"operation"`
	A         number `json:"a"`
	B         number `json:"b"`
}

func (t *CalculatorTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in calculatorInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("decode input: %w", err)
	}

	a, b := float64(in.A), float64(in.B)

	var result float64
	switch in.Operation {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return "", fmt.Errorf("cannot divide by zero")
		}
		result = a / b
	default:
		return "", fmt.Errorf("unsupported operation: %q", in.Operation)
	}

	rounded := math.Round(result*10000) / 10000
	return strconv.FormatFloat(rounded, 'f', -1, 64), nil
}
