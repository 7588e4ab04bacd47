package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ClockTool answers time questions: the current instant, or the current
// instant shifted by an offset. Results are ISO-8601 strings.
type ClockTool struct{}

func (t *ClockTool) Name() string {
	return "clock"
}

func (t *ClockTool) Description() string {
	return "Perform time-related operations and return the result as an ISO-formatted string."
}

func (t *ClockTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type":        "string",
				"description": "\"now\" returns the current datetime; \"add\" shifts it by amount/unit.",
				"enum":        []string{"now", "add"},
			},
			"amount": map[string]interface{}{
				"type":        "integer",
				"description": "The amount of time to add. Required when operation is \"add\".",
			},
			"unit": map[string]interface{}{
				"type":        "string",
				"description": "The unit of time to add.",
				"enum":        []string{"days", "hours", "minutes"},
			},
		},
		"required": []string{"operation"},
	}
}

type clockInput struct {
	Operation string  `json:"operation"`
	Amount    *number `json:"amount"`
	Unit      string  `json:"unit"`
}

func (t *ClockTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in clockInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("decode input: %w", err)
	}

	switch in.Operation {
	case "now":
		return time.Now().Format(time.RFC3339), nil
	case "add":
		if in.Amount == nil {
			return "", fmt.Errorf("amount is required for an add operation")
		}
		amount := time.Duration(float64(*in.Amount))

		var d time.Duration
		switch in.Unit {
		case "days":
			d = amount * 24 * time.Hour
		case "hours":
			d = amount * time.Hour
		case "minutes":
			d = amount * time.Minute
		default:
			return "", fmt.Errorf("invalid unit: %q", in.Unit)
		}
		return time.Now().Add(d).Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("invalid operation: %q", in.Operation)
	}
}
