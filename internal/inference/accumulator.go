package inference

// toolCallAccumulator merges fragmented tool-call chunks sharing a call id
// into complete requests. Argument fragments concatenate in arrival order;
// distinct ids complete in first-seen order.
type toolCallAccumulator struct {
	current   *ToolRequest
	completed []ToolRequest
}

func (a *toolCallAccumulator) add(frag toolCallChunk) {
	if a.current == nil {
		a.current = &ToolRequest{
			ID:        frag.ID,
			Name:      frag.Function.Name,
			Arguments: frag.Function.Arguments,
		}
		return
	}

	if frag.ID != "" && a.current.ID != "" && frag.ID != a.current.ID {
		a.completed = append(a.completed, *a.current)
		a.current = &ToolRequest{
			ID:        frag.ID,
			Name:      frag.Function.Name,
			Arguments: frag.Function.Arguments,
		}
		return
	}

	// Continuation: an omitted id means "same call", and a call that opened
	// without an id adopts the first one that shows up.
	if a.current.ID == "" {
		a.current.ID = frag.ID
	}
	if a.current.Name == "" {
		a.current.Name = frag.Function.Name
	}
	a.current.Arguments += frag.Function.Arguments
}

// flush closes out the in-progress request, covering streams that end with
// an unterminated tool call.
func (a *toolCallAccumulator) flush() []ToolRequest {
	if a.current != nil {
		a.completed = append(a.completed, *a.current)
		a.current = nil
	}
	return a.completed
}
