package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func frag(id, name, args string) toolCallChunk {
	return toolCallChunk{
		ID:       id,
		Function: toolCallFragments{Name: name, Arguments: args},
	}
}

func TestAccumulator_SingleCallFromFragments(t *testing.T) {
	var acc toolCallAccumulator
	acc.add(frag("call_1", "calculator", ""))
	acc.add(frag("", "", `{"operation":`))
	acc.add(frag("", "", `"add","a":2,"b":3}`))

	got := acc.flush()
	if assert.Len(t, got, 1) {
		assert.Equal(t, "call_1", got[0].ID)
		assert.Equal(t, "calculator", got[0].Name)
		assert.Equal(t, `{"operation":"add","a":2,"b":3}`, got[0].Arguments)
	}
}

func TestAccumulator_NewIDStartsNewCall(t *testing.T) {
	var acc toolCallAccumulator
	acc.add(frag("call_1", "calculator", `{"a":1}`))
	acc.add(frag("call_2", "clock", ""))
	acc.add(frag("", "", `{"operation":"now"}`))

	got := acc.flush()
	if assert.Len(t, got, 2) {
		assert.Equal(t, "call_1", got[0].ID)
		assert.Equal(t, `{"a":1}`, got[0].Arguments)
		assert.Equal(t, "call_2", got[1].ID)
		assert.Equal(t, "clock", got[1].Name)
		assert.Equal(t, `{"operation":"now"}`, got[1].Arguments)
	}
}

func TestAccumulator_AdoptsLateID(t *testing.T) {
	var acc toolCallAccumulator
	acc.add(frag("", "calculator", `{"a":`))
	acc.add(frag("call_9", "", `1}`))

	got := acc.flush()
	if assert.Len(t, got, 1) {
		assert.Equal(t, "call_9", got[0].ID)
		assert.Equal(t, "calculator", got[0].Name)
		assert.Equal(t, `{"a":1}`, got[0].Arguments)
	}
}

func TestAccumulator_ManyCallsCompleteInOrder(t *testing.T) {
	var acc toolCallAccumulator
	ids := []string{"call_1", "call_2", "call_3", "call_4"}
	for _, id := range ids {
		acc.add(frag(id, "calculator", "{"))
		acc.add(frag("", "", "}"))
	}

	got := acc.flush()
	if assert.Len(t, got, len(ids)) {
		for i, id := range ids {
			assert.Equal(t, id, got[i].ID)
			assert.Equal(t, "{}", got[i].Arguments)
		}
	}
}

func TestAccumulator_FlushEmpty(t *testing.T) {
	var acc toolCallAccumulator
	assert.Empty(t, acc.flush())
}

func TestAccumulator_FlushIsIdempotentPerCall(t *testing.T) {
	var acc toolCallAccumulator
	acc.add(frag("call_1", "clock", "{}"))

	first := acc.flush()
	second := acc.flush()
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}
