// Ordered execution of the tool calls in one LLM reply.

package agent

import "github.com/avennor/trawl/llm"

// toolQueue yields one LLM reply's tool calls strictly in the order the
// model emitted them. Execution is sequential on purpose: each tool's
// persisted result becomes context for the tools after it and for the
// next LLM turn, so the ordering is part of the execution primitive, not
// a convention at the call site.
type toolQueue struct {
	calls []llm.ToolCall
	next  int
}

func newToolQueue(calls []llm.ToolCall) *toolQueue {
	return &toolQueue{calls: calls}
}

// Next returns the next pending call in emission order.
func (q *toolQueue) Next() (llm.ToolCall, bool) {
	if q.next >= len(q.calls) {
		return llm.ToolCall{}, false
	}
	call := q.calls[q.next]
	q.next++
	return call, true
}
