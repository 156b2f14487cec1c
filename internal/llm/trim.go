package llm

// Window returns the slice of a conversation to send under a token budget.
// Leading system messages are always kept and do not count toward the budget;
// the rest is trimmed with TrimMessages. A budget <= 0 means unlimited.
// The input slice is never modified.
func Window(messages []Message, maxTokens int) []Message {
	if maxTokens <= 0 {
		return messages
	}
	head := 0
	for head < len(messages) && messages[head].Role == RoleSystem {
		head++
	}
	rest := TrimMessages(messages[head:], maxTokens)
	if len(rest) == len(messages)-head {
		return messages
	}
	out := make([]Message, 0, head+len(rest))
	out = append(out, messages[:head]...)
	return append(out, rest...)
}

// TrimMessages trims a message history to fit within a token budget.
//
// Messages are grouped into units that must be kept or dropped together
// (an assistant tool-call message plus all its tool results is one unit).
// The most recent group is always kept; older groups are dropped first.
func TrimMessages(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 {
		return messages
	}

	groups := groupMessages(messages)

	total := 0
	for _, g := range groups {
		total += g.tokens
	}

	if total <= maxTokens {
		return messages
	}

	kept := total
	dropUntil := 0
	for dropUntil < len(groups)-1 && kept > maxTokens {
		kept -= groups[dropUntil].tokens
		dropUntil++
	}

	var trimmed []Message
	for _, g := range groups[dropUntil:] {
		trimmed = append(trimmed, g.messages...)
	}
	return trimmed
}

type messageGroup struct {
	messages []Message
	tokens   int
}

// groupMessages splits messages into groups:
//
//   - an assistant message with tool calls plus the tool messages after it
//   - any other message on its own
func groupMessages(messages []Message) []messageGroup {
	var groups []messageGroup
	i := 0
	for i < len(messages) {
		msg := messages[i]

		if msg.Role == RoleAssistant && len(msg.ToolCalls) > 0 {
			group := messageGroup{}
			group.messages = append(group.messages, msg)
			group.tokens += EstimateMessageTokens(msg)
			i++
			for i < len(messages) && messages[i].Role == RoleTool {
				group.messages = append(group.messages, messages[i])
				group.tokens += EstimateMessageTokens(messages[i])
				i++
			}
			groups = append(groups, group)
			continue
		}

		groups = append(groups, messageGroup{
			messages: []Message{msg},
			tokens:   EstimateMessageTokens(msg),
		})
		i++
	}
	return groups
}
