package composer

import "strings"

// styleInstruction keeps answers speakable: conversational, a few
// sentences, nothing the synthesizer would stumble over.
const styleInstruction = "回答要求：口语化，3-4 句，不要出现特殊符号。"

// SystemPrompt builds the system prompt for the model call. With a
// non-empty contextBlock the grounded variant instructs the model to answer
// from the supplied exhibition material; otherwise the ungrounded variant
// asks for a best-effort general-knowledge answer. preamble is the
// exhibition introduction from configuration and may be empty.
func SystemPrompt(contextBlock, preamble string) string {
	var sb strings.Builder
	if preamble != "" {
		sb.WriteString(preamble)
		sb.WriteString("\n")
	}

	if contextBlock != "" {
		sb.WriteString("你是一名展览讲解员。以下资料来自展览官方手册，请仅依据资料回答；若资料缺失请根据你的智慧自由发挥。\n")
		sb.WriteString("--------------------\n")
		sb.WriteString(contextBlock)
		sb.WriteString("\n--------------------\n")
	} else {
		sb.WriteString("你是一名展览讲解员。目前没有查询到官方资料，请基于常识或合理推测回答。\n")
	}

	sb.WriteString(styleInstruction)
	return sb.String()
}
