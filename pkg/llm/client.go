// Package llm names the Session Execution Engine's LLM sidecar concern
// for the rest of the module (pkg/engine, pkg/agent's controller). The
// gRPC client itself lives in pkg/agent (agent.GRPCLLMClient) because it
// is built directly against the Agent's GenerateInput/ConversationMessage/
// Chunk contract — see DESIGN.md's "pkg/llm" entry for why this package
// re-exports rather than duplicates that client.
package llm

import "github.com/codeready-toolchain/tarsy/pkg/agent"

// Client is the gRPC client for the out-of-process LLM sidecar.
type Client = agent.GRPCLLMClient

// NewClient dials addr (the sidecar's plaintext gRPC address) and
// returns a Client.
func NewClient(addr string) (*Client, error) {
	return agent.NewGRPCLLMClient(addr)
}

// Re-exported so callers can depend on pkg/llm alone for the Generate
// call's request/response shapes.
type (
	LLMClient           = agent.LLMClient
	GenerateInput       = agent.GenerateInput
	ConversationMessage = agent.ConversationMessage
	ToolDefinition      = agent.ToolDefinition
	ToolCall            = agent.ToolCall
	Chunk               = agent.Chunk
	TextChunk           = agent.TextChunk
	ThinkingChunk       = agent.ThinkingChunk
	ToolCallChunk       = agent.ToolCallChunk
	CodeExecutionChunk  = agent.CodeExecutionChunk
	GroundingChunk      = agent.GroundingChunk
	UsageChunk          = agent.UsageChunk
	ErrorChunk          = agent.ErrorChunk
)

const (
	RoleSystem    = agent.RoleSystem
	RoleUser      = agent.RoleUser
	RoleAssistant = agent.RoleAssistant
	RoleTool      = agent.RoleTool
)
