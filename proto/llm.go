// Package proto defines the wire contract between the Go engine and the
// out-of-process LLM sidecar. The sidecar holds provider SDKs and
// credentials; the engine only ever talks to it over this gRPC service,
// never to a provider API directly (see pkg/llm).
//
// A real deployment generates this package from llm.proto with protoc;
// this tree hand-writes the client-side stubs against the same service
// contract and carries its own wire codec (codec.go) so the module needs
// no protoc/buf toolchain step to build.
package proto

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
)

// GenerateRequest is one turn of conversation sent to the LLM sidecar.
type GenerateRequest struct {
	SessionId   string                 `json:"session_id"`
	ExecutionId string                 `json:"execution_id"`
	Messages    []*ConversationMessage `json:"messages"`
	Tools       []*ToolDefinition      `json:"tools,omitempty"`
	LlmConfig   *LLMConfig             `json:"llm_config,omitempty"`
}

// ConversationMessage is one message in the conversation history.
type ConversationMessage struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []*ToolCall `json:"tool_calls,omitempty"`
	ToolCallId string      `json:"tool_call_id,omitempty"`
	ToolName   string      `json:"tool_name,omitempty"`
}

// ToolCall is an assistant message's request to invoke a tool.
type ToolCall struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition advertises one callable tool to the LLM.
type ToolDefinition struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ParametersSchema string `json:"parameters_schema"`
}

// LLMConfig selects the provider, model and credentials the sidecar
// should use for this call.
type LLMConfig struct {
	Provider            string          `json:"provider"`
	Model               string          `json:"model"`
	ApiKeyEnv           string          `json:"api_key_env,omitempty"`
	CredentialsEnv      string          `json:"credentials_env,omitempty"`
	BaseUrl             string          `json:"base_url,omitempty"`
	Project             string          `json:"project,omitempty"`
	Location            string          `json:"location,omitempty"`
	MaxToolResultTokens int32           `json:"max_tool_result_tokens,omitempty"`
	NativeTools         map[string]bool `json:"native_tools,omitempty"`
	Backend             string          `json:"backend,omitempty"`
}

// GenerateResponse is one streamed chunk of the sidecar's reply. Exactly
// one of the Content fields is set per message, mirroring a protoc-gen-go
// oneof; IsFinal with a nil Content marks normal stream completion.
type GenerateResponse struct {
	Content GenerateResponseContent `json:"-"`
	IsFinal bool                    `json:"is_final,omitempty"`
}

// GenerateResponseContent is implemented by the GenerateResponse_* wrapper
// types below, one per oneof branch.
type GenerateResponseContent interface {
	isGenerateResponseContent()
}

// wireGenerateResponse is GenerateResponse's over-the-wire shape: the
// oneof is flattened into a kind tag plus a raw payload, since the json
// codec (codec.go) has no native oneof support.
type wireGenerateResponse struct {
	IsFinal bool            `json:"is_final,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (r *GenerateResponse) MarshalJSON() ([]byte, error) {
	w := wireGenerateResponse{IsFinal: r.IsFinal}
	var payload any
	switch c := r.Content.(type) {
	case nil:
		// no content, final-only marker
	case *GenerateResponse_Text:
		w.Kind, payload = "text", c.Text
	case *GenerateResponse_Thinking:
		w.Kind, payload = "thinking", c.Thinking
	case *GenerateResponse_ToolCall:
		w.Kind, payload = "tool_call", c.ToolCall
	case *GenerateResponse_CodeExecution:
		w.Kind, payload = "code_execution", c.CodeExecution
	case *GenerateResponse_Grounding:
		w.Kind, payload = "grounding", c.Grounding
	case *GenerateResponse_Usage:
		w.Kind, payload = "usage", c.Usage
	case *GenerateResponse_Error:
		w.Kind, payload = "error", c.Error
	default:
		return nil, fmt.Errorf("proto: unknown GenerateResponse content type %T", c)
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		w.Payload = raw
	}
	return json.Marshal(w)
}

func (r *GenerateResponse) UnmarshalJSON(data []byte) error {
	var w wireGenerateResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.IsFinal = w.IsFinal
	switch w.Kind {
	case "":
		r.Content = nil
	case "text":
		v := new(TextContent)
		if err := json.Unmarshal(w.Payload, v); err != nil {
			return err
		}
		r.Content = &GenerateResponse_Text{Text: v}
	case "thinking":
		v := new(ThinkingContent)
		if err := json.Unmarshal(w.Payload, v); err != nil {
			return err
		}
		r.Content = &GenerateResponse_Thinking{Thinking: v}
	case "tool_call":
		v := new(ToolCallContent)
		if err := json.Unmarshal(w.Payload, v); err != nil {
			return err
		}
		r.Content = &GenerateResponse_ToolCall{ToolCall: v}
	case "code_execution":
		v := new(CodeExecutionContent)
		if err := json.Unmarshal(w.Payload, v); err != nil {
			return err
		}
		r.Content = &GenerateResponse_CodeExecution{CodeExecution: v}
	case "grounding":
		v := new(GroundingContent)
		if err := json.Unmarshal(w.Payload, v); err != nil {
			return err
		}
		r.Content = &GenerateResponse_Grounding{Grounding: v}
	case "usage":
		v := new(UsageContent)
		if err := json.Unmarshal(w.Payload, v); err != nil {
			return err
		}
		r.Content = &GenerateResponse_Usage{Usage: v}
	case "error":
		v := new(ErrorContent)
		if err := json.Unmarshal(w.Payload, v); err != nil {
			return err
		}
		r.Content = &GenerateResponse_Error{Error: v}
	default:
		return fmt.Errorf("proto: unknown GenerateResponse kind %q", w.Kind)
	}
	return nil
}

type GenerateResponse_Text struct{ Text *TextContent }
type GenerateResponse_Thinking struct{ Thinking *ThinkingContent }
type GenerateResponse_ToolCall struct{ ToolCall *ToolCallContent }
type GenerateResponse_CodeExecution struct{ CodeExecution *CodeExecutionContent }
type GenerateResponse_Grounding struct{ Grounding *GroundingContent }
type GenerateResponse_Usage struct{ Usage *UsageContent }
type GenerateResponse_Error struct{ Error *ErrorContent }

func (*GenerateResponse_Text) isGenerateResponseContent()          {}
func (*GenerateResponse_Thinking) isGenerateResponseContent()      {}
func (*GenerateResponse_ToolCall) isGenerateResponseContent()      {}
func (*GenerateResponse_CodeExecution) isGenerateResponseContent() {}
func (*GenerateResponse_Grounding) isGenerateResponseContent()     {}
func (*GenerateResponse_Usage) isGenerateResponseContent()         {}
func (*GenerateResponse_Error) isGenerateResponseContent()         {}

type TextContent struct {
	Content string `json:"content"`
}

type ThinkingContent struct {
	Content string `json:"content"`
}

type ToolCallContent struct {
	CallId    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type CodeExecutionContent struct {
	Code   string `json:"code"`
	Result string `json:"result"`
}

type GroundingContent struct {
	WebSearchQueries     []string           `json:"web_search_queries,omitempty"`
	GroundingChunks      []*GroundingChunk  `json:"grounding_chunks,omitempty"`
	GroundingSupports    []*GroundingSupport `json:"grounding_supports,omitempty"`
	SearchEntryPointHtml string             `json:"search_entry_point_html,omitempty"`
}

type GroundingChunk struct {
	Uri   string `json:"uri"`
	Title string `json:"title"`
}

type GroundingSupport struct {
	StartIndex            int32   `json:"start_index"`
	EndIndex              int32   `json:"end_index"`
	Text                  string  `json:"text"`
	GroundingChunkIndices []int32 `json:"grounding_chunk_indices,omitempty"`
}

type UsageContent struct {
	InputTokens    int32 `json:"input_tokens"`
	OutputTokens   int32 `json:"output_tokens"`
	TotalTokens    int32 `json:"total_tokens"`
	ThinkingTokens int32 `json:"thinking_tokens"`
}

type ErrorContent struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// LLMServiceClient is the client side of the LLM sidecar's gRPC service.
type LLMServiceClient interface {
	Generate(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (LLMService_GenerateClient, error)
}

// LLMService_GenerateClient streams GenerateResponse chunks back from the
// sidecar for a single Generate call.
type LLMService_GenerateClient interface {
	Recv() (*GenerateResponse, error)
	grpc.ClientStream
}

const llmServiceGenerateMethod = "/tarsy.llm.v1.LLMService/Generate"

type llmServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLLMServiceClient builds an LLMServiceClient over an established
// connection to the sidecar.
func NewLLMServiceClient(cc grpc.ClientConnInterface) LLMServiceClient {
	return &llmServiceClient{cc: cc}
}

func (c *llmServiceClient) Generate(ctx context.Context, in *GenerateRequest, opts ...grpc.CallOption) (LLMService_GenerateClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true, StreamName: "Generate"}, llmServiceGenerateMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &llmServiceGenerateClient{stream}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type llmServiceGenerateClient struct {
	grpc.ClientStream
}

func (x *llmServiceGenerateClient) Recv() (*GenerateResponse, error) {
	m := new(GenerateResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
