package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "tarsy-json"

// jsonCodec marshals gRPC messages as JSON instead of protobuf wire
// format. The sidecar contract only needs structured request/response
// framing over HTTP/2, and hand-maintaining real protobuf descriptors
// without protoc is impractical; JSON-over-gRPC keeps real gRPC
// transport (streaming, deadlines, HTTP/2 multiplexing) without it.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
