package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeready-toolchain/tarsy/pkg/models"
	"github.com/codeready-toolchain/tarsy/pkg/version"
)

// detectToolName is the MCP tool the remote detector server must expose.
const detectToolName = "detect_elements"

// detectedElement mirrors the JSON shape returned by the detect_elements
// tool's text content: a flat array of class-labeled boxes.
type detectedElement struct {
	ElementType string  `json:"element_type"`
	Confidence  float64 `json:"confidence"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	W           float64 `json:"w"`
	H           float64 `json:"h"`
	Text        string  `json:"text"`
}

// MCPDetector is the primary element detector: it delegates to an
// externally configured MCP tool server's detect_elements tool, passing
// the screenshot and receiving class-labeled bounding boxes (spec §4.6
// step 2 primary; SPEC_FULL.md DOMAIN STACK wiring of
// modelcontextprotocol/go-sdk).
//
// Grounded on pkg/mcp/client.go's connect-lazily-and-cache-the-session
// shape, narrowed to the single server this package needs.
type MCPDetector struct {
	transport mcpsdk.Transport

	mu      sync.Mutex
	session *mcpsdk.ClientSession
}

// NewMCPDetector returns an MCPDetector that will connect to serverURL
// (a streamable-HTTP MCP endpoint) on first use.
func NewMCPDetector(serverURL string) *MCPDetector {
	return &MCPDetector{
		transport: &mcpsdk.StreamableClientTransport{Endpoint: serverURL},
	}
}

// newMCPDetectorWithTransport builds an MCPDetector over an arbitrary
// transport, letting tests wire an in-memory MCP server.
func newMCPDetectorWithTransport(transport mcpsdk.Transport) *MCPDetector {
	return &MCPDetector{transport: transport}
}

func (d *MCPDetector) connect(ctx context.Context) (*mcpsdk.ClientSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		return d.session, nil
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    version.AppName,
		Version: version.GitCommit,
	}, nil)

	session, err := client.Connect(ctx, d.transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to vision detector server: %w", err)
	}
	d.session = session
	return session, nil
}

// Detect calls the remote detect_elements tool with the screenshot
// re-encoded as a base64 PNG and parses the returned class-labeled boxes.
func (d *MCPDetector) Detect(ctx context.Context, img image.Image) ([]Box, error) {
	session, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode screenshot for detection: %w", err)
	}

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name: detectToolName,
		Arguments: map[string]any{
			"image_base64": base64.StdEncoding.EncodeToString(buf.Bytes()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", detectToolName, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("%s reported an error", detectToolName)
	}

	var elements []detectedElement
	for _, c := range result.Content {
		tc, ok := c.(*mcpsdk.TextContent)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(tc.Text), &elements); err != nil {
			return nil, fmt.Errorf("parse %s response: %w", detectToolName, err)
		}
	}

	boxes := make([]Box, 0, len(elements))
	for _, e := range elements {
		boxes = append(boxes, Box{
			ElementType: e.ElementType,
			Confidence:  e.Confidence,
			Text:        e.Text,
			BoundingBox: models.BoundingBox{X: e.X, Y: e.Y, W: e.W, H: e.H},
		})
	}
	return boxes, nil
}

// Close releases the MCP session, if one was established.
func (d *MCPDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	return err
}
