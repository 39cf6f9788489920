// Package browser implements the Browser Control Surface: page discovery
// over a browser's DevTools JSON endpoints, high-level page actions, and a
// low-level CDP Action Dispatcher for deterministic replay (spec §4.3).
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/cdp"
)

// ErrNoPage is returned by page discovery when no live page exists in any
// browser context.
var ErrNoPage = fmt.Errorf("browser: no live page")

// targetInfo mirrors one entry of GET {cdp}/json/list.
type targetInfo struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Page is the most recently opened, non-closed page-type target.
type Page struct {
	TargetID string
	URL      string
	Title    string
	WSURL    string
}

// DiscoverPage returns the most recently opened page-type target served by
// the DevTools HTTP endpoint at cdpBaseURL (e.g. http://localhost:9222).
// "Most recently opened" is approximated by the physically last entry in
// the /json/list response, matching Chrome's own ordering of that list —
// the Agent may open new tabs, and the last entry is the active one.
func DiscoverPage(ctx context.Context, httpClient *http.Client, cdpBaseURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cdpBaseURL+"/json/list", nil)
	if err != nil {
		return nil, fmt.Errorf("browser: build discovery request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("browser: discovery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("browser: discovery returned status %d", resp.StatusCode)
	}

	var targets []targetInfo
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("browser: decode discovery response: %w", err)
	}

	var last *targetInfo
	for i := range targets {
		if targets[i].Type == "page" {
			last = &targets[i]
		}
	}
	if last == nil {
		return nil, ErrNoPage
	}

	return &Page{
		TargetID: last.ID,
		URL:      last.URL,
		Title:    last.Title,
		WSURL:    last.WebSocketDebuggerURL,
	}, nil
}

// ProbeReady polls GET {cdpBaseURL}/json/version until it returns 200 with
// a parseable body, or timeout elapses (spec §4.7 start-sequence step 3:
// 15s readiness probe).
func ProbeReady(ctx context.Context, httpClient *http.Client, cdpBaseURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if ready(ctx, httpClient, cdpBaseURL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("browser: CDP endpoint %s not ready after %s: %w", cdpBaseURL, timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func ready(ctx context.Context, httpClient *http.Client, cdpBaseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cdpBaseURL+"/json/version", nil)
	if err != nil {
		return false
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var body map[string]any
	return json.NewDecoder(resp.Body).Decode(&body) == nil
}

// Surface is the high-level action set bound to one CDP page session:
// navigate, click, type, scroll, extract text, screenshot, evaluate JS,
// highlight. Each action addresses the page by CSS selector or, for
// Navigate, by URL.
type Surface struct {
	client *cdp.Client
}

// NewSurface wraps an already-connected CDP client (one page session) with
// the high-level action set.
func NewSurface(client *cdp.Client) *Surface {
	return &Surface{client: client}
}

// Navigate loads url in the page.
func (s *Surface) Navigate(ctx context.Context, url string) error {
	_, err := s.client.Send(ctx, "Page.navigate", map[string]string{"url": url})
	if err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// Click resolves selector to its element center via DOM queries and
// dispatches a synthetic mouse click there.
func (s *Surface) Click(ctx context.Context, selector string) error {
	x, y, err := s.resolveSelectorCenter(ctx, selector)
	if err != nil {
		return fmt.Errorf("browser: click %s: %w", selector, err)
	}
	d := Dispatcher{client: s.client}
	return d.Click(ctx, x, y, MouseButtonLeft, 1)
}

// Type focuses selector then inserts text atomically.
func (s *Surface) Type(ctx context.Context, selector, text string) error {
	if err := s.focus(ctx, selector); err != nil {
		return fmt.Errorf("browser: type into %s: %w", selector, err)
	}
	d := Dispatcher{client: s.client}
	return d.TypeText(ctx, text)
}

// Scroll scrolls the page by (dx, dy) pixels via window.scrollBy.
func (s *Surface) Scroll(ctx context.Context, dx, dy float64) error {
	expr := fmt.Sprintf("window.scrollBy(%f, %f)", dx, dy)
	_, err := s.Evaluate(ctx, expr)
	if err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	return nil
}

// ExtractText returns the rendered text content of selector, or the whole
// document body when selector is empty.
func (s *Surface) ExtractText(ctx context.Context, selector string) (string, error) {
	target := "document.body"
	if selector != "" {
		target = fmt.Sprintf("document.querySelector(%q)", selector)
	}
	expr := fmt.Sprintf("(%s && %s.innerText) || ''", target, target)
	result, err := s.Evaluate(ctx, expr)
	if err != nil {
		return "", fmt.Errorf("browser: extract text from %q: %w", selector, err)
	}
	text, _ := result.(string)
	return text, nil
}

// Screenshot captures a PNG of the current page via Page.captureScreenshot.
func (s *Surface) Screenshot(ctx context.Context) ([]byte, error) {
	result, err := s.client.Send(ctx, "Page.captureScreenshot", map[string]string{"format": "png"})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	var parsed struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, fmt.Errorf("browser: decode screenshot reply: %w", err)
	}
	return decodeBase64(parsed.Data)
}

// Evaluate runs expression via Runtime.evaluate and returns its JS value.
func (s *Surface) Evaluate(ctx context.Context, expression string) (any, error) {
	result, err := s.client.Send(ctx, "Runtime.evaluate", map[string]any{
		"expression":    expression,
		"returnByValue": true,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: evaluate: %w", err)
	}
	var parsed struct {
		Result struct {
			Value any `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, fmt.Errorf("browser: decode evaluate reply: %w", err)
	}
	if parsed.ExceptionDetails != nil {
		return nil, fmt.Errorf("browser: evaluate threw: %s", parsed.ExceptionDetails.Text)
	}
	return parsed.Result.Value, nil
}

// Highlight draws a temporary overlay rectangle around selector via
// Overlay.highlightNode, used for visual debugging of Agent actions.
func (s *Surface) Highlight(ctx context.Context, selector string) error {
	nodeID, err := s.resolveNodeID(ctx, selector)
	if err != nil {
		return fmt.Errorf("browser: highlight %s: %w", selector, err)
	}
	_, err = s.client.Send(ctx, "Overlay.highlightNode", map[string]any{
		"nodeId": nodeID,
		"highlightConfig": map[string]any{
			"showInfo":       true,
			"contentColor":   map[string]int{"r": 111, "g": 168, "b": 220, "a": 100},
			"borderColor":    map[string]int{"r": 50, "g": 100, "b": 200, "a": 200},
		},
	})
	if err != nil {
		return fmt.Errorf("browser: highlight %s: %w", selector, err)
	}
	return nil
}

func (s *Surface) focus(ctx context.Context, selector string) error {
	expr := fmt.Sprintf("document.querySelector(%q) && document.querySelector(%q).focus()", selector, selector)
	_, err := s.Evaluate(ctx, expr)
	return err
}

func (s *Surface) resolveNodeID(ctx context.Context, selector string) (int64, error) {
	docResult, err := s.client.Send(ctx, "DOM.getDocument", nil)
	if err != nil {
		return 0, err
	}
	var doc struct {
		Root struct {
			NodeID int64 `json:"nodeId"`
		} `json:"root"`
	}
	if err := json.Unmarshal(docResult, &doc); err != nil {
		return 0, err
	}

	result, err := s.client.Send(ctx, "DOM.querySelector", map[string]any{
		"nodeId":   doc.Root.NodeID,
		"selector": selector,
	})
	if err != nil {
		return 0, err
	}
	var parsed struct {
		NodeID int64 `json:"nodeId"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return 0, err
	}
	if parsed.NodeID == 0 {
		return 0, fmt.Errorf("no element matches %q", selector)
	}
	return parsed.NodeID, nil
}

// resolveSelectorCenter returns the viewport center coordinates of
// selector's bounding box, via DOM.getBoxModel.
func (s *Surface) resolveSelectorCenter(ctx context.Context, selector string) (x, y float64, err error) {
	nodeID, err := s.resolveNodeID(ctx, selector)
	if err != nil {
		return 0, 0, err
	}
	result, err := s.client.Send(ctx, "DOM.getBoxModel", map[string]any{"nodeId": nodeID})
	if err != nil {
		return 0, 0, err
	}
	var parsed struct {
		Model struct {
			Content []float64 `json:"content"`
		} `json:"model"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return 0, 0, err
	}
	if len(parsed.Model.Content) != 8 {
		return 0, 0, fmt.Errorf("unexpected box model quad for %q", selector)
	}
	// content is a flat [x1,y1, x2,y2, x3,y3, x4,y4] quad; center is the
	// mean of the four corners.
	var sumX, sumY float64
	for i := 0; i < 8; i += 2 {
		sumX += parsed.Model.Content[i]
		sumY += parsed.Model.Content[i+1]
	}
	return sumX / 4, sumY / 4, nil
}
