package browser

import "encoding/base64"

// decodeBase64 decodes the base64 image payloads CDP returns from
// Page.captureScreenshot and Page.screencastFrame.
func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
