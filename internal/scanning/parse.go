package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// qrCodePrompt is the shared prompt used by all LLM providers for reading QR codes
const qrCodePrompt = `You are looking at a photo that may contain one or more QR codes. Decode every QR code that is visible in the image.

Only consider QR codes. Ignore all other barcode types (Code 128, EAN, UPC, PDF417, Data Matrix, Aztec) and ignore any printed text that is not encoded in a QR code.

Return ONLY valid JSON in this exact format:
{
  "qrcodes": ["first payload", "second payload"]
}

Important:
- Each entry must be the exact decoded payload, character for character
- List codes from top-left to bottom-right
- If there are no QR codes, or none can be decoded, return {"qrcodes": []}
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// qrCodeResponse is the JSON shape the LLM providers are asked to return
type qrCodeResponse struct {
	QRCodes []string `json:"qrcodes"`
}

// parseCodesJSON parses the JSON response from an LLM provider
func parseCodesJSON(text string) ([]string, error) {
	text = strings.TrimSpace(text)

	// Remove opening markdown code blocks
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var resp qrCodeResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	codes := make([]string, 0, len(resp.QRCodes))
	for _, code := range resp.QRCodes {
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}
