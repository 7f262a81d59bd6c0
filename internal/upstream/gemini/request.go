package gemini

import (
	"chatrelay-go/internal/conversation"

	"github.com/tidwall/sjson"
)

// roleFor maps a conversation role to the Gemini content role.
func roleFor(r conversation.Role) string {
	if r == conversation.RoleAssistant {
		return "model"
	}
	return "user"
}

// BuildRequest converts selected turns into a streamGenerateContent body.
// Only the first system turn becomes systemInstruction; later system turns
// are dropped.
func BuildRequest(turns []conversation.Turn) ([]byte, error) {
	body := []byte(`{"contents":[]}`)
	var err error
	haveSystem := false
	for _, t := range turns {
		if t.Role == conversation.RoleSystem {
			if haveSystem {
				continue
			}
			haveSystem = true
			if body, err = sjson.SetBytes(body, "systemInstruction.parts.0.text", t.Content); err != nil {
				return nil, err
			}
			continue
		}
		content := map[string]any{
			"role":  roleFor(t.Role),
			"parts": []map[string]string{{"text": t.Content}},
		}
		if body, err = sjson.SetBytes(body, "contents.-1", content); err != nil {
			return nil, err
		}
	}
	return body, nil
}
