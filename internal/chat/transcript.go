package chat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"agentide/internal/llm"
)

// Transcript appends conversation messages to a JSONL file with secrets
// masked. A Transcript with an empty path records nothing.
type Transcript struct {
	path string
}

func NewTranscript(stateDir, sessionID string) *Transcript {
	if strings.TrimSpace(stateDir) == "" || strings.TrimSpace(sessionID) == "" {
		return &Transcript{}
	}
	return &Transcript{path: filepath.Join(stateDir, "sessions", sessionID+".jsonl")}
}

func (t *Transcript) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

func (t *Transcript) Append(msg llm.Message) error {
	if t == nil {
		return nil
	}
	msg.Content, _ = RedactSecrets(msg.Content)
	return appendJSONL(t.path, msg)
}

func appendJSONL(path string, payload any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(data, '\n'))
	return err
}

// LoadTranscript reads every message recorded at path.
func LoadTranscript(path string) ([]llm.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []llm.Message
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var msg llm.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return out, err
		}
		out = append(out, msg)
	}
	return out, nil
}
