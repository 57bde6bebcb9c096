// Package model defines domain types for ocburn messages, sessions and reports.
package model

import (
	"bytes"
	"encoding/json"

	"github.com/theirongolddev/ocburn/internal/coerce"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one fragment of a session as written by opencode, one JSON file
// per message. Fields that may be absent are pointers; a nil pointer means the
// key was missing or null.
type Message struct {
	ID         string
	Role       string
	Time       MessageTime
	Tokens     *Tokens
	Cost       *float64
	ModelID    *string
	ProviderID *string
	Model      *ModelRef
	Agent      *string
	Path       *Path
	Summary    *Summary
	Finish     *string
	Error      json.RawMessage
	Preview    *string
}

// MessageTime holds epoch-millisecond timestamps.
type MessageTime struct {
	Created   *int64
	Completed *int64
}

// Tokens is the per-message token block.
type Tokens struct {
	Input      int64
	Output     int64
	Reasoning  int64
	CacheRead  int64
	CacheWrite int64
}

// ModelRef is the nested {"providerID","modelID"} object user messages carry.
type ModelRef struct {
	ModelID    *string
	ProviderID *string
}

// Path holds the working directory the session ran in.
type Path struct {
	Cwd *string
}

// Summary is the optional summary block. Counters are treated as per-message
// diffs and summed by the calculator.
type Summary struct {
	Title     string
	Files     int64
	Additions int64
	Deletions int64
}

// CreatedMs returns the creation time, or 0 when missing.
func (m Message) CreatedMs() int64 {
	if m.Time.Created == nil {
		return 0
	}
	return *m.Time.Created
}

// HasError reports whether the message carries a non-empty error marker.
func (m Message) HasError() bool {
	return coerce.Truthy(m.Error)
}

// EffectiveModel returns the model id this message was answered by: the
// nested model object wins over the top-level modelID.
func (m Message) EffectiveModel() (string, bool) {
	id, ok := "", false
	if m.ModelID != nil {
		id, ok = *m.ModelID, true
	}
	if m.Model != nil && m.Model.ModelID != nil {
		id, ok = *m.Model.ModelID, true
	}
	return id, ok
}

type wireMessage struct {
	ID         coerce.String   `json:"id"`
	Role       coerce.String   `json:"role"`
	Time       json.RawMessage `json:"time"`
	Tokens     json.RawMessage `json:"tokens"`
	Cost       *coerce.Float   `json:"cost"`
	ModelID    *coerce.String  `json:"modelID"`
	ProviderID *coerce.String  `json:"providerID"`
	Model      json.RawMessage `json:"model"`
	Agent      *coerce.String  `json:"agent"`
	Path       json.RawMessage `json:"path"`
	Summary    json.RawMessage `json:"summary"`
	Finish     *coerce.String  `json:"finish"`
	Error      json.RawMessage `json:"error"`
	Text       json.RawMessage `json:"text"`
	Content    json.RawMessage `json:"content"`
}

type wireTime struct {
	Created   *coerce.Int `json:"created"`
	Completed *coerce.Int `json:"completed"`
}

type wireTokens struct {
	Input     coerce.Int      `json:"input"`
	Output    coerce.Int      `json:"output"`
	Reasoning coerce.Int      `json:"reasoning"`
	Cache     json.RawMessage `json:"cache"`
}

type wireCache struct {
	Read  coerce.Int `json:"read"`
	Write coerce.Int `json:"write"`
}

type wireModelRef struct {
	ModelID    *coerce.String `json:"modelID"`
	ProviderID *coerce.String `json:"providerID"`
}

type wirePath struct {
	Cwd *coerce.String `json:"cwd"`
}

type wireSummary struct {
	Title     coerce.String `json:"title"`
	Files     coerce.Int    `json:"files"`
	Additions coerce.Int    `json:"additions"`
	Deletions coerce.Int    `json:"deletions"`
}

// UnmarshalJSON decodes a message file. Only a document that is not a JSON
// object fails; nested blocks of the wrong shape are ignored and mistyped
// scalars coerce to zero.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*m = Message{
		ID:         string(w.ID),
		Role:       string(w.Role),
		ModelID:    strPtr(w.ModelID),
		ProviderID: strPtr(w.ProviderID),
		Agent:      strPtr(w.Agent),
		Finish:     strPtr(w.Finish),
	}
	if w.Cost != nil {
		c := float64(*w.Cost)
		m.Cost = &c
	}
	if coerce.Truthy(w.Error) {
		m.Error = w.Error
	}

	var t wireTime
	if decodeObject(w.Time, &t) {
		m.Time.Created = intPtr(t.Created)
		m.Time.Completed = intPtr(t.Completed)
	}

	var tok wireTokens
	if decodeObject(w.Tokens, &tok) {
		m.Tokens = &Tokens{
			Input:     int64(tok.Input),
			Output:    int64(tok.Output),
			Reasoning: int64(tok.Reasoning),
		}
		var c wireCache
		if decodeObject(tok.Cache, &c) {
			m.Tokens.CacheRead = int64(c.Read)
			m.Tokens.CacheWrite = int64(c.Write)
		}
	}

	var ref wireModelRef
	if decodeObject(w.Model, &ref) {
		m.Model = &ModelRef{ModelID: strPtr(ref.ModelID), ProviderID: strPtr(ref.ProviderID)}
	}

	var p wirePath
	if decodeObject(w.Path, &p) {
		m.Path = &Path{Cwd: strPtr(p.Cwd)}
	}

	var s wireSummary
	if decodeObject(w.Summary, &s) {
		m.Summary = &Summary{
			Title:     string(s.Title),
			Files:     int64(s.Files),
			Additions: int64(s.Additions),
			Deletions: int64(s.Deletions),
		}
	}

	if p, ok := previewText(w.Text); ok {
		m.Preview = &p
	} else if p, ok := previewText(w.Content); ok {
		m.Preview = &p
	}

	return nil
}

// decodeObject decodes raw into v only when raw is a JSON object.
func decodeObject(raw json.RawMessage, v any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// previewText returns a string value as is and any other present value as
// its JSON text.
func previewText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

func strPtr(s *coerce.String) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func intPtr(i *coerce.Int) *int64 {
	if i == nil {
		return nil
	}
	v := int64(*i)
	return &v
}
