package model

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) Message {
	t.Helper()
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return m
}

func TestMessage_AssistantFields(t *testing.T) {
	m := decode(t, `{
		"id":"msg_1","role":"assistant","modelID":"claude-sonnet-4","providerID":"anthropic",
		"agent":"build","finish":"tool-calls","cost":0.02,
		"time":{"created":1000,"completed":2500},
		"tokens":{"input":10,"output":20,"reasoning":3,"cache":{"read":100,"write":7}},
		"path":{"cwd":"/work/app","root":"/work/app"}
	}`)

	if m.Role != RoleAssistant {
		t.Errorf("Role = %q", m.Role)
	}
	if m.CreatedMs() != 1000 || m.Time.Completed == nil || *m.Time.Completed != 2500 {
		t.Errorf("Time = %+v", m.Time)
	}
	if m.Tokens == nil {
		t.Fatal("Tokens = nil")
	}
	want := Tokens{Input: 10, Output: 20, Reasoning: 3, CacheRead: 100, CacheWrite: 7}
	if *m.Tokens != want {
		t.Errorf("Tokens = %+v, want %+v", *m.Tokens, want)
	}
	if m.Cost == nil || *m.Cost != 0.02 {
		t.Errorf("Cost = %v", m.Cost)
	}
	if id, ok := m.EffectiveModel(); !ok || id != "claude-sonnet-4" {
		t.Errorf("EffectiveModel = %q, %v", id, ok)
	}
	if m.Path == nil || m.Path.Cwd == nil || *m.Path.Cwd != "/work/app" {
		t.Errorf("Path = %+v", m.Path)
	}
	if m.Finish == nil || *m.Finish != "tool-calls" {
		t.Errorf("Finish = %v", m.Finish)
	}
	if m.HasError() {
		t.Error("HasError = true, want false")
	}
}

func TestMessage_UserModelObject(t *testing.T) {
	m := decode(t, `{"role":"user","time":{"created":5},"model":{"providerID":"google","modelID":"gemini-2.5-pro"},"agent":"plan"}`)

	if id, ok := m.EffectiveModel(); !ok || id != "gemini-2.5-pro" {
		t.Errorf("EffectiveModel = %q, %v", id, ok)
	}
	if m.Model == nil || m.Model.ProviderID == nil || *m.Model.ProviderID != "google" {
		t.Errorf("Model = %+v", m.Model)
	}
	if m.Tokens != nil {
		t.Error("user message without tokens should have nil Tokens")
	}
	if m.Time.Completed != nil {
		t.Error("Completed should be nil when absent")
	}
}

func TestMessage_WrongShapesIgnored(t *testing.T) {
	m := decode(t, `{"role":"assistant","tokens":"lots","model":"gpt-4o","summary":[1,2],"path":"/tmp","cost":"0.5","time":{"created":"1200"}}`)

	if m.Tokens != nil {
		t.Error("string tokens block should be ignored")
	}
	if m.Model != nil {
		t.Error("string model should not produce a ModelRef")
	}
	if m.Summary != nil || m.Path != nil {
		t.Error("non-object summary/path should be ignored")
	}
	if m.Cost == nil || *m.Cost != 0.5 {
		t.Errorf("Cost = %v, want 0.5 from numeric string", m.Cost)
	}
	if m.CreatedMs() != 1200 {
		t.Errorf("CreatedMs = %d, want 1200", m.CreatedMs())
	}
}

func TestMessage_ErrorAndPreview(t *testing.T) {
	m := decode(t, `{"role":"assistant","error":{"name":"ProviderAuthError"},"text":"hello there"}`)
	if !m.HasError() {
		t.Error("HasError = false, want true")
	}
	if m.Preview == nil || *m.Preview != "hello there" {
		t.Errorf("Preview = %v", m.Preview)
	}

	m = decode(t, `{"role":"assistant","error":null,"content":[{"type":"text"}]}`)
	if m.HasError() {
		t.Error("null error should not count")
	}
	if m.Preview == nil || *m.Preview != `[{"type":"text"}]` {
		t.Errorf("Preview = %v, want raw JSON of content", m.Preview)
	}
}

func TestMessage_NotAnObject(t *testing.T) {
	var m Message
	if err := json.Unmarshal([]byte(`[1,2,3]`), &m); err == nil {
		t.Error("expected error for non-object message file")
	}
}
