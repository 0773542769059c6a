package llm

import (
	"context"
	"sync"
)

// ScriptEntry defines a single scripted response.
type ScriptEntry struct {
	Text  string
	Err   error
	Block <-chan struct{} // when set, Complete waits for close or ctx done
}

// CapturedCall records the prompts of one Complete invocation.
type CapturedCall struct {
	SystemPrompt string
	UserPrompt   string
}

// ScriptedClient implements Client with canned responses consumed in order.
// When the script runs out it keeps returning the Default text, so the
// server stays usable in mock mode.
type ScriptedClient struct {
	mu       sync.Mutex
	script   []ScriptEntry
	index    int
	captured []CapturedCall

	// Default is returned when the script is exhausted.
	Default string
}

// NewScriptedClient creates a mock client.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{Default: "mock response"}
}

// Add appends a scripted entry.
func (c *ScriptedClient) Add(entry ScriptEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, entry)
}

// AddText appends a plain text response.
func (c *ScriptedClient) AddText(text string) {
	c.Add(ScriptEntry{Text: text})
}

// Calls returns the captured prompts, in invocation order.
func (c *ScriptedClient) Calls() []CapturedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedCall, len(c.captured))
	copy(out, c.captured)
	return out
}

// Complete implements Client.
func (c *ScriptedClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.mu.Lock()
	c.captured = append(c.captured, CapturedCall{SystemPrompt: systemPrompt, UserPrompt: userPrompt})
	var entry ScriptEntry
	if c.index < len(c.script) {
		entry = c.script[c.index]
		c.index++
	} else {
		entry = ScriptEntry{Text: c.Default}
	}
	c.mu.Unlock()

	if entry.Block != nil {
		select {
		case <-entry.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if entry.Err != nil {
		return "", entry.Err
	}
	return entry.Text, nil
}
