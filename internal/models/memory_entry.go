// ABOUTME: MemoryEntry is a durable fact extracted from one interaction
// ABOUTME: Entries are appended to a per-scope log and never edited or removed
package models

import (
	"fmt"
	"strings"
)

// Scope selects which memory log an entry belongs to
type Scope string

const (
	ScopeUser    Scope = "USER"
	ScopeCompany Scope = "COMPANY"
)

// Scopes lists every memory scope in log order
var Scopes = []Scope{ScopeUser, ScopeCompany}

// IsValid checks if the scope is a known scope
func (s Scope) IsValid() bool {
	return s == ScopeUser || s == ScopeCompany
}

// ParseScope accepts "user"/"company" in any case
func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.ToUpper(strings.TrimSpace(s)))
	if !scope.IsValid() {
		return "", fmt.Errorf("unknown memory scope %q (want user or company)", s)
	}
	return scope, nil
}

// MemoryEntry is one line of a memory log
type MemoryEntry struct {
	Scope Scope  `json:"scope"`
	Text  string `json:"text"`
}

// Interaction is a query and the answer produced for it
type Interaction struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// ExtractedMemories is the fixed two-key object returned by memory extraction
type ExtractedMemories struct {
	UserMemory    string `json:"user_memory"`
	CompanyMemory string `json:"company_memory"`
}

// Entries returns the non-empty memories as log entries, user first
func (m ExtractedMemories) Entries() []MemoryEntry {
	var entries []MemoryEntry
	if text := strings.TrimSpace(m.UserMemory); text != "" {
		entries = append(entries, MemoryEntry{Scope: ScopeUser, Text: text})
	}
	if text := strings.TrimSpace(m.CompanyMemory); text != "" {
		entries = append(entries, MemoryEntry{Scope: ScopeCompany, Text: text})
	}
	return entries
}
