// internal/rules/source.go
package rules

import (
	"encoding/json"
	"fmt"
	"os"
)

// RuleSet is the declarative rule definition document.
type RuleSet struct {
	DefaultRequiredDocuments []string                 `json:"default_required_documents"`
	Global                   GlobalRules              `json:"global"`
	VisaTypes                map[string]VisaTypeRules `json:"visa_types"`
}

type GlobalRules struct {
	BlockedNationalities []string `json:"blocked_nationalities"`
	MinDaysBeforeEntry   int      `json:"min_days_before_entry"`
}

// VisaTypeRules overrides the global rules for one visa type. A nil
// RequiredDocuments means the key was absent and the default list applies;
// an empty non-nil list means no documents are required.
type VisaTypeRules struct {
	BlockedNationalities  []string `json:"blocked_nationalities,omitempty"`
	EligibleNationalities []string `json:"eligible_nationalities,omitempty"`
	RequiredDocuments     []string `json:"required_documents"`
	MinDaysBeforeEntry    *int     `json:"min_days_before_entry,omitempty"`
}

// Source yields the current rule set. Implementations must return a value
// the caller may not mutate in place.
type Source interface {
	Load() (*RuleSet, error)
}

// FileSource reads the JSON document on every Load so edits take effect on
// the next evaluation without a restart.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Load() (*RuleSet, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", s.Path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if rs.VisaTypes == nil {
		rs.VisaTypes = map[string]VisaTypeRules{}
	}
	return &rs, nil
}

// StaticSource serves a fixed rule set, mostly for tests and embedding.
type StaticSource struct {
	Rules RuleSet
}

func (s StaticSource) Load() (*RuleSet, error) {
	rs := s.Rules
	if rs.VisaTypes == nil {
		rs.VisaTypes = map[string]VisaTypeRules{}
	}
	return &rs, nil
}
