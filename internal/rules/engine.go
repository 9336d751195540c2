// internal/rules/engine.go
package rules

import (
	"fmt"
	"strings"
	"time"
)

const (
	CodeNationalityGloballyBlocked    = "NATIONALITY_GLOBALLY_BLOCKED"
	CodeNationalityBlockedForVisaType = "NATIONALITY_BLOCKED_FOR_VISA_TYPE"
	CodeNationalityNotInAllowlist     = "NATIONALITY_NOT_IN_ALLOWLIST"
	CodeMissingRequiredDocuments      = "MISSING_REQUIRED_DOCUMENTS"
	CodeEntryDateTooSoon              = "ENTRY_DATE_TOO_SOON"
)

type Input struct {
	VisaTypeCode      string
	Nationality       string
	IntendedEntryDate time.Time
	DocumentTypes     []string
	// ReferenceDate defaults to today when zero.
	ReferenceDate time.Time
}

// Result holds parallel failure codes and explanations in check order.
type Result struct {
	Passed       bool     `json:"passed"`
	FailureCodes []string `json:"failure_codes"`
	Explanations []string `json:"explanations"`
}

func (r *Result) addFailure(code, explanation string) {
	r.Passed = false
	r.FailureCodes = append(r.FailureCodes, code)
	r.Explanations = append(r.Explanations, explanation)
}

// IsHardBlocker reports whether a failure code stops pre-screening.
func IsHardBlocker(code string) bool {
	return strings.Contains(code, "NATIONALITY")
}

// HardBlockers returns the nationality-related failure codes.
func (r Result) HardBlockers() []string {
	var codes []string
	for _, c := range r.FailureCodes {
		if IsHardBlocker(c) {
			codes = append(codes, c)
		}
	}
	return codes
}

// Warning is a failure downgraded to an advisory.
type Warning struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// Warnings returns the failures that do not block pre-screening.
func (r Result) Warnings() []Warning {
	var out []Warning
	for i, c := range r.FailureCodes {
		if !IsHardBlocker(c) {
			out = append(out, Warning{Code: c, Explanation: r.Explanations[i]})
		}
	}
	return out
}

type Engine struct {
	source Source
	now    func() time.Time
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source, now: time.Now}
}

// WithClock replaces the clock used when Input.ReferenceDate is zero.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	return &Engine{source: e.source, now: now}
}

// Evaluate runs every check against the current rule set. All checks run;
// failures accumulate rather than short-circuit.
func (e *Engine) Evaluate(in Input) (Result, error) {
	rs, err := e.source.Load()
	if err != nil {
		return Result{}, err
	}

	result := Result{Passed: true, FailureCodes: []string{}, Explanations: []string{}}
	nationality := strings.ToUpper(strings.TrimSpace(in.Nationality))
	typeRules := rs.VisaTypes[in.VisaTypeCode]

	if containsFold(rs.Global.BlockedNationalities, nationality) {
		result.addFailure(CodeNationalityGloballyBlocked,
			fmt.Sprintf("Nationality '%s' is not eligible for any visa type.", in.Nationality))
	}

	if containsFold(typeRules.BlockedNationalities, nationality) {
		result.addFailure(CodeNationalityBlockedForVisaType,
			fmt.Sprintf("Nationality '%s' is not eligible for visa type '%s'.", in.Nationality, in.VisaTypeCode))
	}

	// An empty allowlist leaves the visa type unrestricted.
	if len(typeRules.EligibleNationalities) > 0 && !containsFold(typeRules.EligibleNationalities, nationality) {
		result.addFailure(CodeNationalityNotInAllowlist,
			fmt.Sprintf("Visa type '%s' is restricted to specific nationalities and '%s' is not on that list.",
				in.VisaTypeCode, in.Nationality))
	}

	if missing := missingDocuments(requiredDocuments(rs, in.VisaTypeCode), in.DocumentTypes); len(missing) > 0 {
		result.addFailure(CodeMissingRequiredDocuments,
			fmt.Sprintf("The following documents are required for '%s' but are absent: %s",
				in.VisaTypeCode, strings.Join(missing, ", ")))
	}

	minDays := rs.Global.MinDaysBeforeEntry
	if typeRules.MinDaysBeforeEntry != nil {
		minDays = *typeRules.MinDaysBeforeEntry
	}
	reference := in.ReferenceDate
	if reference.IsZero() {
		reference = e.now()
	}
	if days := DaysBetween(reference, in.IntendedEntryDate); days < minDays {
		result.addFailure(CodeEntryDateTooSoon,
			fmt.Sprintf("Intended entry date must be at least %d day(s) from today. Currently only %d day(s) away.",
				minDays, days))
	}

	return result, nil
}

// RequiredDocuments returns the document types required for a visa type.
func (e *Engine) RequiredDocuments(visaTypeCode string) ([]string, error) {
	rs, err := e.source.Load()
	if err != nil {
		return nil, err
	}
	docs := requiredDocuments(rs, visaTypeCode)
	out := make([]string, len(docs))
	copy(out, docs)
	return out, nil
}

// MissingDocuments returns the required document types absent from supplied.
func (e *Engine) MissingDocuments(visaTypeCode string, supplied []string) ([]string, error) {
	required, err := e.RequiredDocuments(visaTypeCode)
	if err != nil {
		return nil, err
	}
	return missingDocuments(required, supplied), nil
}

// The visa-type list replaces the default list entirely when present.
func requiredDocuments(rs *RuleSet, visaTypeCode string) []string {
	if typeRules, ok := rs.VisaTypes[visaTypeCode]; ok && typeRules.RequiredDocuments != nil {
		return typeRules.RequiredDocuments
	}
	return rs.DefaultRequiredDocuments
}

func missingDocuments(required, supplied []string) []string {
	have := make(map[string]struct{}, len(supplied))
	for _, d := range supplied {
		have[strings.ToUpper(d)] = struct{}{}
	}
	var missing []string
	for _, doc := range required {
		if _, ok := have[strings.ToUpper(doc)]; !ok {
			missing = append(missing, doc)
		}
	}
	return missing
}

func containsFold(list []string, upper string) bool {
	for _, v := range list {
		if strings.ToUpper(v) == upper {
			return true
		}
	}
	return false
}

// DaysBetween counts calendar days from one date to another, ignoring the
// time of day and location.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
