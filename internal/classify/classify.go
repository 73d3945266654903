// Package classify derives a change-set's type, risk, complexity, and
// reasoning budget from its paths, title, and size. It is pure and
// deterministic: the same change-set always classifies identically.
package classify

import (
	"strings"

	"github.com/revqlabs/revq/internal/changeset"
	"github.com/revqlabs/revq/internal/model"
)

// Classification is the full pre-analysis verdict for one change-set.
type Classification struct {
	ChangeType         model.ChangeType
	RiskLevel          model.RiskLevel
	Complexity         model.Complexity
	FocusAreas         []string
	SuggestedModelTier model.Tier
	LinesChanged       int
	StagesToRun        map[string]bool
	StagesToSkip       map[string]bool
}

// bucket names for categorized file paths.
const (
	bucketTest     = "test"
	bucketConfig   = "config"
	bucketDocs     = "docs"
	bucketSecurity = "security"
	bucketAPI      = "api"
	bucketUI       = "ui"
	bucketCore     = "core"
)

// optional pipeline stages the classifier can toggle.
const (
	StageSecurityScan    = "security-scan"
	StageCoverage        = "coverage"
	StageDependencyAudit = "dependency-audit"
)

// titleRule maps a title keyword to a change type. Rules are evaluated
// top to bottom and the first match wins.
type titleRule struct {
	keywords   []string
	changeType model.ChangeType
}

var titleRules = []titleRule{
	{[]string{"security", "vuln", "cve", "exploit"}, model.ChangeSecurity},
	{[]string{"fix", "bug", "patch", "hotfix"}, model.ChangeBugfix},
	{[]string{"refactor", "cleanup", "restructure"}, model.ChangeRefactor},
	{[]string{"test", "spec", "coverage"}, model.ChangeTest},
	{[]string{"doc", "readme", "changelog"}, model.ChangeDocs},
	{[]string{"bump", "upgrade", "dependency", "deps"}, model.ChangeDependency},
	{[]string{"config", "settings", "env"}, model.ChangeConfig},
	{[]string{"feat", "add", "implement", "introduce"}, model.ChangeFeature},
}

// focusAreas is the fixed attention list per change type.
var focusAreas = map[model.ChangeType][]string{
	model.ChangeFeature:    {"correctness", "edge_cases", "test_coverage"},
	model.ChangeBugfix:     {"root_cause", "regression_risk", "test_coverage"},
	model.ChangeRefactor:   {"behavior_preservation", "readability"},
	model.ChangeTest:       {"test_quality", "coverage_gaps"},
	model.ChangeDocs:       {"accuracy", "clarity"},
	model.ChangeSecurity:   {"security_implications", "input_validation", "auth_handling"},
	model.ChangeDependency: {"breaking_changes", "security_implications"},
	model.ChangeConfig:     {"deployment_impact", "secret_exposure"},
}

// Classify analyzes a change-set without any external call.
func Classify(cs *changeset.ChangeSet) Classification {
	buckets := categorize(cs.Files)
	changeType := inferChangeType(cs.Title, buckets)
	risk := inferRisk(cs, buckets)
	complexity := inferComplexity(cs)

	tier := model.TierCheap
	if complexity == model.ComplexityHigh || risk.AtLeast(model.RiskHigh) {
		tier = model.TierCapable
	}

	focus := append([]string(nil), focusAreas[changeType]...)
	if risk.AtLeast(model.RiskHigh) && !contains(focus, "security_implications") {
		focus = append(focus, "security_implications")
	}

	run := map[string]bool{}
	skip := map[string]bool{}
	switch {
	case changeType == model.ChangeSecurity || risk == model.RiskCritical:
		run[StageSecurityScan] = true
		run[StageCoverage] = true
		run[StageDependencyAudit] = true
	case changeType == model.ChangeDependency:
		run[StageDependencyAudit] = true
	case changeType == model.ChangeTest || changeType == model.ChangeDocs:
		skip[StageSecurityScan] = true
	}

	return Classification{
		ChangeType:         changeType,
		RiskLevel:          risk,
		Complexity:         complexity,
		FocusAreas:         focus,
		SuggestedModelTier: tier,
		LinesChanged:       cs.LinesChanged(),
		StagesToRun:        run,
		StagesToSkip:       skip,
	}
}

// categorize sorts file paths into buckets by substring matching.
func categorize(files []string) map[string][]string {
	buckets := make(map[string][]string)
	for _, f := range files {
		buckets[bucketFor(f)] = append(buckets[bucketFor(f)], f)
	}
	return buckets
}

func bucketFor(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "test") || strings.Contains(p, "spec"):
		return bucketTest
	case strings.Contains(p, "auth") || strings.Contains(p, "security") ||
		strings.Contains(p, "crypto") || strings.Contains(p, "password") ||
		strings.Contains(p, "secret") || strings.Contains(p, "token") ||
		strings.Contains(p, "credential"):
		return bucketSecurity
	case strings.HasSuffix(p, ".md") || strings.HasSuffix(p, ".rst") ||
		strings.Contains(p, "docs/") || strings.Contains(p, "readme"):
		return bucketDocs
	case strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml") ||
		strings.HasSuffix(p, ".toml") || strings.HasSuffix(p, ".ini") ||
		strings.HasSuffix(p, ".cfg") || strings.HasSuffix(p, ".env") ||
		strings.Contains(p, "config"):
		return bucketConfig
	case strings.Contains(p, "api/") || strings.Contains(p, "routes") ||
		strings.Contains(p, "handlers") || strings.Contains(p, "endpoints") ||
		strings.Contains(p, "views"):
		return bucketAPI
	case strings.Contains(p, "ui/") || strings.Contains(p, "frontend") ||
		strings.Contains(p, "components") || strings.HasSuffix(p, ".css") ||
		strings.HasSuffix(p, ".html"):
		return bucketUI
	default:
		return bucketCore
	}
}

// inferChangeType prefers title keywords over file buckets.
func inferChangeType(title string, buckets map[string][]string) model.ChangeType {
	t := strings.ToLower(title)
	for _, rule := range titleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.changeType
			}
		}
	}

	// Fall back to bucket comparisons in a fixed order when the title
	// gives no signal, so ties always resolve the same way.
	total := 0
	for _, files := range buckets {
		total += len(files)
	}
	switch {
	case len(buckets[bucketTest]) > len(buckets[bucketCore]):
		return model.ChangeTest
	case total > 0 && len(buckets[bucketDocs]) == total:
		return model.ChangeDocs
	case len(buckets[bucketSecurity]) > 0:
		return model.ChangeSecurity
	case len(buckets[bucketConfig]) > len(buckets[bucketCore]):
		return model.ChangeConfig
	default:
		return model.ChangeFeature
	}
}

// inferRisk applies the risk rules in order; the first match wins.
func inferRisk(cs *changeset.ChangeSet, buckets map[string][]string) model.RiskLevel {
	switch {
	case len(buckets[bucketSecurity]) > 0:
		return model.RiskCritical
	case len(buckets[bucketAPI]) > 3 || cs.LinesChanged() > 300:
		return model.RiskHigh
	case len(buckets[bucketCore]) > 5:
		return model.RiskMedium
	case len(buckets[bucketTest])+len(buckets[bucketDocs])+len(buckets[bucketConfig]) > len(buckets[bucketCore]):
		return model.RiskLow
	default:
		return model.RiskMedium
	}
}

func inferComplexity(cs *changeset.ChangeSet) model.Complexity {
	lines := cs.LinesChanged()
	files := cs.FilesChanged()
	switch {
	case lines > 200 || files > 10:
		return model.ComplexityHigh
	case lines > 50 || files > 5:
		return model.ComplexityMedium
	default:
		return model.ComplexityLow
	}
}

func contains(list []string, s string) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}
