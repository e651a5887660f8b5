package search

import (
	"regexp"
	"strings"
)

// canonicalRoles maps role phrasing variants to a canonical role key.
// Longer variants are matched first so "senior qa automation engineer"
// resolves before a bare "engineer" could.
var canonicalRoles = []struct {
	pattern string
	role    string
}{
	{"software development engineer in test", "qa_automation_engineer"},
	{"qa automation engineer", "qa_automation_engineer"},
	{"test automation engineer", "qa_automation_engineer"},
	{"automation test engineer", "qa_automation_engineer"},
	{"quality assurance engineer", "qa_automation_engineer"},
	{"automation tester", "qa_automation_engineer"},
	{"qa automation", "qa_automation_engineer"},
	{"test automation", "qa_automation_engineer"},
	{"quality assurance", "qa_automation_engineer"},
	{"qa engineer", "qa_automation_engineer"},
	{"qa tester", "qa_automation_engineer"},
	{"sdet", "qa_automation_engineer"},
	{"manual tester", "manual_tester"},
	{"manual testing", "manual_tester"},
	{"full stack developer", "full_stack_developer"},
	{"fullstack developer", "full_stack_developer"},
	{"full stack engineer", "full_stack_developer"},
	{"frontend developer", "frontend_developer"},
	{"front end developer", "frontend_developer"},
	{"ui developer", "frontend_developer"},
	{"backend developer", "backend_developer"},
	{"back end developer", "backend_developer"},
	{"python developer", "python_developer"},
	{"java developer", "java_developer"},
	{"javascript developer", "javascript_developer"},
	{"node developer", "javascript_developer"},
	{"react developer", "frontend_developer"},
	{"android developer", "mobile_developer"},
	{"ios developer", "mobile_developer"},
	{"mobile developer", "mobile_developer"},
	{"mobile application developer", "mobile_developer"},
	{"data engineer", "data_engineer"},
	{"data scientist", "data_scientist"},
	{"machine learning engineer", "data_scientist"},
	{"ml engineer", "data_scientist"},
	{"data analyst", "data_analyst"},
	{"business analyst", "business_analyst"},
	{"devops engineer", "devops_engineer"},
	{"site reliability engineer", "devops_engineer"},
	{"sre", "devops_engineer"},
	{"cloud engineer", "cloud_engineer"},
	{"database administrator", "database_administrator"},
	{"dba", "database_administrator"},
	{"software engineer", "software_engineer"},
	{"software developer", "software_engineer"},
	{"web developer", "software_engineer"},
	{"project manager", "project_manager"},
	{"product manager", "product_manager"},
	{"hr manager", "hr_manager"},
	{"hr executive", "hr_executive"},
	{"human resources", "hr_executive"},
	{"recruiter", "recruiter"},
	{"talent acquisition", "recruiter"},
	{"accountant", "accountant"},
	{"sales executive", "sales_executive"},
	{"sales manager", "sales_manager"},
	{"marketing manager", "marketing_manager"},
	{"digital marketing", "digital_marketer"},
	{"customer service", "customer_service"},
	{"customer support", "customer_service"},
	{"graphic designer", "graphic_designer"},
	{"content writer", "content_writer"},
}

var roleCleanPattern = regexp.MustCompile(`[^a-z0-9 ]+`)

// NormalizeRole resolves a free-form role or designation to a canonical role
// key. Seniority prefixes are ignored. The second return reports whether the
// table recognized the role at all.
func NormalizeRole(role string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(role))
	s = roleCleanPattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", false
	}
	for _, prefix := range []string{"senior ", "sr ", "junior ", "jr ", "lead ", "principal ", "staff ", "associate "} {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, entry := range canonicalRoles {
		if s == entry.pattern || strings.Contains(s, entry.pattern) {
			return entry.role, true
		}
	}
	return "", false
}

// roleFamilies maps role-family keywords found in a query to the namespaces
// worth querying for that family. Namespace names follow the category
// derivation rule.
var roleFamilies = []struct {
	keywords   []string
	namespaces []string
}{
	{
		keywords:   []string{"qa", "sdet", "tester", "testing", "quality assurance", "automation"},
		namespaces: []string{"qa_test_automation", "manual_testing"},
	},
	{
		keywords:   []string{"full stack", "fullstack"},
		namespaces: []string{"full_stack_development_python", "full_stack_development_java", "full_stack_development_javascript"},
	},
	{
		keywords:   []string{"frontend", "front end", "react", "angular", "ui developer"},
		namespaces: []string{"frontend_development", "full_stack_development_javascript", "ui_ux_design"},
	},
	{
		keywords:   []string{"backend", "back end"},
		namespaces: []string{"backend_development", "full_stack_development_python", "full_stack_development_java"},
	},
	{
		keywords:   []string{"data engineer", "etl", "data pipeline"},
		namespaces: []string{"data_engineering", "data_science_machine_learning", "business_intelligence"},
	},
	{
		keywords:   []string{"data scientist", "machine learning", "deep learning", "ml engineer"},
		namespaces: []string{"data_science_machine_learning", "artificial_intelligence", "data_engineering"},
	},
	{
		keywords:   []string{"devops", "sre", "site reliability", "kubernetes"},
		namespaces: []string{"devops_site_reliability", "cloud_engineering"},
	},
	{
		keywords:   []string{"cloud engineer", "aws engineer", "azure engineer"},
		namespaces: []string{"cloud_engineering", "devops_site_reliability"},
	},
	{
		keywords:   []string{"mobile", "android", "ios", "flutter"},
		namespaces: []string{"mobile_development"},
	},
	{
		keywords:   []string{"developer", "software engineer", "programmer"},
		namespaces: []string{"backend_development", "frontend_development", "full_stack_development_python", "full_stack_development_java", "full_stack_development_javascript"},
	},
	{
		keywords:   []string{"dba", "database administrator"},
		namespaces: []string{"database_administration"},
	},
	{
		keywords:   []string{"security", "cybersecurity", "penetration"},
		namespaces: []string{"cybersecurity", "network_engineering"},
	},
}

// roleFamilyNamespaces returns the namespaces for the first role family
// whose keyword appears in the query, or nil.
func roleFamilyNamespaces(query string) []string {
	q := strings.ToLower(query)
	for _, family := range roleFamilies {
		for _, kw := range family.keywords {
			if containsWord(q, kw) {
				return family.namespaces
			}
		}
	}
	return nil
}

// containsWord matches kw in q on word boundaries so "qa" does not hit
// inside "qatar".
func containsWord(q, kw string) bool {
	idx := 0
	for {
		i := strings.Index(q[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		beforeOK := i == 0 || !isWordChar(q[i-1])
		after := i + len(kw)
		afterOK := after == len(q) || !isWordChar(q[after])
		if beforeOK && afterOK {
			return true
		}
		idx = i + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// locationAliases normalizes common shorthand before location filters are
// compiled.
var locationAliases = map[string]string{
	"nyc":       "new york",
	"ny":        "new york",
	"sf":        "san francisco",
	"la":        "los angeles",
	"blr":       "bangalore",
	"bengaluru": "bangalore",
	"hyd":       "hyderabad",
	"gurugram":  "gurgaon",
	"bombay":    "mumbai",
	"madras":    "chennai",
	"calcutta":  "kolkata",
	"delhi ncr": "delhi",
	"new delhi": "delhi",
}

// NormalizeLocation lowercases and alias-maps a location string.
func NormalizeLocation(location string) string {
	s := strings.ToLower(strings.TrimSpace(location))
	if alias, ok := locationAliases[s]; ok {
		return alias
	}
	return s
}
