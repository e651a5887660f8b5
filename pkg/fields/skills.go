package fields

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// skillAliases maps surface forms to canonical skill names. Both sides of
// every skill comparison in the system pass through this table.
var skillAliases = map[string]string{
	"react.js":      "react",
	"reactjs":       "react",
	"react js":      "react",
	"angularjs":     "angular",
	"angular.js":    "angular",
	"angular js":    "angular",
	"vue.js":        "vue",
	"vuejs":         "vue",
	"node.js":       "node",
	"nodejs":        "node",
	"node js":       "node",
	"next.js":       "nextjs",
	"express.js":    "express",
	"expressjs":     "express",
	"java 8":        "java",
	"java 11":       "java",
	"java 17":       "java",
	"core java":     "java",
	"golang":        "go",
	"js":            "javascript",
	"ts":            "typescript",
	"py":            "python",
	"python3":       "python",
	"python 3":      "python",
	"k8s":           "kubernetes",
	"postgres":      "postgresql",
	"postgre sql":   "postgresql",
	"ms sql":        "sql server",
	"mssql":         "sql server",
	"amazon web services": "aws",
	"google cloud":        "gcp",
	"google cloud platform": "gcp",
	"microsoft azure": "azure",
	"rest api":        "rest",
	"restful":         "rest",
	"restful api":     "rest",
	"ci/cd":           "cicd",
	"ci-cd":           "cicd",
	"html5":           "html",
	"css3":            "css",
	"selenium webdriver": "selenium",
	"springboot":         "spring boot",
	"dot net":            ".net",
	"dotnet":             ".net",
	"c sharp":            "c#",
	"ml":                 "machine learning",
	"dl":                 "deep learning",
	"nlp":                "natural language processing",
}

var skillSpaceCollapse = regexp.MustCompile(`\s+`)

// NormalizeSkill reduces a skill name to its canonical form.
func NormalizeSkill(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	s = skillSpaceCollapse.ReplaceAllString(s, " ")
	if canonical, ok := skillAliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeSkillList canonicalizes every skill, deduplicating while
// preserving first-seen order.
func NormalizeSkillList(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		normalized := NormalizeSkill(skill)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

// SplitSkillSet parses a stored comma-joined skillset column.
func SplitSkillSet(skillset string) []string {
	if strings.TrimSpace(skillset) == "" {
		return nil
	}
	parts := strings.Split(skillset, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtractSkills asks the LLM for the candidate's skills and stores them
// canonicalized and comma-joined.
func ExtractSkills(ctx context.Context, deps *Deps, in Input) (string, error) {
	prompt := fmt.Sprintf(`List the candidate's technical and professional skills from this resume.
Include programming languages, frameworks, tools, and domain skills actually mentioned.
Do not invent skills.

Resume text:
%s

Return JSON: {"skills": ["skill1", "skill2"]} or {"skills": []} if none.`, head(in.Text, 6000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", fmt.Errorf("skills extraction failed: %w", err)
	}

	skills := NormalizeSkillList(stringSliceField(obj, "skills"))
	if len(skills) == 0 {
		return "", nil
	}
	return strings.Join(skills, ","), nil
}
