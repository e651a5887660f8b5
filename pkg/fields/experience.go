package fields

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	minYears = 0
	maxYears = 50

	experienceCacheTTL   = 24 * time.Hour
	experienceCacheChars = 5000

	summaryWindow = 2500
)

var (
	// Explicit statements in the summary. Integer years only; half years
	// truncate.
	explicitYearsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,2})(?:\.\d)?\s*\+?\s*years?\s+of\s+(?:\w+\s+){0,3}experience`),
		regexp.MustCompile(`(?i)over\s+(\d{1,2})\s*years?`),
		regexp.MustCompile(`(?i)more\s+than\s+(\d{1,2})\s*years?`),
		regexp.MustCompile(`(?i)(\d{1,2})\s*\+\s*years?`),
		regexp.MustCompile(`(?i)(\d{1,2})\s+and\s+(?:a\s+)?half\s+years?`),
		regexp.MustCompile(`(?i)experience\s*[:\-]?\s*(\d{1,2})\s*years?`),
	}

	fresherPattern = regexp.MustCompile(`(?i)\b(fresher|fresh\s+graduate|recent\s+graduate|seeking\s+(?:my\s+)?first\s+(?:job|opportunity)|entry[\s-]level\s+position\s+sought)\b`)

	monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

	presentWords = `present|current|till\s*date|till\s*now|to\s*date|now|ongoing|working|still\s*date|still|continue[sd]?|till\s*present|date`

	dateRangePattern = regexp.MustCompile(`(?i)\b(` + monthNames + `)[a-z]*\.?[,\s]*'?(\d{2,4})\s*(?:-|–|—|to|till|until)\s*(?:(` + monthNames + `)[a-z]*\.?[,\s]*'?(\d{2,4})|(` + presentWords + `))`)

	yearRangePattern = regexp.MustCompile(`(?i)\b(19\d{2}|20\d{2})\s*(?:-|–|—|to|till|until)\s*((?:19|20)\d{2}|` + presentWords + `)`)

	workKeywords = []string{
		"experience", "work", "worked", "working", "employment", "employer",
		"company", "client", "project", "role", "designation", "engineer",
		"developer", "analyst", "consultant", "manager", "intern",
	}

	educationKeywords = []string{
		"education", "university", "college", "school", "degree", "bachelor",
		"master", "b.tech", "btech", "m.tech", "mtech", "mba", "bsc", "msc",
		"diploma", "graduated", "gpa", "cgpa",
	}

	monthIndex = map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}
)

// monthRange is a work period in absolute months (year*12 + month-1).
type monthRange struct {
	start int
	end   int
}

// experienceCache absorbs duplicate extraction of identical resumes within
// the TTL, keyed by a hash of the head of the text.
type experienceCache struct {
	mu      sync.Mutex
	entries map[uint64]experienceEntry
}

type experienceEntry struct {
	value string
	at    time.Time
}

var expCache = &experienceCache{entries: make(map[uint64]experienceEntry)}

func (c *experienceCache) get(key uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.at) > experienceCacheTTL {
		return "", false
	}
	return e.value, true
}

func (c *experienceCache) put(key uint64, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = experienceEntry{value: value, at: time.Now()}
}

func experienceCacheKey(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(head(text, experienceCacheChars)))
	return h.Sum64()
}

// ExtractExperience computes total professional experience in whole years.
// Pipeline: explicit summary statements, LLM (summary value or work date
// ranges), pure-regex date ranges gated on work context, fresher markers,
// and a bare year-range fallback.
func ExtractExperience(ctx context.Context, deps *Deps, in Input) (string, error) {
	key := experienceCacheKey(in.Text)
	if cached, ok := expCache.get(key); ok {
		return cached, nil
	}

	value := computeExperience(ctx, deps, in.Text)
	if value != "" {
		expCache.put(key, value)
	}
	return value, nil
}

func computeExperience(ctx context.Context, deps *Deps, text string) string {
	if years, ok := explicitYears(head(text, summaryWindow)); ok {
		return FormatYears(clampYears(years))
	}

	if value, ok := experienceViaLLM(ctx, deps, text); ok {
		return value
	}

	if ranges := regexDateRanges(text); len(ranges) > 0 {
		months := totalMonths(ranges)
		if months >= 3 {
			return FormatYears(YearsFromMonths(months))
		}
	}

	if fresherPattern.MatchString(text) {
		return FormatYears(0)
	}

	// Bare year ranges are noisy (education years match too), so they are
	// the final fallback and still require work context.
	if ranges := regexYearRanges(text); len(ranges) > 0 {
		months := totalMonths(ranges)
		if months >= 3 {
			return FormatYears(YearsFromMonths(months))
		}
	}

	return ""
}

func explicitYears(text string) (int, bool) {
	for _, p := range explicitYearsPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if years, err := strconv.Atoi(m[1]); err == nil && years >= minYears && years <= maxYears {
				return years, true
			}
		}
	}
	return 0, false
}

func experienceViaLLM(ctx context.Context, deps *Deps, text string) (string, bool) {
	prompt := fmt.Sprintf(`Determine the candidate's total professional work experience from this resume.

If the resume states a total (e.g. "8 years of experience"), use that.
Otherwise list every employment date range. Use only work history, never education.
Treat "present", "till date", "current", "working", "ongoing" and similar words as today.

Resume text:
%s

Return JSON:
{"total_years": <integer or null>, "ranges": [{"start": "Jan 2019", "end": "present"}]}`, head(text, 6000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", false
	}

	if v, ok := obj["total_years"]; ok && v != nil {
		if f, ok := v.(float64); ok {
			years := int(f)
			if years >= minYears && years <= maxYears {
				return FormatYears(years), true
			}
		}
	}

	rawRanges, ok := obj["ranges"].([]interface{})
	if !ok || len(rawRanges) == 0 {
		return "", false
	}

	var ranges []monthRange
	for _, raw := range rawRanges {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		start, startOK := parseMonthYear(stringField(entry, "start"))
		if !startOK {
			continue
		}
		end, endOK := parseMonthYear(stringField(entry, "end"))
		if !endOK {
			end = nowMonths()
		}
		if end >= start {
			ranges = append(ranges, monthRange{start: start, end: end})
		}
	}
	if len(ranges) == 0 {
		return "", false
	}

	months := totalMonths(ranges)
	if months < 3 {
		return "", false
	}
	return FormatYears(YearsFromMonths(months)), true
}

// regexDateRanges extracts "Mon YYYY - Mon YYYY|present" ranges, keeping
// only those whose surrounding context looks like employment.
func regexDateRanges(text string) []monthRange {
	var ranges []monthRange
	for _, loc := range dateRangePattern.FindAllStringSubmatchIndex(text, -1) {
		if !workContext(text, loc[0], loc[1]) {
			continue
		}
		m := dateRangePattern.FindStringSubmatch(text[loc[0]:loc[1]])
		if m == nil {
			continue
		}
		start, ok := monthYearToMonths(m[1], m[2])
		if !ok {
			continue
		}
		var end int
		if m[3] != "" && m[4] != "" {
			end, ok = monthYearToMonths(m[3], m[4])
			if !ok {
				continue
			}
		} else {
			end = nowMonths()
		}
		if end >= start {
			ranges = append(ranges, monthRange{start: start, end: end})
		}
	}
	return ranges
}

func regexYearRanges(text string) []monthRange {
	var ranges []monthRange
	for _, loc := range yearRangePattern.FindAllStringSubmatchIndex(text, -1) {
		if !workContext(text, loc[0], loc[1]) {
			continue
		}
		m := yearRangePattern.FindStringSubmatch(text[loc[0]:loc[1]])
		if m == nil {
			continue
		}
		startYear, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		start := startYear * 12
		var end int
		if endYear, err := strconv.Atoi(m[2]); err == nil {
			end = endYear*12 + 11
		} else {
			end = nowMonths()
		}
		if end >= start {
			ranges = append(ranges, monthRange{start: start, end: end})
		}
	}
	return ranges
}

// workContext requires a work keyword near the match and rejects contexts
// that look like an education section.
func workContext(text string, lo, hi int) bool {
	windowLo := lo - 150
	if windowLo < 0 {
		windowLo = 0
	}
	windowHi := hi + 150
	if windowHi > len(text) {
		windowHi = len(text)
	}
	window := strings.ToLower(text[windowLo:windowHi])

	for _, kw := range educationKeywords {
		if strings.Contains(window, kw) {
			return false
		}
	}
	for _, kw := range workKeywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// totalMonths merges overlapping ranges (sorted by start) and sums the
// remaining spans, end-inclusive.
func totalMonths(ranges []monthRange) int {
	if len(ranges) == 0 {
		return 0
	}

	sorted := make([]monthRange, len(ranges))
	copy(sorted, ranges)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].start < sorted[j-1].start; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	merged := []monthRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end+1 {
			if r.end > last.end {
				last.end = r.end
			}
		} else {
			merged = append(merged, r)
		}
	}

	total := 0
	for _, r := range merged {
		total += r.end - r.start + 1
	}
	return total
}

// YearsFromMonths applies the rounding rule: months/12, plus one when the
// remainder is at least six; totals of 3..11 months count as one year.
func YearsFromMonths(months int) int {
	if months < 12 {
		if months >= 3 {
			return 1
		}
		return 0
	}
	years := months / 12
	if months%12 >= 6 {
		years++
	}
	return clampYears(years)
}

func clampYears(years int) int {
	if years < minYears {
		return minYears
	}
	if years > maxYears {
		return maxYears
	}
	return years
}

// FormatYears renders a year count as stored in the experience column.
func FormatYears(years int) string {
	if years == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", years)
}

// ParseYears reads the leading integer out of an experience string such as
// "5 years". Returns -1 when no digits are present.
func ParseYears(experience string) int {
	m := regexp.MustCompile(`\d+`).FindString(experience)
	if m == "" {
		return -1
	}
	years, err := strconv.Atoi(m)
	if err != nil {
		return -1
	}
	return clampYears(years)
}

func parseMonthYear(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if regexp.MustCompile(`^(` + presentWords + `)$`).MatchString(s) {
		return 0, false
	}
	m := regexp.MustCompile(`(` + monthNames + `)[a-z]*\.?[,\s]*'?(\d{2,4})`).FindStringSubmatch(s)
	if m == nil {
		// Year-only values count from January.
		if y := regexp.MustCompile(`^(19|20)\d{2}$`).FindString(s); y != "" {
			year, _ := strconv.Atoi(y)
			return year * 12, true
		}
		return 0, false
	}
	return monthYearToMonths(m[1], m[2])
}

func monthYearToMonths(monthStr, yearStr string) (int, bool) {
	month, ok := monthIndex[strings.ToLower(monthStr)[:3]]
	if !ok {
		return 0, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, false
	}
	if year < 100 {
		year = disambiguateTwoDigitYear(year)
	}
	if year < 1950 || year > time.Now().Year()+1 {
		return 0, false
	}
	return year*12 + month - 1, true
}

// disambiguateTwoDigitYear anchors 'NN years on the current year: values at
// or below the current two-digit year are 20NN, the rest 19NN.
func disambiguateTwoDigitYear(yy int) int {
	pivot := time.Now().Year() % 100
	if yy <= pivot {
		return 2000 + yy
	}
	return 1900 + yy
}

func nowMonths() int {
	now := time.Now()
	return now.Year()*12 + int(now.Month()) - 1
}
