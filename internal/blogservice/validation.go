package blogservice

import (
	"sort"
	"strings"

	"github.com/sushihentaime/inkpost/internal/common"
)

const (
	MaxLimit     = 100
	DefaultLimit = 10
	maxTags      = 20
)

func validateTitle(v *common.Validator, title string) {
	v.Check(strings.TrimSpace(title) != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 200), "title", "must be between 3 and 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(strings.TrimSpace(content) != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 10, 100_000), "content", "must be between 10 and 100000 characters long")
}

func validateTags(v *common.Validator, tags []string) {
	v.Check(len(tags) <= maxTags, "tags", "must not contain more than 20 tags")
	for _, tag := range tags {
		v.Check(tag != "", "tags", "must not contain empty tags")
		v.Check(v.CheckStringLength(tag, 0, 50), "tags", "must not contain tags longer than 50 characters")
	}
}

func validateListQuery(v *common.Validator, q ListQuery) {
	v.Check(q.Page >= 1, "page", "must be greater than zero")
	v.Check(q.Limit >= 1 && q.Limit <= MaxLimit, "limit", "must be between 1 and 100")
}

// normalizeTags trims every tag and drops duplicates, keeping the first occurrence.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// normalizeFilter turns a tag filter into its canonical form: trimmed, non-empty, unique and sorted.
func normalizeFilter(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range normalizeTags(tags) {
		if tag != "" {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
