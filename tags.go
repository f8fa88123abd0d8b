// FILE: lixenwraith/tagconf/tags.go
package tagconf

import (
	"os"
	"strings"
)

// TagsEnvVar holds the comma separated initial tags read by EnvTagResolver.
const TagsEnvVar = "TAGCONF_TAGS"

// TagResolver supplies the initial current tags of a Configuration.
type TagResolver interface {
	Tags() []string
}

// StaticTagResolver returns a fixed list.
type StaticTagResolver []string

func (s StaticTagResolver) Tags() []string {
	return append([]string(nil), s...)
}

// EnvTagResolver reads tags from an environment variable, TagsEnvVar when Var is empty.
type EnvTagResolver struct {
	Var string
}

func (r EnvTagResolver) Tags() []string {
	name := r.Var
	if name == "" {
		name = TagsEnvVar
	}
	return ParseTags(os.Getenv(name))
}

// ParseTags splits a comma separated list, trimming blanks and dropping empty entries.
func ParseTags(list string) []string {
	var tags []string
	for _, part := range strings.Split(list, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// resolveTag picks the winning raw value of a node: the override tag first,
// then the first current tag present, then the untagged value.
func resolveTag(values map[string]string, tags []string) (string, bool) {
	if v, ok := values[TagAll]; ok {
		return v, true
	}
	for _, tag := range tags {
		if v, ok := values[tag]; ok {
			return v, true
		}
	}
	v, ok := values[DefaultTag]
	return v, ok
}

func validateTag(tag string) error {
	switch {
	case strings.TrimSpace(tag) == "":
		return illegalArgument("tag must not be empty")
	case strings.Contains(tag, ","):
		return illegalArgument("tag %q must not contain a comma", tag)
	case tag == TagAll:
		return illegalArgument("tag %q is reserved", tag)
	}
	return nil
}

func validateTags(tags []string) error {
	for _, tag := range tags {
		if err := validateTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// Tag list transformations. Each returns a new slice; inputs are never mutated.

func withoutTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

func appendTags(tags []string, add ...string) []string {
	out := append([]string(nil), tags...)
	for _, tag := range add {
		out = append(withoutTag(out, tag), tag)
	}
	return out
}

func prependTags(tags []string, add ...string) []string {
	out := append([]string(nil), tags...)
	for i := len(add) - 1; i >= 0; i-- {
		out = append([]string{add[i]}, withoutTag(out, add[i])...)
	}
	return out
}
