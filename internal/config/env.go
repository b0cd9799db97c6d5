package config

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// expandEnv replaces ${VAR} inside string scalars. Unset variables are left as written.
// Keys and non-string scalars are not touched.
func expandEnv(node *yaml.Node, lookup func(string) (string, bool)) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			expandEnv(child, lookup)
		}
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			expandEnv(node.Content[i], lookup)
		}
	case yaml.ScalarNode:
		if node.Tag != "!!str" || !envPattern.MatchString(node.Value) {
			return
		}

		node.Value = envPattern.ReplaceAllStringFunc(node.Value, func(match string) string {
			name := envPattern.FindStringSubmatch(match)[1]
			if value, ok := lookup(name); ok {
				return value
			}

			return match
		})

		// Unquoted values are re-resolved, so "${PORT}" can feed an int field.
		if node.Style == 0 {
			node.Tag = ""
		}
	case yaml.AliasNode:
	}
}
