package usecase

import "strings"

// Prefixes chat clients put in front of commands
var commandPrefixes = []string{"!", "/", "css_"}

// ParseCommand splits a chat line such as "!bet ct half" into a lowercase
// command name and its arguments.
func ParseCommand(line string) (string, []string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}

	name := strings.ToLower(fields[0])
	for _, p := range commandPrefixes {
		if strings.HasPrefix(name, p) {
			name = strings.TrimPrefix(name, p)
			break
		}
	}
	if name == "" {
		return "", nil, false
	}
	return name, fields[1:], true
}
