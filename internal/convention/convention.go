// Package convention extracts Conventional Commits metadata from commit messages.
package convention

import (
	"strings"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// Convention is the structured header of a conventional commit message.
type Convention struct {
	Type     string `json:"type"`
	Scope    string `json:"scope,omitempty"`
	Breaking bool   `json:"breaking"`
}

// Parse returns the conventional commit metadata of message, or nil when the
// message does not follow the grammar.
func Parse(message string) *Convention {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}

	if c := parse(message); c != nil {
		return c
	}

	// bodies that break footer rules still carry a valid header
	subject, _, _ := strings.Cut(message, "\n")
	return parse(strings.TrimSpace(subject))
}

func parse(input string) *Convention {
	machine := parser.NewMachine(parser.WithTypes(conventionalcommits.TypesConventional))
	msg, err := machine.Parse([]byte(input))
	if err != nil || msg == nil || !msg.Ok() {
		return nil
	}

	cc, ok := msg.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return nil
	}

	c := &Convention{
		Type:     cc.Type,
		Breaking: cc.IsBreakingChange(),
	}
	if cc.Scope != nil {
		c.Scope = *cc.Scope
	}
	return c
}
