package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/sethoscope/wordle-brute/config"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Args []string
}

var commandMetadata = map[string]CommandMetadata{
	"cache": {
		Args: []string{"stats", "save", "load"},
	},
	"set": {
		Args: []string{
			config.ConfigSolverThreads, config.ConfigVerifyCache, config.ConfigTop,
			config.ConfigHistogram, config.ConfigHistogramWidth,
		},
	},
	"help": {
		Args: helpTopics,
	},
}

var commandNames = []string{
	"help", "load", "reset", "guess", "undo", "candidates", "best",
	"explain", "solve", "cache", "set", "exit",
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		// index of the argument being completed
		argPos := len(fields) - 1
		if !endsWithSpace {
			argPos--
		}
		switch cmdName {
		case "guess", "g", "solve":
			// guess takes one word then feedback
			if cmdName == "solve" || argPos == 0 {
				completions = c.candidateWords(prefix)
			}
		default:
			if metadata, exists := commandMetadata[cmdName]; exists && argPos == 0 {
				completions = metadata.Args
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}

// candidateWords lists current candidates that start with prefix, if
// there are few enough to be useful.
func (c *ShellCompleter) candidateWords(prefix string) []string {
	if c.sc.lex == nil {
		return nil
	}
	words := lo.Filter(c.sc.current.Words(c.sc.lex.Word), func(w string, _ int) bool {
		return strings.HasPrefix(w, prefix)
	})
	if len(words) > 100 {
		return nil
	}
	return words
}
