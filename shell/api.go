package shell

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/sethoscope/wordle-brute/cache"
	"github.com/sethoscope/wordle-brute/candidates"
	"github.com/sethoscope/wordle-brute/config"
	"github.com/sethoscope/wordle-brute/feedback"
	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/orchestrator"
	"github.com/sethoscope/wordle-brute/persist"
	"github.com/sethoscope/wordle-brute/report"
)

var (
	errNoData            = errors.New("no data in command")
	errWrongOptionSyntax = errors.New("wrong format for option")
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

// extractFields splits a line into a command, its arguments and its
// "-key value" options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") && len(fields[i]) > 1 {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[i][1:]] = fields[i+1]
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "exit", "quit":
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "load":
		return sc.load(cmd)
	case "reset":
		return sc.reset(cmd)
	case "guess", "g":
		return sc.guess(cmd)
	case "undo":
		return sc.undo(cmd)
	case "candidates", "c":
		return sc.listCandidates(cmd)
	case "best", "b":
		return sc.best(cmd)
	case "explain":
		return sc.explain(cmd)
	case "solve":
		return sc.solve(cmd)
	case "cache":
		return sc.cacheCmd(cmd)
	case "set":
		return sc.set(cmd)
	default:
		return nil, fmt.Errorf("command %v not found", strconv.Quote(cmd.cmd))
	}
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <path/to/wordlist>")
	}
	path, err := filepath.Abs(cmd.args[0])
	if err != nil {
		return nil, err
	}
	lex, err := cache.Get("lexicon:"+path, func(string) (*lexicon.Lexicon, error) {
		return lexicon.Load(path)
	})
	if err != nil {
		return nil, err
	}
	if err := sc.setLexicon(context.Background(), lex); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("loaded %d words of length %d from %s",
		lex.Len(), lex.WordLength(), lex.Name())), nil
}

func (sc *ShellController) reset(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	sc.current = sc.runner.Full()
	sc.history = nil
	return msg(fmt.Sprintf("%d candidates", sc.current.Len())), nil
}

func (sc *ShellController) guess(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: guess <word> <feedback>, e.g. guess crane .x..O")
	}
	g, ok := sc.lex.Index(cmd.args[0])
	if !ok {
		return nil, fmt.Errorf("%s is not in the word list", cmd.args[0])
	}
	pattern, n, err := feedback.Parse(cmd.args[1])
	if err != nil {
		return nil, err
	}
	if n != sc.lex.WordLength() {
		return nil, fmt.Errorf("feedback has %d marks, words have %d letters", n, sc.lex.WordLength())
	}
	next := candidates.Filter(sc.runner.Source(), sc.runner.Zobrist(), sc.current, g, pattern)
	if next.Len() == 0 {
		return nil, errors.New("no candidates are consistent with that feedback")
	}
	sc.history = append(sc.history, step{guess: g, pattern: pattern, before: sc.current})
	sc.current = next
	if next.Len() == 1 {
		return msg("the word is " + sc.lex.Word(next.Member(0))), nil
	}
	return msg(fmt.Sprintf("%s %s: %d candidates left", sc.lex.Word(g),
		pattern.Squares(sc.lex.WordLength()), next.Len())), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	last := sc.history[len(sc.history)-1]
	sc.history = sc.history[:len(sc.history)-1]
	sc.current = last.before
	return msg(fmt.Sprintf("undid %s; %d candidates", sc.lex.Word(last.guess), sc.current.Len())), nil
}

func (sc *ShellController) listCandidates(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	n := 20
	if len(cmd.args) > 0 {
		var err error
		if n, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	words := sc.current.Words(sc.lex.Word)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d candidates", len(words))
	if n > 0 && n < len(words) {
		words = words[:n]
		sb.WriteString(fmt.Sprintf(" (first %d)", n))
	}
	sb.WriteString(":\n")
	for _, chunk := range lo.Chunk(words, 10) {
		sb.WriteString(strings.Join(chunk, " "))
		sb.WriteString("\n")
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	e := sc.solver.Solve(sc.current)
	return msg("best guess: " + sc.describe(e.BestGuess, e)), nil
}

func (sc *ShellController) explain(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	e, branches := sc.solver.Explain(sc.current)
	length := sc.lex.WordLength()
	var sb strings.Builder
	fmt.Fprintf(&sb, "best guess: %s\n", sc.describe(e.BestGuess, e))
	for _, b := range branches {
		fmt.Fprintf(&sb, "%s %s  %4d left", b.Pattern.Squares(length), b.Pattern.Format(length), b.Candidates.Len())
		if b.Candidates.Len() > 1 {
			fmt.Fprintf(&sb, "  next %s (average %.3f)", sc.lex.Word(b.Next.BestGuess), b.Next.Average())
		} else if b.Pattern != feedback.AllExact(length) {
			fmt.Fprintf(&sb, "  it's %s", sc.lex.Word(b.Candidates.Member(0)))
		}
		sb.WriteString("\n")
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// solve scores guesses against the current candidates, best first.
func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	guesses := lo.Map(sc.current.Members(), func(m uint16, _ int) int { return int(m) })
	if len(cmd.args) > 0 {
		guesses = guesses[:0:0]
		for _, w := range cmd.args {
			i, ok := sc.lex.Index(w)
			if !ok || !sc.current.Contains(i) {
				return nil, fmt.Errorf("%w: %s is not a current candidate", orchestrator.ErrUnknownOpener, w)
			}
			guesses = append(guesses, i)
		}
	}
	summary := &orchestrator.Summary{Lexicon: sc.lex.Name(), NumWords: sc.current.Len(), Complete: true}
	for _, g := range guesses {
		nodes := sc.solver.Nodes()
		e := sc.solver.Evaluate(sc.current, g)
		summary.Results = append(summary.Results,
			orchestrator.NewResult(sc.lex.Word(g), g, e, sc.solver.Nodes()-nodes, 0))
	}
	orchestrator.SortResults(summary.Results)
	var sb strings.Builder
	if err := report.WriteTable(&sb, summary, sc.config.GetInt(config.ConfigTop)); err != nil {
		return nil, err
	}
	if sc.config.GetBool(config.ConfigHistogram) {
		best, _ := summary.Best()
		if err := report.WriteHistogram(&sb, best.Histogram, sc.config.GetInt(config.ConfigHistogramWidth)); err != nil {
			return nil, err
		}
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) cacheCmd(cmd *shellcmd) (*Response, error) {
	if err := sc.requireLexicon(); err != nil {
		return nil, err
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: cache stats|save <path>|load <path>")
	}
	switch cmd.args[0] {
	case "stats":
		s := sc.table.Stats()
		return msg(fmt.Sprintf("entries %d, lookups %d, hits %d (%.1f%%), stores %d, rejected %d, collisions %d",
			s.Entries, s.Lookups, s.Hits, 100*s.HitRate(), s.Stores, s.Rejected, s.Collisions)), nil
	case "save":
		if len(cmd.args) != 2 {
			return nil, errors.New("usage: cache save <path>")
		}
		records := sc.table.Records(true)
		if err := persist.SaveFile(sc.lex, cmd.args[1], records); err != nil {
			return nil, err
		}
		return msg(fmt.Sprintf("saved %d entries to %s", len(records), cmd.args[1])), nil
	case "load":
		if len(cmd.args) != 2 {
			return nil, errors.New("usage: cache load <path>")
		}
		records, err := persist.LoadFiles(sc.lex, cmd.args[1:])
		if err != nil {
			return nil, err
		}
		n := sc.table.Load(records, sc.runner.Zobrist().Hash)
		return msg(fmt.Sprintf("loaded %d entries from %s", n, cmd.args[1])), nil
	}
	return nil, fmt.Errorf("unknown cache command %s", cmd.args[0])
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		keys := lo.Keys(sc.config.AllSettings())
		slices.Sort(keys)
		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "%-26s %v\n", k, sc.config.Get(k))
		}
		return msg(strings.TrimRight(sb.String(), "\n")), nil
	}
	key := cmd.args[0]
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s = %v", key, sc.config.Get(key))), nil
	}
	sc.config.Set(key, cmd.args[1])
	if sc.solver != nil {
		switch key {
		case config.ConfigSolverThreads:
			sc.solver.SetThreads(sc.config.GetInt(key))
		case config.ConfigVerifyCache:
			sc.solver.SetVerifyWarm(sc.config.GetBool(key))
		}
	}
	return msg("set " + key + " to " + cmd.args[1]), nil
}
