package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/sethoscope/wordle-brute/candidates"
	"github.com/sethoscope/wordle-brute/config"
	"github.com/sethoscope/wordle-brute/feedback"
	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/orchestrator"
	"github.com/sethoscope/wordle-brute/persist"
	"github.com/sethoscope/wordle-brute/solver"
	"github.com/sethoscope/wordle-brute/subtree"
)

var errQuit = errors.New("sending quit signal")

// step is one guess the player made and the feedback the host gave.
type step struct {
	guess   int
	pattern feedback.Pattern
	before  candidates.Set
}

// ShellController plays along with a game being played elsewhere: the
// user enters each guess and its feedback, and the controller narrows the
// candidates and suggests the optimal next guess.
type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	lex     *lexicon.Lexicon
	runner  *orchestrator.Runner
	table   *subtree.Table
	solver  *solver.Solver
	current candidates.Set
	history []step
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func newController(cfg *config.Config, out io.Writer) *ShellController {
	return &ShellController{config: cfg, out: out}
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := newController(cfg, os.Stderr)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mwordle-brute>\033[0m ",
		HistoryFile:     "/tmp/wordle-brute-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// Execute runs a single command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) error {
	cmd, err := extractFields(line)
	if errors.Is(err, errNoData) {
		return nil
	}
	if err != nil {
		sc.showError(err)
		return nil
	}
	resp, err := sc.dispatch(cmd)
	if errors.Is(err, errQuit) {
		sig <- syscall.SIGINT
		return err
	}
	if err != nil {
		sc.showError(err)
		return nil
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return nil
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	if path := sc.config.GetString(config.ConfigWordList); path != "" {
		if resp, err := sc.load(&shellcmd{cmd: "load", args: []string{path}}); err != nil {
			sc.showError(err)
		} else {
			sc.showMessage(resp.message)
		}
	}
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		if err := sc.Execute(sig, strings.TrimSpace(line)); err != nil {
			break
		}
	}
	log.Debug().Msg("exiting-readline-loop")
}

// Cleanup writes the subtree cache to cache-out, if one is configured.
func (sc *ShellController) Cleanup() {
	path := sc.config.GetString(config.ConfigCacheOut)
	if path == "" || sc.table == nil {
		return
	}
	records := sc.table.Records(true)
	if err := persist.SaveFile(sc.lex, path, records); err != nil {
		log.Err(err).Str("path", path).Msg("saving-cache")
		return
	}
	log.Info().Int("records", len(records)).Str("path", path).Msg("saved-cache")
}

func (sc *ShellController) setLexicon(ctx context.Context, lex *lexicon.Lexicon) error {
	policy := subtree.Policy{
		MinSetSize:     sc.config.GetInt(config.ConfigCacheMinSetSize),
		MaxSetSize:     sc.config.GetInt(config.ConfigCacheMaxSetSize),
		MemoryFraction: sc.config.GetFloat64(config.ConfigCacheMemoryFraction),
	}
	r, err := orchestrator.NewRunner(ctx, lex, orchestrator.Config{
		Threads:               sc.config.GetInt(config.ConfigThreads),
		SolverThreads:         sc.config.GetInt(config.ConfigSolverThreads),
		Policy:                policy,
		VerifyWarm:            sc.config.GetBool(config.ConfigVerifyCache),
		FeedbackTableMaxWords: sc.config.GetInt(config.ConfigFeedbackTableMaxWords),
	})
	if err != nil {
		return err
	}
	var base *subtree.Table
	if paths := sc.config.GetStringSlice(config.ConfigCacheIn); len(paths) > 0 {
		base, err = persist.LoadTable(lex, paths, r.Zobrist().Hash, policy)
		if err != nil {
			return err
		}
	}
	sc.lex = lex
	sc.runner = r
	sc.table = subtree.NewTable(policy, base)
	sc.solver = r.NewSolver(sc.table)
	sc.current = r.Full()
	sc.history = nil
	return nil
}

func (sc *ShellController) requireLexicon() error {
	if sc.lex == nil {
		return errors.New("no word list loaded; use load <path>")
	}
	return nil
}

func (sc *ShellController) describe(word int, e subtree.Entry) string {
	return fmt.Sprintf("%s  average %.5f  total %d  worst %d",
		sc.lex.Word(word), e.Average(), e.TotalGuesses, e.MaxGuesses())
}
