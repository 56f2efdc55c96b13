package main

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/sethoscope/wordle-brute/config"
	"github.com/sethoscope/wordle-brute/distributed"
	"github.com/sethoscope/wordle-brute/lexicon"
)

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	lex, err := lexicon.New("test", []string{"abcd", "abce", "efgh", "wxyz"})
	is.NoErr(err)
	cfg = config.DefaultConfig()
	evt := distributed.LambdaEvent{
		SolveRequest: distributed.NewRequest(lex, []string{"abcd", "wxyz"}, 1),
	}
	resp, err := HandleRequest(context.Background(), evt)
	is.NoErr(err)
	is.Equal(len(resp.Results), 2)
	is.Equal(resp.Results[0].Opener, "abcd")
	is.Equal(resp.Results[0].TotalGuesses, 8)
	is.Equal(resp.Results[1].TotalGuesses, 9)
}
