package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charlerive/optionpricer/option"
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// OptionType asks once; there is no retry and no default.
func (p *Prompter) OptionType() (option.Type, error) {
	fmt.Fprint(p.out, "Would you like to evaluate a 'put' or a 'call' option? ")
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading option type: %w", err)
		}
		return "", fmt.Errorf("%w: no answer given", option.ErrInvalidSelection)
	}
	return option.ParseType(p.scanner.Text())
}
