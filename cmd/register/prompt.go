package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tendant/simple-storefront/pkg/register"
	"golang.org/x/term"
)

type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	secret func() (string, error)
}

// newPrompter reads passwords without echo when in is a terminal.
func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.secret = func() (string, error) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
	} else {
		p.secret = p.line
	}
	return p
}

func (p *prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) ask(label, value string, read func() (string, error)) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	answer, err := read()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return answer, nil
}

func (p *prompter) fields(name, email string) (register.Fields, error) {
	var fields register.Fields
	var err error
	if fields.Name, err = p.ask("Name", name, p.line); err != nil {
		return fields, err
	}
	if fields.Email, err = p.ask("Email Address", email, p.line); err != nil {
		return fields, err
	}
	if fields.Password, err = p.ask("Password", "", p.secret); err != nil {
		return fields, err
	}
	if fields.ConfirmPassword, err = p.ask("Confirm Password", "", p.secret); err != nil {
		return fields, err
	}
	return fields, nil
}
