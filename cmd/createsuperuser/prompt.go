package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/postboard/blog-api/internal/core/ports"
)

var errPasswordMismatch = errors.New("passwords do not match")

// prompter reads superuser credentials interactively. readPassword is
// swapped out in tests.
type prompter struct {
	in           *bufio.Reader
	out          io.Writer
	fd           int
	readPassword func(fd int) ([]byte, error)
}

func newPrompter(in io.Reader, out io.Writer, fd int) *prompter {
	return &prompter{
		in:           bufio.NewReader(in),
		out:          out,
		fd:           fd,
		readPassword: term.ReadPassword,
	}
}

func (p *prompter) credentials() (ports.RegisterInput, error) {
	email, err := p.line("Email: ")
	if err != nil {
		return ports.RegisterInput{}, err
	}
	if email == "" {
		return ports.RegisterInput{}, errors.New("email must not be empty")
	}

	password, err := p.secret("Password: ")
	if err != nil {
		return ports.RegisterInput{}, err
	}
	confirm, err := p.secret("Password (again): ")
	if err != nil {
		return ports.RegisterInput{}, err
	}
	if password != confirm {
		return ports.RegisterInput{}, errPasswordMismatch
	}

	return ports.RegisterInput{Email: email, Password: password}, nil
}

func (p *prompter) line(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) secret(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	b, err := p.readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
