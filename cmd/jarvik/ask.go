package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/a-h/jarvik/models"
)

type AskCommand struct {
	ClientFlags `embed:""`
	Model       string   `help:"Use this model instead of the session's model." default:""`
	Width       int      `help:"Wrap output at this width." default:"80"`
	Message     []string `arg:"" help:"The question."`
}

func (c AskCommand) Run(ctx context.Context) (err error) {
	s, _, err := c.loadLoggedIn()
	if err != nil {
		return err
	}
	resp, err := c.client().Ask(ctx, models.AskRequest{
		Credentials: s.Credentials(),
		Message:     strings.Join(c.Message, " "),
		Model:       firstNonEmpty(c.Model, s.Model),
		Remember:    s.Memory,
	})
	if err != nil {
		return err
	}
	fmt.Println(formatAnswer(resp, c.Width))
	return nil
}

type CodeCommand struct {
	ClientFlags `embed:""`
	Model       string   `help:"Use this model instead of the session's model." default:""`
	Width       int      `help:"Wrap output at this width." default:"80"`
	File        string   `help:"The file containing the code to work on, - for stdin." short:"f" default:"-"`
	With        []string `help:"Additional files to send with the code."`
	Instruction []string `arg:"" help:"What to do with the code."`
}

func (c CodeCommand) Run(ctx context.Context) (err error) {
	s, _, err := c.loadLoggedIn()
	if err != nil {
		return err
	}
	code, err := readCode(c.File)
	if err != nil {
		return err
	}
	files, err := readFiles(c.With)
	if err != nil {
		return err
	}
	resp, err := c.client().Code(ctx, models.CodeRequest{
		Credentials: s.Credentials(),
		Instruction: strings.Join(c.Instruction, " "),
		Code:        code,
		Files:       files,
		Model:       firstNonEmpty(c.Model, s.Model),
		Remember:    s.Memory,
	})
	if err != nil {
		return err
	}
	fmt.Println(formatAnswer(resp, c.Width))
	return nil
}

func readCode(name string) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read code from stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return string(b), nil
}

// readFiles maps each file's base name to its content.
func readFiles(names []string) (map[string]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	files := make(map[string]string, len(names))
	for _, name := range names {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", name, err)
		}
		base := filepath.Base(name)
		if _, exists := files[base]; exists {
			return nil, fmt.Errorf("more than one file is named %s", base)
		}
		files[base] = string(b)
	}
	return files, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
