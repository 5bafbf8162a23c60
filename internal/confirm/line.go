package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LinePrompter asks on a plain writer and reads one line per answer. It is
// used when stdin is not a terminal. End of input cancels.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter reads answers from in and writes questions to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// PromptText implements Prompter. Only the line terminator is stripped.
func (p *LinePrompter) PromptText(ctx context.Context, message, expected string) (string, bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s\n[%s]> ", message, expected); err != nil {
		return "", false, err
	}
	return p.readLine(ctx)
}

// PromptChoice implements Prompter. The answer may be an option or its
// 1-based index.
func (p *LinePrompter) PromptChoice(ctx context.Context, message string, options []string) (string, bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s (%s)> ", message, strings.Join(options, "/")); err != nil {
		return "", false, err
	}
	line, ok, err := p.readLine(ctx)
	if err != nil || !ok {
		return "", ok, err
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true, nil
	}
	for _, o := range options {
		if strings.EqualFold(line, o) {
			return o, true, nil
		}
	}
	return line, true, nil
}

func (p *LinePrompter) readLine(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", false, nil
		}
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true, nil
}
