package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/username/dolarhistorico/src/security/validation"
)

// cancelWord aborts a console prompt, as does end of input.
const cancelWord = "cancelar"

// Console talks to a terminal through line-oriented reads and writes.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) Alert(ctx context.Context, title, message string, buttons ButtonSet) (Button, error) {
	fmt.Fprintf(c.out, "\n== %s ==\n%s\n", title, message)
	if buttons == OK {
		return ButtonOK, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return ButtonNo, err
		}
		fmt.Fprint(c.out, "[s/n]: ")
		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			return ButtonNo, nil
		}
		if err != nil {
			return ButtonNo, err
		}
		switch strings.ToLower(line) {
		case "s", "si", "sí", "y", "yes":
			return ButtonYes, nil
		case "n", "no":
			return ButtonNo, nil
		}
	}
}

func (c *Console) Prompt(ctx context.Context, title, message string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	fmt.Fprintf(c.out, "\n== %s ==\n%s ('%s' para salir): ", title, message, cancelWord)
	line, err := c.readLine()
	if errors.Is(err, io.EOF) && line == "" {
		return "", false, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	if strings.EqualFold(line, cancelWord) {
		return "", false, nil
	}
	return line, true, nil
}

// ShowPanel prints the panel as plain text: one line per table row, cells separated by " | ".
func (c *Console) ShowPanel(ctx context.Context, title, markup string) error {
	text := strings.NewReplacer("</tr>", "\n", "</th>", " | ", "</td>", " | ", "<br>", "\n", "</p>", "\n").Replace(markup)
	text = html.UnescapeString(validation.SanitizeText(text))
	fmt.Fprintf(c.out, "\n== %s ==\n", title)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(strings.TrimSpace(line), "|")
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintln(c.out, line)
		}
	}
	return nil
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	return strings.TrimSpace(line), err
}
