// Package term обеспечивает интерактивный диалог с оператором в терминале.
package term

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// Terminal читает ответы оператора из stdin и пишет подсказки в stdout.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	stdinfd int
}

// NewTerminal создает новый экземпляр Terminal.
func NewTerminal() *Terminal {
	return NewTerminalWithIO(os.Stdin, os.Stdout, int(os.Stdin.Fd()))
}

// NewTerminalWithIO создает Terminal поверх произвольных потоков.
func NewTerminalWithIO(in io.Reader, out io.Writer, fd int) *Terminal {
	return &Terminal{
		in:      bufio.NewReader(in),
		out:     out,
		stdinfd: fd,
	}
}

// Interactive сообщает, подключен ли stdin к терминалу.
func (t *Terminal) Interactive() bool {
	return term.IsTerminal(t.stdinfd)
}

// Ask выводит вопрос и возвращает ответ без пробелов по краям.
// Пустой ответ заменяется значением def.
func (t *Terminal) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", question)
	}
	answer, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || answer == "") {
		return "", xerrors.Errorf("failed to read answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// WaitForEnter выводит подсказку и блокируется до нажатия Enter.
func (t *Terminal) WaitForEnter(prompt string) error {
	if !t.Interactive() {
		return xerrors.New("stdin is not a terminal, interactive login is impossible")
	}
	fmt.Fprintln(t.out, prompt)
	if _, err := t.in.ReadString('\n'); err != nil {
		return xerrors.Errorf("failed to wait for confirmation: %w", err)
	}
	return nil
}
