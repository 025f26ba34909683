package console

import (
	"io"

	"github.com/chzyer/readline"

	"github.com/rouletteai/roulette-client/internal/errors"
)

// Prompt is shown before every input line.
const Prompt = "roulette> "

// Terminal is a LineReader backed by readline with history and completion.
type Terminal struct {
	rl *readline.Instance
}

// NewTerminal opens an interactive terminal. historyFile may be empty.
func NewTerminal(historyFile string) (*Terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	return &Terminal{rl: rl}, nil
}

// Readline implements LineReader. Ctrl-C on an empty line ends input like Ctrl-D.
func (t *Terminal) Readline() (string, error) {
	line, err := t.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		if line == "" {
			return "", io.EOF
		}
		return "", nil
	}
	return line, err
}

// Stdout is the writer that cooperates with the prompt redraw.
func (t *Terminal) Stdout() io.Writer {
	return t.rl.Stdout()
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	return t.rl.Close()
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("spin"),
		readline.PcItem("select"),
		readline.PcItem("inspect"),
		readline.PcItem("close"),
		readline.PcItem("clear"),
		readline.PcItem("reset"),
		readline.PcItem("state"),
		readline.PcItem("live"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}
