package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/regbot/internal/adapters/driving/tui"
	"github.com/custodia-labs/regbot/internal/core/domain"
)

// historyCommand prints the conversation so far in the line loop.
const historyCommand = "historico"

var chatPlain bool

// isTerminal reports whether fd is an interactive terminal.
var isTerminal = func(fd int) bool {
	return term.IsTerminal(fd)
}

// runTUI starts the full-screen chat.
var runTUI = func(ctx context.Context, ports *tui.Ports) error {
	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(ctx).Run()
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Starts an interactive conversation about the regulation.

On a terminal this opens a full-screen chat; otherwise, or with --plain,
questions are read one per line from standard input.

Type 'sair', 'exit' or 'quit' to finish. In the line loop, 'historico'
prints the questions asked so far.

Controls (full-screen chat):
  enter   Ask the typed question
  tab     Show the session history
  ctrl+l  Clear cached answers
  ctrl+n  Start a new conversation
  f1      Help
  ctrl+c  Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "read questions line by line instead of the full-screen chat")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if _, err := ensureIndex(ctx, documentPath(nil)); err != nil {
		return err
	}
	startPromptWatcher(ctx)

	if !chatPlain && isTerminal(int(os.Stdin.Fd())) {
		return runTUI(ctx, tui.NewPorts(services.Ask, services.Index))
	}
	return runChatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// runChatLoop answers questions read line by line from in until an exit
// word, end of input or cancellation.
func runChatLoop(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Assistente do Regulamento Pedagógico da ESTG")
	fmt.Fprintln(out, "\nExemplos de perguntas:")
	for _, q := range domain.ExampleQuestions() {
		fmt.Fprintf(out, "  • %s\n", q)
	}
	fmt.Fprintf(out, "\nEscreva 'sair' para terminar ou '%s' para ver a conversa.\n", historyCommand)

	session := services.Ask.NewSession()
	scanner := bufio.NewScanner(in)

	for ctx.Err() == nil {
		fmt.Fprint(out, "\nPergunta: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case domain.IsExitWord(line):
			fmt.Fprintln(out, "Até à próxima!")
			return nil
		case strings.EqualFold(line, historyCommand):
			printHistory(out, session)
			continue
		}

		answer, updated, err := services.Ask.Ask(ctx, session, line)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				fmt.Fprintf(out, "Aviso: a pergunta deve ter pelo menos %d caracteres.\n", domain.MinQuestionLength)
				continue
			}
			fmt.Fprintf(out, "Erro: %v\n", err)
			continue
		}
		session = updated
		printAnswer(out, answer)
	}

	return scanner.Err()
}

func printHistory(w io.Writer, session domain.Session) {
	if session.Len() == 0 {
		fmt.Fprintln(w, "Ainda não foram feitas perguntas.")
		return
	}
	fmt.Fprintf(w, "Histórico (%d):\n", session.Len())
	for i, turn := range session.History {
		fmt.Fprintf(w, "  %d. %s\n", i+1, turn.Question)
		fmt.Fprintf(w, "     %s\n", firstLine(turn.Answer.Text))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "..."
	}
	return s
}
