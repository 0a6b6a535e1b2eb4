// ABOUTME: Interactive console for editing entries and reading the derived views
// ABOUTME: Reads commands with readline and dispatches them to the playground
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/harper/embedding-playground/internal/core"
	"github.com/harper/embedding-playground/internal/models"
)

var (
	consoleEphemeral bool
	consoleModel     string
)

const consoleHelp = `Commands:
  add text [text]            create a text entry (a0, a1, ...)
  add math [expression]      create a math entry (b0, b1, ...)
  text <name> [text]         set an entry's text; empty clears it
  instruction <name> [text]  set an entry's instruction
  expr <name> [expression]   set a math entry's expression, e.g. a0 - a1 + a2
  rm <name>                  delete an entry
  retry <name>               refetch a text entry now
  model [name]               show or select the embedding model
  models                     list selectable models
  ls                         list entries
  sim                        similarity matrix
  pca                        2D projection
  flush                      run pending work and wait for fetches
  help                       show this help
  quit                       leave the console
`

// errQuit ends the console loop
var errQuit = errors.New("quit")

// NewConsoleCmd creates the console command
func NewConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive embedding playground",
		Long: `Start an interactive console.

Edits are debounced and embedded in the background, just like typing in
a text box. Text entries are saved to Charm and restored next time
unless --ephemeral is given.

` + consoleHelp,
		Args: cobra.NoArgs,
		RunE: runConsole,
	}

	cmd.Flags().BoolVar(&consoleEphemeral, "ephemeral", false, "Keep entries in memory only")
	cmd.Flags().StringVar(&consoleModel, "model", "", "Embedding model to start with (overrides PLAYGROUND_MODEL)")

	return cmd
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	a, err := openApp(ctx, appOptions{
		ephemeral: consoleEphemeral,
		model:     consoleModel,
		notifier:  newNotifier(rl.Stderr()),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	c := &console{pg: a.playground, catalog: a.catalog, out: rl.Stdout()}
	if !quiet {
		fmt.Fprintln(c.out, `Embedding playground. Type "help" for commands.`)
		c.showModel()
	}

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF
			return nil
		}
		if err := c.exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

// console executes one command line at a time against a playground
type console struct {
	pg      *core.Playground
	catalog []models.ModelConfig
	out     io.Writer
}

func (c *console) exec(ctx context.Context, line string) error {
	parts := splitArgs(line, 2)
	if len(parts) == 0 {
		return nil
	}
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}

	switch parts[0] {
	case "add":
		return c.add(ctx, rest)
	case "text", "instruction", "expr":
		return c.edit(ctx, parts[0], rest)
	case "rm":
		if rest == "" {
			return errors.New("usage: rm <name>")
		}
		if err := c.pg.Delete(ctx, rest); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Deleted %s\n", rest)
	case "retry":
		if rest == "" {
			return errors.New("usage: retry <name>")
		}
		return c.pg.Retry(rest)
	case "model":
		if rest == "" {
			c.showModel()
			return nil
		}
		m, ok := models.FindModel(c.catalog, rest)
		if !ok {
			return fmt.Errorf("unknown model %q (see \"models\")", rest)
		}
		c.pg.SetModel(m)
		c.showModel()
	case "models":
		printModels(c.out, c.catalog, c.pg.Model().Name)
	case "ls":
		printEntries(c.out, c.pg.TextEmbeddings(), c.pg.MathEmbeddings())
	case "sim":
		printSimilarity(c.out, c.pg.Similarity())
	case "pca":
		p, err := c.pg.Projection()
		printProjection(c.out, p, err)
	case "flush":
		return c.pg.Flush(ctx)
	case "help", "?":
		fmt.Fprint(c.out, consoleHelp)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", parts[0])
	}
	return nil
}

func (c *console) add(ctx context.Context, rest string) error {
	parts := splitArgs(rest, 2)
	if len(parts) == 0 {
		return errors.New("usage: add text|math [value]")
	}
	value := ""
	if len(parts) == 2 {
		value = parts[1]
	}

	var name string
	switch parts[0] {
	case "text":
		name = c.pg.AddText(ctx)
		if value != "" {
			if err := c.pg.EditText(ctx, name, value); err != nil {
				return err
			}
		}
	case "math":
		name = c.pg.AddMath()
		if value != "" {
			if err := c.pg.EditExpression(name, value); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("can only add text or math, not %q", parts[0])
	}
	fmt.Fprintf(c.out, "Added %s\n", name)
	return nil
}

func (c *console) edit(ctx context.Context, field, rest string) error {
	parts := splitArgs(rest, 2)
	if len(parts) == 0 {
		return fmt.Errorf("usage: %s <name> [value]", field)
	}
	name, value := parts[0], ""
	if len(parts) == 2 {
		value = parts[1]
	}

	switch field {
	case "text":
		return c.pg.EditText(ctx, name, value)
	case "instruction":
		return c.pg.EditInstruction(ctx, name, value)
	}
	return c.pg.EditExpression(name, value)
}

func (c *console) showModel() {
	m := c.pg.Model()
	if m.IsZero() {
		fmt.Fprintln(c.out, `No model selected. Use "model <name>"; "models" lists them.`)
		return
	}
	fmt.Fprintf(c.out, "Model: %s (%s)\n", m.Label, m.Name)
}
