package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"voicecmd/engine"
	"voicecmd/model"
	"voicecmd/reconcile"
	"voicecmd/store"
	"voicecmd/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	phraseStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func printCommand(c model.Command) {
	fmt.Printf("%s %s %s %s\n",
		dimStyle.Render(c.ID),
		phraseStyle.Render(c.Phrase),
		dimStyle.Render("["+string(c.Type)+"]"),
		c.Action)
	if c.Description != "" {
		fmt.Println("    " + dimStyle.Render(c.Description))
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal belongs to the UI while it runs
	dir := filepath.Dir(cfg.Database)
	if err := os.MkdirAll(dir, 0o755); err == nil {
		logFile, err := os.OpenFile(filepath.Join(dir, "voicecmd.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err == nil {
			defer logFile.Close()
			logger.SetOutput(logFile)
		}
	}

	e, err := engine.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()
	e.Start(ctx)

	app := ui.NewApp(e)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	e.OnReconcile(func(r reconcile.Result) { p.Send(ui.ReconciledMsg(r)) })

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		typeFilter, _ := cmd.Flags().GetString("type")
		commands := e.Commands()
		if len(commands) == 0 {
			logger.Info("No commands found")
			return nil
		}
		for _, c := range commands {
			if typeFilter != "" && string(c.Type) != typeFilter {
				continue
			}
			printCommand(c)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <phrase> <type> <action>",
	Short: "Add a command",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := model.ParseType(args[1])
		if err != nil {
			return err
		}
		desc, _ := cmd.Flags().GetString("description")

		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		c, err := e.Store.Add(model.CommandInput{Phrase: args[0], Type: typ, Action: args[2], Description: desc})
		if err != nil {
			return err
		}
		logger.Info("Added command", "id", c.ID, "phrase", phraseStyle.Render(c.Phrase))
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		current, ok := e.Store.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: command %s", store.ErrNotFound, args[0])
		}

		in := current.Input()
		flags := cmd.Flags()
		if flags.Changed("phrase") {
			in.Phrase, _ = flags.GetString("phrase")
		}
		if flags.Changed("type") {
			raw, _ := flags.GetString("type")
			if in.Type, err = model.ParseType(raw); err != nil {
				return err
			}
		}
		if flags.Changed("action") {
			in.Action, _ = flags.GetString("action")
		}
		if flags.Changed("description") {
			in.Description, _ = flags.GetString("description")
		}

		c, err := e.Store.Update(current.ID, in)
		if err != nil {
			return err
		}
		logger.Info("Updated command", "id", c.ID)
		printCommand(c)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Store.Remove(args[0]); err != nil {
			return err
		}
		logger.Info("Removed command", "id", args[0])
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <text...>",
	Short: "Show which command a phrase resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		text := strings.Join(args, " ")
		run, _ := cmd.Flags().GetBool("run")
		if run {
			r, err := e.Handle(text)
			if r.Command.ID != "" {
				printCommand(r.Command)
			}
			return err
		}

		r, ok := e.Matcher.Match(text)
		if !ok {
			return fmt.Errorf("%w for %q", engine.ErrNoMatch, text)
		}
		printCommand(r.Command)
		fmt.Println("    " + dimStyle.Render(fmt.Sprintf("%s match, score %.2f", r.Strategy, r.Score)))
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Reconcile app commands with the apps folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Reconcile()
		if err != nil {
			return err
		}
		logger.Info("Scan complete", "added", res.Added, "updated", res.Updated, "unchanged", res.Unchanged, "skipped", res.Skipped)
		return nil
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Read utterances from stdin, one per line, and run matching commands",
	Long: "listen stands in for a transcription engine: every line read from stdin is\n" +
		"matched and dispatched. The apps folder is reconciled and watched meanwhile.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := signalContext()
		defer cancel()
		e.Dispatcher.System["quit"] = func() error {
			cancel()
			return nil
		}
		e.Start(ctx)

		utterances := make(chan string)
		go func() {
			defer close(utterances)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				select {
				case utterances <- scanner.Text():
				case <-ctx.Done():
					return
				}
			}
		}()

		err = e.Serve(ctx, utterances)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Add the built-in default commands that are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		added, err := e.Store.SeedDefaults()
		if err != nil {
			return err
		}
		logger.Info("Default commands", "added", added)
		return nil
	},
}

// --- Phonetic mapping commands ---

var phoneticCmd = &cobra.Command{
	Use:   "phonetic",
	Short: "Manage phonetic spelling hints for transcription",
}

var phoneticSetCmd = &cobra.Command{
	Use:   "set <word> <phonetic>",
	Short: "Add or replace a phonetic hint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Store.SetPhonetic(args[0], args[1]); err != nil {
			return err
		}
		logger.Info("Saved phonetic hint", "word", args[0])
		return nil
	},
}

var phoneticListCmd = &cobra.Command{
	Use:   "list",
	Short: "List phonetic hints",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		mappings, err := e.Store.Phonetics()
		if err != nil {
			return err
		}
		for _, m := range mappings {
			fmt.Println(phraseStyle.Render(m.Word) + " " + dimStyle.Render("→ "+m.Phonetic))
		}
		return nil
	},
}

var phoneticRemoveCmd = &cobra.Command{
	Use:   "remove <word>",
	Short: "Remove a phonetic hint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Store.RemovePhonetic(args[0]); err != nil {
			return err
		}
		logger.Info("Removed phonetic hint", "word", args[0])
		return nil
	},
}

func init() {
	listCmd.Flags().String("type", "", "only list commands of this type")
	addCmd.Flags().String("description", "", "command description")
	editCmd.Flags().String("phrase", "", "new phrase")
	editCmd.Flags().String("type", "", "new type")
	editCmd.Flags().String("action", "", "new action")
	editCmd.Flags().String("description", "", "new description")
	matchCmd.Flags().Bool("run", false, "dispatch the matched command")

	phoneticCmd.AddCommand(phoneticSetCmd)
	phoneticCmd.AddCommand(phoneticListCmd)
	phoneticCmd.AddCommand(phoneticRemoveCmd)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(defaultsCmd)
	rootCmd.AddCommand(phoneticCmd)
}
