package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/history"
	"github.com/detax-ai/detax/internal/log"
)

const (
	// answerTimeout matches how long the model may take to generate.
	answerTimeout = 120 * time.Second
	wrapWidth     = 80
	ruleWidth     = 60
)

var askModule string

var askCmd = &cobra.Command{
	Use:   "ask [pytanie]",
	Short: "Zadaj pytanie",
	Long:  "Wysyła pytanie do asystenta. Bez argumentu czyta pytanie ze standardowego wejścia.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, args, askModule)
	},
}

func init() {
	askCmd.Flags().StringVarP(&askModule, "module", "m", domain.GeneralChannel,
		"moduł (default, ksef, b2b, zus, vat)")
	rootCmd.AddCommand(askCmd)

	for _, ch := range domain.Channels() {
		if ch.ID == domain.GeneralChannel {
			continue
		}
		rootCmd.AddCommand(moduleCommand(ch))
	}
}

// moduleCommand is the "detax ksef ..." shortcut for ask --module ksef.
func moduleCommand(ch domain.ChannelInfo) *cobra.Command {
	id := ch.ID
	return &cobra.Command{
		Use:   id + " [pytanie]",
		Short: "Pytania o " + ch.Name,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, id)
		},
	}
}

func unknownModuleError(module string) error {
	return fmt.Errorf("nieznany moduł %q (uruchom \"detax modules\")", module)
}

func runAsk(cmd *cobra.Command, args []string, module string) error {
	if cfgErr != nil {
		return cfgErr
	}
	setupCLILogging(cmd)

	question := ""
	if len(args) > 0 {
		question = args[0]
	}
	if strings.TrimSpace(question) == "" {
		q, err := promptQuestion(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		question = q
	}

	rt, err := newRuntime(cfg, runtimeOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	var rec recorder
	if rt.history != nil {
		rec = rt.history
	}
	return ask(cmd.Context(), cmd.OutOrStdout(), rt.client, rec, question, module)
}

// recorder is the slice of the history store ask needs.
type recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

func promptQuestion(in io.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Pytanie: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading question: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("pytanie nie może być puste")
	}
	return line, nil
}

// ask sends one question and prints the answer. A failed exchange is
// reported on out and returned; nothing is recorded for it.
func ask(ctx context.Context, out io.Writer, client *api.Client, rec recorder, question, module string) error {
	info, ok := domain.LookupChannel(module)
	if !ok {
		return unknownModuleError(module)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	rule := strings.Repeat("─", ruleWidth)
	_, _ = fmt.Fprintf(out, "\n🤖 Detax AI (%s)\n\n", info.ID)
	_, _ = fmt.Fprintf(out, "❓ %s\n\n", question)
	_, _ = fmt.Fprintln(out, rule)
	_, _ = fmt.Fprint(out, "Odpowiedź:\n\n")

	resp, err := client.Chat(ctx, question, info.ID)
	if err != nil {
		log.ErrorErr(log.CatChat, "Question failed", err, "module", info.ID)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			_, _ = fmt.Fprintln(out, "⏱️ Przekroczono czas oczekiwania. AI generuje odpowiedź...")
		default:
			var se *api.StatusError
			if errors.As(err, &se) {
				detail := se.Detail
				if detail == "" {
					detail = fmt.Sprintf("HTTP %d", se.StatusCode)
				}
				_, _ = fmt.Fprintf(out, "❌ Błąd: %s\n", detail)
			} else {
				_, _ = fmt.Fprintf(out, "❌ Błąd połączenia: %v\n", err)
			}
		}
		_, _ = fmt.Fprintf(out, "\n%s\n", rule)
		return fmt.Errorf("asking %s: %w", info.ID, err)
	}

	_, _ = fmt.Fprintln(out, wordwrap.String(resp.Response, wrapWidth))
	if len(resp.Sources) > 0 {
		_, _ = fmt.Fprintln(out, "\n📚 Źródła:")
		for _, s := range resp.Sources {
			src := "Brak źródła"
			if s.Source != nil && *s.Source != "" {
				src = *s.Source
			}
			_, _ = fmt.Fprintf(out, "   • %s (%s, %.0f%%)\n", s.Title, src, s.Similarity*100)
		}
	}
	_, _ = fmt.Fprintf(out, "\n%s\n", rule)

	if rec != nil {
		if err := rec.Record(ctx, history.Entry{Module: info.ID, Question: question, Answer: resp.Response}); err != nil {
			log.ErrorErr(log.CatHistory, "Failed to record exchange", err)
		}
	}
	return nil
}
