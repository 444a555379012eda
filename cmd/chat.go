package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wypadek/karta-cli/internal/model"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the claim interview in the terminal",
	Long:  "Starts an interactive conversation that collects accident data turn by turn, then adjudicates and submits on request.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		conv, err := env.Service.Start(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Rozpoczęto zgłoszenie %s.\n", conv.ID)
		fmt.Println("Opisz wypadek. Komendy: /status, /adjudicate, /submit, /quit.")

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			switch line {
			case "/quit":
				return nil

			case "/status":
				current, err := env.Service.Get(ctx, conv.ID)
				if err != nil {
					fmt.Println("błąd:", err)
					continue
				}
				printStatus(current.State)

			case "/adjudicate":
				state, err := env.Service.Adjudicate(ctx, conv.ID)
				if err != nil {
					fmt.Println("błąd:", err)
					continue
				}
				printDecision(state.Decision)

			case "/submit":
				caseID, err := env.Service.Submit(ctx, conv.ID)
				if err != nil {
					fmt.Println("błąd:", err)
					continue
				}
				fmt.Printf("Sprawa zapisana: %s\n", caseID)
				return nil

			default:
				state, err := env.Service.Turn(ctx, conv.ID, line)
				if err != nil {
					fmt.Println("błąd:", err)
					continue
				}
				if n := len(state.History); n > 0 {
					fmt.Println(state.History[n-1].Content)
				}
				if state.Phase == model.PhaseReady {
					fmt.Println("(wszystkie wymagane dane zebrane — /adjudicate aby ocenić)")
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func printStatus(state *model.ConversationState) {
	fmt.Printf("Faza: %s, brakujące pola: %d\n", state.Phase, len(state.Missing))
	for _, m := range state.Missing {
		fmt.Printf("  - %s: %s\n", m.Field, m.Reason)
	}
}

func printDecision(dec *model.AccidentDecision) {
	if dec == nil {
		return
	}
	fmt.Printf("Werdykt: %s (pewność %.2f)\n", dec.Verdict, dec.Confidence)
	for _, f := range dec.Flaws {
		fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Category, f.Description)
	}
	for _, q := range dec.FollowUpQuestions {
		fmt.Printf("  ? %s\n", q)
	}
}
