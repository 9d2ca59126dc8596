package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"triviaquiz"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		category   = flag.String("category", "", "Quiz category (prompted when empty)")
		format     = flag.String("format", "", "Question format: multiple or single (overrides QUESTION_FORMAT)")
		transcript = flag.String("transcript", "", "Directory for the LLM transcript (overrides TRANSCRIPT_DIR)")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && *verbose {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	cfg, err := triviaquiz.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Format = triviaquiz.QuestionFormat(*format)
	}
	if *transcript != "" {
		cfg.TranscriptDir = *transcript
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// keep the interactive screen clean unless debugging
	logCfg := cfg.LogConfig()
	logCfg.OutputPath = "stderr"
	if !*verbose {
		logCfg.Level = "error"
	}
	logger, err := triviaquiz.NewLogger(logCfg, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var llm triviaquiz.Completer = triviaquiz.NewOpenAIClient(cfg, logger.Named("openai"))
	if cfg.TranscriptDir != "" {
		llmLogger, err := triviaquiz.NewLLMLogger(cfg.TranscriptDir, uuid.NewString())
		if err != nil {
			logger.Error("Failed to create transcript, continuing without it", zap.Error(err))
		} else {
			defer llmLogger.Close()
			llm = triviaquiz.WithTranscript(llm, llmLogger)
			fmt.Printf("Transcript: %s\n", llmLogger.Path())
		}
	}

	game := triviaquiz.NewGame(llm, triviaquiz.GameOptionsFromConfig(cfg), logger)
	defer game.Close()

	var initial triviaquiz.Category
	if *category != "" {
		initial, err = triviaquiz.ParseCategory(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v: %s\n", err, *category)
			os.Exit(1)
		}
	}

	play(context.Background(), game, os.Stdin, os.Stdout, initial)
}

// play runs the interactive loop until the input ends or the player quits
func play(ctx context.Context, game *triviaquiz.Game, in io.Reader, out io.Writer, category triviaquiz.Category) triviaquiz.SessionState {
	scanner := bufio.NewScanner(in)
	state := triviaquiz.NewSessionState()

	fmt.Fprintln(out, "🎯 Trivia Quiz")
	fmt.Fprintln(out)

	for {
		if category == "" {
			c, ok := promptCategory(scanner, out)
			if !ok {
				return state
			}
			category = c
		}

		fmt.Fprintf(out, "⏳ Generating a %s question...\n\n", category)
		state = game.Generate(ctx, state, category)
		view := game.View(state)

		fmt.Fprintf(out, "Question %d:\n%s\n\n", view.TotalAsked, view.Question)
		if !view.Playable {
			fmt.Fprintln(out, "⚠️  No question this time.")
		} else {
			for _, option := range view.Options {
				fmt.Fprintf(out, "  %s\n", option)
			}
			if len(view.Options) > 0 {
				fmt.Fprintln(out)
			}

			var ok bool
			state, ok = promptAnswer(game, state, scanner, out)
			if !ok {
				return state
			}
			view = game.View(state)
			printFeedback(out, view)
		}

		fmt.Fprintf(out, "\n📊 Score: %d/%d\n\n", state.Score, state.TotalAsked)

		for {
			fmt.Fprint(out, "[n]ext, [m]ore info, [c]hange category, [q]uit: ")
			if !scanner.Scan() {
				return state
			}
			cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
			switch cmd {
			case "m", "more":
				next, err := game.MoreInfo(ctx, state)
				state = next
				if err != nil {
					fmt.Fprintf(out, "%v\n", err)
					continue
				}
				fmt.Fprintf(out, "\n💡 More info:\n%s\n\n", state.ExtraInfo)
				continue
			case "c", "category":
				category = ""
			case "q", "quit":
				fmt.Fprintf(out, "🎉 Final score: %d/%d\n", state.Score, state.TotalAsked)
				return state
			case "n", "next", "":
			default:
				fmt.Fprintln(out, "Unknown command")
				continue
			}
			break
		}
		fmt.Fprintln(out, strings.Repeat("─", 50))
	}
}

func promptCategory(scanner *bufio.Scanner, out io.Writer) (triviaquiz.Category, bool) {
	for {
		fmt.Fprintln(out, "Choose a category:")
		for i, c := range triviaquiz.Categories {
			fmt.Fprintf(out, "  %d) %s\n", i+1, c)
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return "", false
		}
		input := strings.TrimSpace(scanner.Text())
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(triviaquiz.Categories) {
			return triviaquiz.Categories[n-1], true
		}
		if c, err := triviaquiz.ParseCategory(input); err == nil {
			return c, true
		}
		fmt.Fprintln(out, "Please pick one of the listed categories")
	}
}

// promptAnswer reads answers until one is accepted. The question timer is
// checked when the answer arrives; a late answer counts as time over.
func promptAnswer(game *triviaquiz.Game, state triviaquiz.SessionState, scanner *bufio.Scanner, out io.Writer) (triviaquiz.SessionState, bool) {
	hint := "Your answer (A/B/C/D, or r to reveal)"
	if state.Question != nil && !state.Question.HasOptions() {
		hint = "Your answer (or r to reveal)"
	}

	for {
		if remaining := game.View(state).RemainingSeconds; remaining > 0 {
			fmt.Fprintf(out, "%s [%ds]: ", hint, remaining)
		} else {
			fmt.Fprintf(out, "%s: ", hint)
		}
		if !scanner.Scan() {
			return state, false
		}
		input := strings.TrimSpace(scanner.Text())

		var err error
		if strings.EqualFold(input, "r") {
			state, err = game.Reveal(state)
		} else {
			state, err = game.Select(state, input)
		}

		switch {
		case err == nil, errors.Is(err, triviaquiz.ErrAlreadyAnswered):
			return state, true
		case errors.Is(err, triviaquiz.ErrInvalidAnswer):
			fmt.Fprintln(out, "Please enter one of the options")
		default:
			fmt.Fprintf(out, "%v\n", err)
			return state, true
		}
	}
}

func printFeedback(out io.Writer, view triviaquiz.SessionView) {
	fmt.Fprintln(out)
	switch view.Outcome {
	case triviaquiz.OutcomeCorrect:
		fmt.Fprintf(out, "✅ %s\n", view.Feedback)
	case triviaquiz.OutcomeTimeOver:
		fmt.Fprintf(out, "⌛ %s\n", view.Feedback)
	case triviaquiz.OutcomeRevealed:
		fmt.Fprintf(out, "👀 %s\n", view.Feedback)
	default:
		fmt.Fprintf(out, "❌ %s\n", view.Feedback)
	}
}
