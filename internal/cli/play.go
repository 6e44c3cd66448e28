package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/connectz-backend/internal/connectz"
	"github.com/rocketscienceinc/connectz-backend/internal/engine"
)

var errBadInput = errors.New(`enter a move as "row col"`)

func Play() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: heredoc.Doc(`play starts a game on the terminal. Moves are entered
			as "row col", both zero based. "quit" ends the game.

			By default you hold X and the bot answers with O.`),
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := playConfig(cmd)
			if err != nil {
				return err
			}

			level, _ := cmd.Flags().GetString(flagLogLevel)
			if level == "" {
				level = "warn"
			}

			aiPlayer := engine.PlayerO
			if aiFirst, _ := cmd.Flags().GetBool("ai-first"); aiFirst {
				aiPlayer = engine.PlayerX
			}
			if noBot, _ := cmd.Flags().GetBool("no-bot"); noBot {
				aiPlayer = engine.Nobody
			}

			controller, err := connectz.NewGame(newLogger(cmd.ErrOrStderr(), level), config, aiPlayer)
			if err != nil {
				return err
			}

			return runPlay(cmd.Context(), controller, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("difficulty", "d", engine.MediumDifficulty, "Bot difficulty: easy, medium or hard")
	cmd.Flags().Int("depth", 0, "Search depth in plies, overrides --difficulty")
	cmd.Flags().Duration("time-budget", 0, "Time limit per bot move, 0 for none")
	cmd.Flags().Bool("parallel", false, "Search root moves in parallel")
	cmd.Flags().Bool("ai-first", false, "Let the bot play X and open the game")
	cmd.Flags().Bool("no-bot", false, "Play both sides yourself")

	return cmd
}

func playConfig(cmd *cobra.Command) (engine.Config, error) {
	difficulty, _ := cmd.Flags().GetString("difficulty")
	config := engine.DefaultConfig().WithDifficulty(difficulty)

	if cmd.Flags().Changed("depth") {
		config.MaxSearchDepth, _ = cmd.Flags().GetInt("depth")
	}

	config.SearchTimeBudget, _ = cmd.Flags().GetDuration("time-budget")
	config.Parallel, _ = cmd.Flags().GetBool("parallel")

	if err := config.Validate(); err != nil {
		return engine.Config{}, err
	}

	return config, nil
}

func runPlay(ctx context.Context, controller *connectz.GameController, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, controller.String())

	for !controller.Outcome().IsTerminal() {
		turn := controller.Turn()

		if turn == controller.AIPlayer() {
			move, _, err := controller.RequestAIMove(ctx)
			if err != nil {
				return fmt.Errorf("bot failed to move: %w", err)
			}

			fmt.Fprintf(out, "bot plays %d %d\n", move.Row, move.Col)
			fmt.Fprint(out, controller.String())
			continue
		}

		fmt.Fprintf(out, "%s> ", turn)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "quit" {
			fmt.Fprintln(out, "bye")
			return nil
		}

		move, err := parseMove(line, turn)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		if _, err = controller.SubmitMove(move); err != nil {
			if errors.Is(err, engine.ErrInvalidMove) {
				fmt.Fprintln(out, err)
				continue
			}
			return err
		}

		fmt.Fprint(out, controller.String())
	}

	if outcome := controller.Outcome(); outcome.Status == engine.Win {
		fmt.Fprintf(out, "%s wins\n", outcome.Winner)
	} else {
		fmt.Fprintln(out, "draw")
	}

	return nil
}

func parseMove(line string, player engine.Player) (engine.Move, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return engine.Move{}, errBadInput
	}

	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return engine.Move{}, errBadInput
	}

	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return engine.Move{}, errBadInput
	}

	return engine.NewMove(row, col, player), nil
}
