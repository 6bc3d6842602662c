package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"constellar/internal/common/logging"
	"constellar/internal/generator/excalidraw"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  "constellar",
		Usage:                 "Generate and render Excalidraw diagrams",
		EnableShellCompletion: true,
		Reader:                in,
		Writer:                out,
		Commands: []*cli.Command{
			NewActionsCommand(),
			NewFlowchartCommand(),
			NewRenderCommand(),
			NewToolsCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "theme",
				Usage:   "Path to a YAML theme file",
				Sources: cli.EnvVars("THEME_PATH"),
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Seed for element ids and roughness seeds (0 picks a random one)",
			},
		},
	}
}

// ============================================================
// Shared helpers
// ============================================================

func newLogger(command *cli.Command) (*zap.Logger, error) {
	return logging.New(command.String("log-level"), "development")
}

func newFactory(command *cli.Command) (*excalidraw.Factory, error) {
	theme, err := excalidraw.LoadTheme(command.String("theme"))
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}

	var opts []excalidraw.Option
	if seed := uint64(command.Int("seed")); seed != 0 {
		opts = append(opts, excalidraw.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	return excalidraw.NewFactory(theme, opts...), nil
}

// readInput читает файл из первого аргумента; "-" или пустой аргумент означает stdin.
func readInput(command *cli.Command) ([]byte, error) {
	path := command.Args().First()
	if path == "" || path == "-" {
		return io.ReadAll(command.Root().Reader)
	}
	return os.ReadFile(path)
}

// writeOutput пишет в --output или в stdout команды.
func writeOutput(command *cli.Command, data []byte) error {
	if path := command.String("output"); path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err := command.Root().Writer.Write(data)
	return err
}

var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "Write the result to a file instead of stdout",
}
