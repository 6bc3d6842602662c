package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"

	"constellar/internal/generator/models"
	"constellar/internal/generator/tools"
)

func NewToolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "List or run diagram tools",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List registered tools",
				Action: func(ctx context.Context, command *cli.Command) error {
					factory, err := newFactory(command)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(command.Root().Writer, 0, 0, 2, ' ', 0)
					for _, t := range tools.NewRegistry(factory).Tools() {
						fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
					}
					return w.Flush()
				},
			},
			{
				Name:      "run",
				Usage:     "Run a tool and print the scene",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "args",
						Usage: "Tool arguments as a JSON object",
						Value: "{}",
					},
					outputFlag,
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					name := command.Args().First()
					if name == "" {
						return fmt.Errorf("tool name is required")
					}

					var args tools.Args
					if err := json.Unmarshal([]byte(command.String("args")), &args); err != nil {
						return fmt.Errorf("decode --args: %w", err)
					}

					factory, err := newFactory(command)
					if err != nil {
						return err
					}
					elements, err := tools.NewRegistry(factory).Run(name, args)
					if err != nil {
						return err
					}
					return writeJSON(command, models.NewScene(elements...))
				},
			},
		},
	}
}
