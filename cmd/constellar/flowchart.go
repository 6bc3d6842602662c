package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
)

func NewFlowchartCommand() *cli.Command {
	return &cli.Command{
		Name:    "flowchart",
		Aliases: []string{"f"},
		Usage:   "Generate a vertical flowchart scene",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Usage:    "Title of the decision diamond",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "step",
				Aliases:  []string{"s"},
				Usage:    "Step label, repeat for each step",
				Required: true,
			},
			&cli.FloatFlag{Name: "x", Value: excalidraw.DefaultOrigin, Usage: "Left edge of the diagram"},
			&cli.FloatFlag{Name: "y", Value: excalidraw.DefaultOrigin, Usage: "Top edge of the diagram"},
			&cli.FloatFlag{Name: "box-width", Usage: "Node width"},
			&cli.FloatFlag{Name: "box-height", Usage: "Node height"},
			&cli.FloatFlag{Name: "spacing", Usage: "Vertical gap between nodes"},
			outputFlag,
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			factory, err := newFactory(command)
			if err != nil {
				return err
			}

			steps := command.StringSlice("step")
			if len(steps) == 0 {
				return fmt.Errorf("at least one --step is required")
			}

			diagram := factory.Flowchart(command.String("title"), steps,
				command.Float("x"), command.Float("y"),
				excalidraw.FlowchartOptions{
					BoxWidth:        command.Float("box-width"),
					BoxHeight:       command.Float("box-height"),
					VerticalSpacing: command.Float("spacing"),
				})

			return writeJSON(command, models.NewScene(diagram.Elements()...))
		},
	}
}
