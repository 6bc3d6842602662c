package main

import (
	"context"
	"encoding/json"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"constellar/internal/generator/models"
	"constellar/internal/generator/render"
)

func NewRenderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Aliases:   []string{"r"},
		Usage:     "Render a scene to SVG or PNG",
		ArgsUsage: "[SCENE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (svg, png)",
				Value:   "svg",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "PNG width in pixels",
				Value: 1200,
			},
			&cli.StringFlag{
				Name:    "rasterizer",
				Usage:   "PNG backend (native, chrome)",
				Value:   "native",
				Sources: cli.EnvVars("RASTERIZER"),
			},
			outputFlag,
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			input, err := readInput(command)
			if err != nil {
				return fmt.Errorf("read scene: %w", err)
			}
			scene := models.NewScene()
			if err := json.Unmarshal(input, scene); err != nil {
				return fmt.Errorf("decode scene: %w", err)
			}

			renderer := render.NewRenderer()
			switch command.String("format") {
			case "svg":
				svg, err := renderer.SVG(scene)
				if err != nil {
					return err
				}
				return writeOutput(command, []byte(svg))
			case "png":
				raster, err := rasterizer(command, renderer)
				if err != nil {
					return err
				}
				data, err := raster.PNG(ctx, scene)
				if err != nil {
					return err
				}
				return writeOutput(command, data)
			default:
				return fmt.Errorf("unknown format %q", command.String("format"))
			}
		},
	}
}

func rasterizer(command *cli.Command, renderer *render.Renderer) (render.Rasterizer, error) {
	switch command.String("rasterizer") {
	case "chrome":
		logger, err := newLogger(command)
		if err != nil {
			return nil, err
		}
		return render.NewChrome(renderer, 0, logger), nil
	case "native", "":
		return render.NewRaster(renderer, command.Int("width"))
	default:
		return nil, fmt.Errorf("unknown rasterizer %q", command.String("rasterizer"))
	}
}
