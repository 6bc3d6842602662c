package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"constellar/internal/generator/adapter"
	"constellar/internal/generator/models"
	"constellar/internal/generator/parser"
)

func NewActionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "actions",
		Aliases:   []string{"a"},
		Usage:     "Apply AI actions to a scene",
		ArgsUsage: "[FILE]",
		Description: "FILE holds an actions array, an {\"actions\": [...]} object or raw AI reply text " +
			"with a json block. The merged scene is printed as Excalidraw JSON.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "scene",
				Usage: "Existing scene to merge into (empty scene when omitted)",
			},
			outputFlag,
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger, err := newLogger(command)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			factory, err := newFactory(command)
			if err != nil {
				return err
			}

			input, err := readInput(command)
			if err != nil {
				return fmt.Errorf("read actions: %w", err)
			}
			actions, err := decodeActions(input)
			if err != nil {
				return err
			}

			scene := models.NewScene()
			if path := command.String("scene"); path != "" {
				scene, err = readScene(path)
				if err != nil {
					return err
				}
			}

			created := adapter.New(factory, logger).Apply(actions, scene)
			logger.Info("actions applied", zap.Int("actions", len(actions)), zap.Int("elements", len(created)))

			return writeJSON(command, scene)
		},
	}
}

// decodeActions принимает массив, объект с actions или текст ответа ИИ.
func decodeActions(input []byte) ([]any, error) {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var actions []any
		if err := json.Unmarshal(trimmed, &actions); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
		return actions, nil
	}

	actions, err := parser.ExtractActions(string(input))
	if err != nil {
		return nil, fmt.Errorf("extract actions: %w", err)
	}
	if actions == nil {
		return nil, fmt.Errorf("no actions found in input")
	}
	return actions, nil
}

func readScene(path string) (*models.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	scene := models.NewScene()
	if err := json.Unmarshal(data, scene); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return scene, nil
}

func writeJSON(command *cli.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(command, append(data, '\n'))
}
