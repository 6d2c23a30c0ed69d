package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime/expr"
	"github.com/rxtech-lab/argo-tickbench/pkg/utils"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"
)

const (
	schemaName       = "backtest-engine-v1-config.json"
	sampleConfigName = "backtest-engine-v1-config.yaml"
	strategyName     = "strategy.yaml"
	strategySchema   = "strategy-schema.json"
)

// sampleStrategy buys a breakout above the highest price of the variant
// look-back and sells on a small gain.
var sampleStrategy = expr.Source{
	Name:          "breakout",
	Buy:           "can_buy && price > highest('price', vars[0], 1)",
	Sell:          "can_sell && (profit_pct >= 1 || hold_seconds > 600)",
	Short:         "",
	Cover:         "",
	EngineVersion: "",
	Variables:     0,
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	var errs []error

	if schemaPath == "" {
		errs = append(errs, errors.New("schema path cannot be empty"))
	}

	if sampleConfigPath == "" {
		errs = append(errs, errors.New("sample config path cannot be empty"))
	}

	return errors.Join(errs...)
}

func validateSchemaName(name string) error {
	if name == "" {
		return errors.New("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

func getSchemaReference(name string) string {
	return "# yaml-language-server: $schema=" + name + "\n"
}

func generateSchemaFile(config engine.BacktestEngineV1Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// writeOnce writes data to path unless the file already exists.
func writeOnce(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return true, nil
}

func generateSampleConfig(config engine.BacktestEngineV1Config, samplePath, schema string) error {
	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	written, err := writeOnce(samplePath, append([]byte(getSchemaReference(schema)), yamlBytes...))
	if err != nil {
		return err
	}

	if written {
		log.Printf("Sample config successfully generated at %s", samplePath)
	}

	return nil
}

func generateStrategySchema(path string) error {
	schema, err := utils.GetSchemaFromConfig(expr.Source{}) //nolint:exhaustruct // type information only
	if err != nil {
		return fmt.Errorf("failed to generate strategy schema: %w", err)
	}

	if err := os.WriteFile(path, []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write strategy schema to file: %w", err)
	}

	return nil
}

func generateSampleStrategy(path string) error {
	yamlBytes, err := yaml.Marshal(sampleStrategy)
	if err != nil {
		return fmt.Errorf("failed to marshal sample strategy to yaml: %w", err)
	}

	written, err := writeOnce(path, append([]byte(getSchemaReference(strategySchema)), yamlBytes...))
	if err != nil {
		return err
	}

	if written {
		log.Printf("Sample strategy successfully generated at %s", path)
	}

	return nil
}

// generate writes the config and strategy schemas and, when missing, a sample
// config and strategy into dir.
func generate(dir string) error {
	schemaPath := filepath.Join(dir, schemaName)
	sampleConfigPath := filepath.Join(dir, sampleConfigName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		return err
	}

	if err := validateSchemaName(schemaName); err != nil {
		return err
	}

	config := engine.EmptyConfig()
	config.Allocation = 1000000
	config.Variants.Values = []float64{30}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		return err
	}

	if err := generateSampleConfig(config, sampleConfigPath, schemaName); err != nil {
		return err
	}

	if err := generateStrategySchema(filepath.Join(dir, strategySchema)); err != nil {
		return err
	}

	if err := generateSampleStrategy(filepath.Join(dir, strategyName)); err != nil {
		return err
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Write the config and strategy schemas with a sample config and strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output `DIR`",
				Value:   "./config",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return generate(cmd.String("out"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
