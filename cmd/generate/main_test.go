package main

import (
	"os"
	"path/filepath"
	"testing"

	engine "github.com/rxtech-lab/argo-tickbench/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-tickbench/internal/logger"
	"github.com/rxtech-lab/argo-tickbench/internal/runtime/expr"
	"github.com/stretchr/testify/suite"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *GenerateCmdTestSuite) TestGenerate() {
	dir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(generate(dir))

	suite.True(dirExists(dir), "Config directory should exist")
	suite.True(fileExists(filepath.Join(dir, schemaName)), "Schema file should exist")

	strategy, err := os.ReadFile(filepath.Join(dir, strategySchema))
	suite.Require().NoError(err)
	suite.Contains(string(strategy), "engine_version")

	sample, err := os.ReadFile(filepath.Join(dir, sampleConfigName))
	suite.Require().NoError(err)
	suite.Contains(string(sample), getSchemaReference(schemaName))
}

func (suite *GenerateCmdTestSuite) TestGeneratedFilesLoad() {
	dir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(generate(dir))

	config, err := os.ReadFile(filepath.Join(dir, sampleConfigName))
	suite.Require().NoError(err)

	b := engine.NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.Initialize(string(config)))
	suite.Require().NoError(b.LoadStrategyFromFile(filepath.Join(dir, strategyName)))

	source, err := expr.LoadSource(filepath.Join(dir, strategyName))
	suite.Require().NoError(err)
	suite.Equal(sampleStrategy.Name, source.Name)
	suite.Equal(sampleStrategy.Buy, source.Buy)
}

func (suite *GenerateCmdTestSuite) TestSampleFilesNotOverwritten() {
	dir := filepath.Join(suite.tempDir, "config")
	suite.Require().NoError(generate(dir))

	strategyPath := filepath.Join(dir, strategyName)
	suite.Require().NoError(os.WriteFile(strategyPath, []byte("name: mine\n"), 0644))

	originalConfig, err := os.ReadFile(filepath.Join(dir, sampleConfigName))
	suite.Require().NoError(err)

	suite.Require().NoError(generate(dir))

	newConfig, err := os.ReadFile(filepath.Join(dir, sampleConfigName))
	suite.Require().NoError(err)
	suite.Equal(string(originalConfig), string(newConfig), "Sample config should not be overwritten")

	strategy, err := os.ReadFile(strategyPath)
	suite.Require().NoError(err)
	suite.Equal("name: mine\n", string(strategy))
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFile() {
	schemaPath := filepath.Join(suite.tempDir, "test-schema", "schema.json")

	suite.Require().NoError(generateSchemaFile(engine.EmptyConfig(), schemaPath))

	content, err := os.ReadFile(schemaPath)
	suite.Require().NoError(err)
	suite.Contains(string(content), "backtest-engine-v1-config")
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileInvalidPath() {
	blocker := filepath.Join(suite.tempDir, "file")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0644))

	err := generateSchemaFile(engine.EmptyConfig(), filepath.Join(blocker, "schema.json"))
	suite.Error(err)
	suite.Contains(err.Error(), "failed to")
}

func (suite *GenerateCmdTestSuite) TestValidatePaths() {
	suite.NoError(validatePaths("/some/path/schema.json", "/some/path/config.yaml"))

	err := validatePaths("", "/some/path/config.yaml")
	suite.ErrorContains(err, "schema path cannot be empty")

	err = validatePaths("/some/path/schema.json", "")
	suite.ErrorContains(err, "sample config path cannot be empty")

	err = validatePaths("", "")
	suite.ErrorContains(err, "schema path cannot be empty")
	suite.ErrorContains(err, "sample config path cannot be empty")
}

func (suite *GenerateCmdTestSuite) TestValidateSchemaName() {
	suite.NoError(validateSchemaName("schema.json"))
	suite.NoError(validateSchemaName("my-schema-file.json"))
	suite.ErrorContains(validateSchemaName(""), "schema name cannot be empty")
	suite.ErrorContains(validateSchemaName("schema.txt"), "must have .json extension")
	suite.Error(validateSchemaName("schema"))
}

func (suite *GenerateCmdTestSuite) TestGetSchemaReference() {
	suite.Equal("# yaml-language-server: $schema=test-schema.json\n", getSchemaReference("test-schema.json"))
	suite.Equal("# yaml-language-server: $schema=\n", getSchemaReference(""))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}
