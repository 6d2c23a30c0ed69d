package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	l, err := NewLoggerWithLevel(zapcore.WarnLevel)
	suite.Require().NoError(err)
	suite.False(l.Core().Enabled(zapcore.InfoLevel))
	suite.True(l.Core().Enabled(zapcore.ErrorLevel))
}

func (suite *LoggerTestSuite) TestWorkerChild() {
	l := NewNopLogger()
	child := l.Worker(3)
	suite.NotNil(child)
	suite.NotSame(l.Logger, child.Logger)
}

func (suite *LoggerTestSuite) TestSyncNilLogger() {
	l := &Logger{}
	suite.NoError(l.Sync())
}
