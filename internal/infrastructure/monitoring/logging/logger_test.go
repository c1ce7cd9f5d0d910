package logging

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/turtacn/molgraph/pkg/errors"
)

func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, zapcore.DebugLevel)
	return NewLoggerFromCore(core), buf
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelInfo, Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_RejectsEmptyOutputs(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestNewDevelopmentLogger_NotNil(t *testing.T) {
	assert.NotNil(t, NewDevelopmentLogger())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	l.Fatal("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
	assert.Equal(t, l, l.WithContext(context.Background()))
	assert.Equal(t, l, l.WithError(stderrors.New("err")))
	assert.NoError(t, l.Sync())
}

func TestZapLogger_Levels(t *testing.T) {
	cases := []struct {
		level string
		log   func(Logger, string)
	}{
		{"debug", func(l Logger, m string) { l.Debug(m) }},
		{"info", func(l Logger, m string) { l.Info(m) }},
		{"warn", func(l Logger, m string) { l.Warn(m) }},
		{"error", func(l Logger, m string) { l.Error(m) }},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l, buf := newTestLogger(t)
			tc.log(l, tc.level+" msg")
			assert.Contains(t, buf.String(), tc.level+" msg")
			assert.Contains(t, buf.String(), `"level":"`+tc.level+`"`)
		})
	}
}

func TestZapLogger_With_AddsFields(t *testing.T) {
	l, buf := newTestLogger(t)
	l.With(String(FieldModelID, "m-1"), Int("atoms", 12)).Named("service").Info("msg")
	assert.Contains(t, buf.String(), `"model_id":"m-1"`)
	assert.Contains(t, buf.String(), `"atoms":12`)
	assert.Contains(t, buf.String(), `"logger":"service"`)
}

func TestZapLogger_WithContext_ExtractsRequestID(t *testing.T) {
	l, buf := newTestLogger(t)
	ctx := WithRequestID(context.Background(), "req-123")
	l.WithContext(ctx).Info("msg")
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)

	buf.Reset()
	l.WithContext(context.Background()).Info("msg")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestZapLogger_WithError(t *testing.T) {
	l, buf := newTestLogger(t)
	l.WithError(errors.BrokenStrand("residues span chains")).Error("msg")
	assert.Contains(t, buf.String(), `"error_code":"STR_003"`)
	assert.Contains(t, buf.String(), `"error":"[STR_003] residues span chains"`)

	buf.Reset()
	l.WithError(stderrors.New("std error")).Error("msg")
	assert.Contains(t, buf.String(), `"error":"std error"`)
	assert.NotContains(t, buf.String(), "error_code")

	buf.Reset()
	l.WithError(nil).Info("msg")
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Equal(t, l, Default())
	SetDefault(nil)
	assert.Equal(t, l, Default())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "Warning": LevelWarn, "error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, "info", LevelInfo.String())
}

func TestLogOperationDuration(t *testing.T) {
	l, buf := newTestLogger(t)
	LogOperationDuration(l, "ingest", time.Now())
	assert.Contains(t, buf.String(), "operation completed")
	assert.Contains(t, buf.String(), `"operation":"ingest"`)

	buf.Reset()
	LogOperationDuration(l, "ingest", time.Now().Add(-2*time.Second))
	assert.Contains(t, buf.String(), "slow operation")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestErr(t *testing.T) {
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
	assert.Equal(t, "boom", Err(stderrors.New("boom")).Value)
}

//Personal.AI order the ending
