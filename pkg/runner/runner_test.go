package runner

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uievolve/uievolve/pkg/trace"
)

func TestStampFailureDistinguishesTimeoutFromCrash(t *testing.T) {
	r := New(DefaultConfig("https://app.test/"))

	t.Run("expired run deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		tr := trace.New()
		r.stampFailure(ctx, tr, ctx.Err())
		assert.Equal(t, trace.StatusTimedOut, tr.Status)
		require.Len(t, tr.Errors, 1)
		assert.Contains(t, tr.Errors[0], "timeout")
	})

	t.Run("step failure with live deadline", func(t *testing.T) {
		tr := trace.New()
		r.stampFailure(context.Background(), tr, context.DeadlineExceeded)
		assert.Equal(t, trace.StatusCrashed, tr.Status)
		assert.Empty(t, tr.Errors)
	})
}

func TestErrorSinkDedupsAndDrains(t *testing.T) {
	var sink errorSink
	sink.record("js exception: boom")
	sink.record("http 500 on /api")
	sink.record("js exception: boom")

	tr := trace.New()
	sink.drainInto(tr)
	assert.Len(t, tr.Errors, 2)
	assert.Equal(t, trace.StatusCompleted, tr.Status)
}

func TestErrorSinkCrashFlag(t *testing.T) {
	var sink errorSink
	assert.False(t, sink.isCrashed())
	sink.markCrashed()
	assert.True(t, sink.isCrashed())
}

func TestExceptionSignature(t *testing.T) {
	full := &runtime.EventExceptionThrown{
		ExceptionDetails: &runtime.ExceptionDetails{
			Text: "Uncaught",
			Exception: &runtime.RemoteObject{
				Description: "TypeError: cart is null\n    at checkout.js:10",
			},
		},
	}
	assert.Equal(t, "js exception: TypeError: cart is null", exceptionSignature(full))

	textOnly := &runtime.EventExceptionThrown{
		ExceptionDetails: &runtime.ExceptionDetails{Text: "Uncaught SyntaxError"},
	}
	assert.Equal(t, "js exception: Uncaught SyntaxError", exceptionSignature(textOnly))

	assert.Equal(t, "js exception", exceptionSignature(&runtime.EventExceptionThrown{}))
}

func TestConsoleSignature(t *testing.T) {
	ev := &runtime.EventConsoleAPICalled{
		Args: []*runtime.RemoteObject{
			{Value: []byte(`"failed to load"`)},
			{Description: "Error: nope\nstack"},
		},
	}
	assert.Equal(t, "console error: failed to load Error: nope", consoleSignature(ev))

	assert.Equal(t, "console error", consoleSignature(&runtime.EventConsoleAPICalled{}))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", firstLine("one\ntwo"))
	assert.Equal(t, "single", firstLine("single"))
}
