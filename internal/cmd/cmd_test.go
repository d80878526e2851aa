package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/shopwala/shopwala-golang/internal/auth"
	"github.com/shopwala/shopwala-golang/internal/config"
)

func TestNewLogger(t *testing.T) {
	c := &config.Config{App: config.AppConfig{Name: "shopwala", Env: "production"}, Log: config.LogConfig{Level: "warn"}}
	logger, err := newLogger(c)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	c.Log.Level = "loud"
	_, err = newLogger(c)
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("SHOPWALA_JWT_SECRET", "cli-secret")
	t.Setenv("SHOPWALA_APP_ENV", "development")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", "u-42", "--role", auth.RoleAdminStaff})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())

	tokens := auth.NewTokenManager("cli-secret", time.Hour)
	id, err := tokens.ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "u-42", id.UserID)
	assert.True(t, id.IsAdmin())
}

func TestShutdownEndsOpenStreams(t *testing.T) {
	entered := make(chan struct{})
	srv := newHTTPServer("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(entered)
		<-r.Context().Done()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := http.Get("http://" + ln.Addr().String() + "/stream")
		if err == nil {
			resp.Body.Close()
		}
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not reached")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not see the stream end")
	}
}
