package main

import (
	"io"
	"strings"
	"testing"
)

func TestRootCmd_RejectsMissingSecret(t *testing.T) {
	t.Setenv("PUBLIC_COM_SECRET", "")
	t.Setenv("CHAINVIEW_CONFIG", "")

	root := newRootCmd()
	root.SetArgs([]string{"token"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.Execute()
	if err == nil {
		t.Fatal("expected an error without a secret")
	}
	if !strings.Contains(err.Error(), "secret is required") {
		t.Errorf("expected the broker config error, got %v", err)
	}
}
