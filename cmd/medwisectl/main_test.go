package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "create-user"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q, got %v (err=%v)", name, cmd, err)
		}
	}
}

func TestCreateUserRequiresFlags(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"create-user", "--email", "alice@example.com"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected missing flag error")
	}
	if !strings.Contains(err.Error(), "required flag") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMigrateFlags(t *testing.T) {
	cmd := migrateCmd()
	for _, name := range []string{"skip-postgres", "skip-mongo"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("expected flag %q", name)
		}
	}
}
