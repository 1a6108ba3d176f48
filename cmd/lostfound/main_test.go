package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cli runs one command against the database at dbPath.
func cli(t *testing.T, dbPath, stdin string, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	args = append(args, "--db", dbPath)
	code := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), code
}

func mustCLI(t *testing.T, dbPath, stdin string, args ...string) string {
	t.Helper()
	out, code := cli(t, dbPath, stdin, args...)
	if code != 0 {
		t.Fatalf("lostfound %s: exit %d: %s", strings.Join(args, " "), code, out)
	}
	return out
}

func TestSessionPersistsAcrossInvocations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lf.db")

	mustCLI(t, dbPath, "", "register", "-u", "root", "-p", "password1", "--email", "root@school.edu", "--role", "admin")
	if out := mustCLI(t, dbPath, "", "whoami"); strings.TrimSpace(out) != "Anonymous" {
		t.Errorf("expected Anonymous, got %q", out)
	}

	mustCLI(t, dbPath, "", "login", "-u", "root", "-p", "password1")
	if out := mustCLI(t, dbPath, "", "whoami"); !strings.Contains(out, "root (admin)") {
		t.Errorf("expected root (admin), got %q", out)
	}

	mustCLI(t, dbPath, "", "logout")
	if out := mustCLI(t, dbPath, "", "whoami"); strings.TrimSpace(out) != "Anonymous" {
		t.Errorf("expected Anonymous after logout, got %q", out)
	}

	if _, code := cli(t, dbPath, "", "login", "-u", "root", "-p", "nope"); code == 0 {
		t.Error("expected login with a wrong password to fail")
	}
}

func TestReportListAndClear(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lf.db")

	mustCLI(t, dbPath, "", "sample")
	mustCLI(t, dbPath, "", "report", "--title", "Blue Umbrella", "--type", "found", "--location", "Gym")

	out := mustCLI(t, dbPath, "", "list")
	if !strings.Contains(out, "Black Wallet") || !strings.Contains(out, "Blue Umbrella") {
		t.Errorf("list missing items:\n%s", out)
	}

	out = mustCLI(t, dbPath, "", "list", "--type", "found")
	if strings.Contains(out, "Black Wallet") {
		t.Errorf("type filter ignored:\n%s", out)
	}

	if _, code := cli(t, dbPath, "", "report", "--title", "ab"); code == 0 {
		t.Error("expected a short title to be rejected")
	}

	mustCLI(t, dbPath, "", "register", "-u", "root", "-p", "password1", "--email", "root@school.edu", "--role", "admin")
	mustCLI(t, dbPath, "", "login", "-u", "root", "-p", "password1")

	// Declining the prompt keeps everything.
	if _, code := cli(t, dbPath, "n\n", "clear"); code == 0 {
		t.Error("expected declined clear to fail")
	}
	if out := mustCLI(t, dbPath, "", "counts"); !strings.Contains(out, "active   2") {
		t.Errorf("expected 2 active items:\n%s", out)
	}

	mustCLI(t, dbPath, "y\n", "clear")
	if out := mustCLI(t, dbPath, "", "counts"); !strings.Contains(out, "active   0") {
		t.Errorf("expected no active items:\n%s", out)
	}
}

func TestExportToStdout(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lf.db")

	if _, code := cli(t, dbPath, "", "export", "-o", "-"); code == 0 {
		t.Error("expected exporting nothing to fail")
	}

	mustCLI(t, dbPath, "", "sample")
	out := mustCLI(t, dbPath, "", "export", "-o", "-")
	if !strings.HasPrefix(out, `"type","title"`) {
		t.Errorf("unexpected CSV header:\n%s", out)
	}
	if !strings.Contains(out, `"Black Wallet"`) {
		t.Errorf("CSV missing sample:\n%s", out)
	}
}

func TestDumpAndLoad(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	dump := filepath.Join(dir, "state.lfz")

	mustCLI(t, src, "", "sample")
	mustCLI(t, src, "", "theme", "light")
	if _, code := cli(t, src, "", "dump", "-o", dump); code == 0 {
		t.Error("expected an anonymous dump to fail")
	}
	mustCLI(t, src, "", "register", "-u", "root", "-p", "password1", "--email", "root@school.edu", "--role", "admin")
	mustCLI(t, src, "", "login", "-u", "root", "-p", "password1")
	mustCLI(t, src, "", "dump", "-o", dump)

	if _, err := os.Stat(dump); err != nil {
		t.Fatalf("dump file: %v", err)
	}

	mustCLI(t, dst, "", "register", "-u", "keeper", "-p", "password2", "--email", "keeper@school.edu", "--role", "admin")
	mustCLI(t, dst, "", "login", "-u", "keeper", "-p", "password2")
	mustCLI(t, dst, "", "load", dump, "--yes")
	if out := mustCLI(t, dst, "", "list"); !strings.Contains(out, "Black Wallet") {
		t.Errorf("loaded state missing sample:\n%s", out)
	}
	if out := mustCLI(t, dst, "", "theme"); strings.TrimSpace(out) != "light" {
		t.Errorf("expected light theme, got %q", out)
	}
	// Users and the session come from the dump too.
	if out := mustCLI(t, dst, "", "whoami"); !strings.Contains(out, "root (admin)") {
		t.Errorf("expected the dumped session, got %q", out)
	}
	if _, code := cli(t, dst, "", "login", "-u", "keeper", "-p", "password2"); code == 0 {
		t.Error("expected a user missing from the dump to be gone")
	}
}

func TestLoadRequiresAdmin(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	dump := filepath.Join(dir, "state.lfz")

	mustCLI(t, src, "", "sample")
	mustCLI(t, src, "", "register", "-u", "root", "-p", "password1", "--email", "root@school.edu", "--role", "admin")
	mustCLI(t, src, "", "login", "-u", "root", "-p", "password1")
	mustCLI(t, src, "", "dump", "-o", dump)

	mustCLI(t, dst, "", "report", "--title", "Blue Umbrella", "--type", "found")

	// Anonymous.
	if _, code := cli(t, dst, "", "load", dump, "--yes"); code == 0 {
		t.Error("expected an anonymous load to fail")
	}

	// Signed in without the admin role.
	mustCLI(t, dst, "", "register", "-u", "eve", "-p", "password3", "--email", "eve@school.edu")
	mustCLI(t, dst, "", "login", "-u", "eve", "-p", "password3")
	if _, code := cli(t, dst, "", "load", dump, "--yes"); code == 0 {
		t.Error("expected a student load to fail")
	}

	out := mustCLI(t, dst, "", "list")
	if !strings.Contains(out, "Blue Umbrella") || strings.Contains(out, "Black Wallet") {
		t.Errorf("rejected load changed the data:\n%s", out)
	}
	if out := mustCLI(t, dst, "", "whoami"); !strings.Contains(out, "eve") {
		t.Errorf("rejected load changed the session, got %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if code := run(context.Background(), []string{"frobnicate"}, strings.NewReader(""), &out); code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if code := run(context.Background(), []string{"help"}, strings.NewReader(""), &out); code != 0 {
		t.Errorf("expected exit 0 for help, got %d", code)
	}
	if !strings.Contains(out.String(), "report") {
		t.Errorf("usage does not list commands:\n%s", out.String())
	}
}
