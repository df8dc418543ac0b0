package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestMatcher(t *testing.T, options MatcherOptions) *Matcher {
	t.Helper()
	matcher, err := NewMatcher(options)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	return matcher
}

func Test_Matcher_NoOptionsSkipsNothing(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir})

	paths := []string{
		filepath.Join(tmpDir, "node_modules"),
		filepath.Join(tmpDir, ".git"),
		filepath.Join(tmpDir, "logo.png"),
		filepath.Join(tmpDir, ".env"),
	}
	for _, path := range paths {
		if matcher.ShouldSkip(path, filepath.Ext(path) == "") {
			t.Errorf("expected %s to be scanned without options", path)
		}
	}
}

func Test_Matcher_NeverSkipsRoot(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir, Excludes: []string{"**"}})

	if matcher.ShouldSkip(tmpDir, true) {
		t.Error("expected root to never be skipped")
	}
}

func Test_Matcher_Defaults_PruneDependencyDirs(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir, UseDefaults: true})

	if !matcher.ShouldSkip(filepath.Join(tmpDir, "web", "node_modules"), true) {
		t.Error("expected node_modules to be pruned")
	}
	if !matcher.ShouldSkip(filepath.Join(tmpDir, ".git", "config"), false) {
		t.Error("expected files under .git to be skipped")
	}
}

func Test_Matcher_Defaults_SkipMediaKeepSecretsFiles(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir, UseDefaults: true})

	if !matcher.ShouldSkip(filepath.Join(tmpDir, "assets", "Logo.PNG"), false) {
		t.Error("expected images to be skipped")
	}
	if !matcher.ShouldSkip(filepath.Join(tmpDir, "package-lock.json"), false) {
		t.Error("expected lock files to be skipped")
	}
	for _, name := range []string{".env", "server.log", "app.db", "main.go"} {
		if matcher.ShouldSkip(filepath.Join(tmpDir, name), false) {
			t.Errorf("expected %s to be scanned", name)
		}
	}
}

func Test_Matcher_Excludes(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{
		RootDir:  tmpDir,
		Excludes: []string{"testdata", "**/*.snap"},
	})

	if !matcher.ShouldSkip(filepath.Join(tmpDir, "pkg", "testdata"), true) {
		t.Error("expected base-name exclude to prune testdata")
	}
	if !matcher.ShouldSkip(filepath.Join(tmpDir, "ui", "__snapshots__", "button.snap"), false) {
		t.Error("expected ** exclude to match nested files")
	}
	if matcher.ShouldSkip(filepath.Join(tmpDir, "ui", "button.tsx"), false) {
		t.Error("expected other files to be scanned")
	}
}

func Test_Matcher_IncludesRestrictFilesOnly(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{
		RootDir:  tmpDir,
		Includes: []string{"*.env", "**/*.yaml"},
	})

	if matcher.ShouldSkip(filepath.Join(tmpDir, "deploy"), true) {
		t.Error("expected directories to pass include filters")
	}
	if matcher.ShouldSkip(filepath.Join(tmpDir, "deploy", "values.yaml"), false) {
		t.Error("expected included yaml to be scanned")
	}
	if matcher.ShouldSkip(filepath.Join(tmpDir, "prod.env"), false) {
		t.Error("expected included env file to be scanned")
	}
	if !matcher.ShouldSkip(filepath.Join(tmpDir, "main.go"), false) {
		t.Error("expected files outside includes to be skipped")
	}
}

func Test_Matcher_InvalidPattern(t *testing.T) {
	_, err := NewMatcher(MatcherOptions{RootDir: t.TempDir(), Excludes: []string{"[unclosed"}})
	if err == nil {
		t.Error("expected invalid glob to be rejected")
	}
}

func Test_Matcher_GitignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.generated.go\nbuild/\n"), 0644)

	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir, UseIgnoreFiles: true})

	if !matcher.ShouldSkip(filepath.Join(tmpDir, "models.generated.go"), false) {
		t.Error("expected .gitignore pattern to skip *.generated.go")
	}
	if !matcher.ShouldSkip(filepath.Join(tmpDir, "build"), true) {
		t.Error("expected .gitignore directory pattern to prune build/")
	}
	if matcher.ShouldSkip(filepath.Join(tmpDir, "main.go"), false) {
		t.Error("expected normal files to be scanned")
	}
}

func Test_Matcher_IgnoreFilesOffByDefault(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.env\n"), 0644)

	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir})
	if matcher.ShouldSkip(filepath.Join(tmpDir, "prod.env"), false) {
		t.Error("expected .gitignore to be ignored unless enabled")
	}
}

func Test_Matcher_SecretscanignoreIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, ".secretscanignore"), []byte("fixtures/\n*.pem\n"), 0644)

	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir, UseIgnoreFiles: true})

	if !matcher.ShouldSkip(filepath.Join(tmpDir, "testing.pem"), false) {
		t.Error("expected .secretscanignore pattern to skip *.pem")
	}
	if !matcher.ShouldSkip(filepath.Join(tmpDir, "fixtures"), true) {
		t.Error("expected .secretscanignore to prune fixtures/")
	}
}

func Test_Matcher_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir, UseIgnoreFiles: true})

	target := filepath.Join(tmpDir, "dump.sql")
	if matcher.ShouldSkip(target, false) {
		t.Fatal("expected file to be scanned before reload")
	}

	os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("*.sql\n"), 0644)
	matcher.Reload()

	if !matcher.ShouldSkip(target, false) {
		t.Error("expected reloaded .gitignore to apply")
	}
}

func Test_Matcher_IsIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := newTestMatcher(t, MatcherOptions{RootDir: tmpDir, UseIgnoreFiles: true})

	if !matcher.IsIgnoreFile(filepath.Join(tmpDir, ".gitignore")) {
		t.Error("expected root .gitignore to be recognised")
	}
	if matcher.IsIgnoreFile(filepath.Join(tmpDir, "sub", ".gitignore")) {
		t.Error("expected nested .gitignore to be ignored")
	}
}
