package language

import (
	"path/filepath"
	"strings"
)

// File classes used to break scanned files down in status reports. Secrets
// tend to cluster in the first few.
const (
	ClassEnv     = "Env"
	ClassKey     = "Key material"
	ClassConfig  = "Config"
	ClassInfra   = "Infrastructure"
	ClassScript  = "Script"
	ClassSource  = "Source"
	ClassDocs    = "Docs"
	ClassData    = "Data"
	ClassUnknown = "Unknown"
)

var extensionClass = map[string]string{
	"env": ClassEnv,

	"pem": ClassKey, "key": ClassKey, "crt": ClassKey, "cer": ClassKey, "der": ClassKey,
	"p12": ClassKey, "pfx": ClassKey, "jks": ClassKey, "keystore": ClassKey,
	"asc": ClassKey, "gpg": ClassKey, "ppk": ClassKey, "pub": ClassKey,

	"json": ClassConfig, "jsonc": ClassConfig, "yaml": ClassConfig, "yml": ClassConfig,
	"toml": ClassConfig, "ini": ClassConfig, "cfg": ClassConfig, "conf": ClassConfig,
	"properties": ClassConfig, "xml": ClassConfig, "plist": ClassConfig, "config": ClassConfig,

	"tf": ClassInfra, "tfvars": ClassInfra, "tfstate": ClassInfra, "hcl": ClassInfra,
	"dockerfile": ClassInfra, "nomad": ClassInfra,

	"sh": ClassScript, "bash": ClassScript, "zsh": ClassScript, "fish": ClassScript,
	"ps1": ClassScript, "psm1": ClassScript, "bat": ClassScript, "cmd": ClassScript,

	"go": ClassSource, "js": ClassSource, "jsx": ClassSource, "mjs": ClassSource, "cjs": ClassSource,
	"ts": ClassSource, "tsx": ClassSource, "py": ClassSource, "rb": ClassSource, "php": ClassSource,
	"java": ClassSource, "kt": ClassSource, "scala": ClassSource, "cs": ClassSource,
	"c": ClassSource, "h": ClassSource, "cpp": ClassSource, "cc": ClassSource, "hpp": ClassSource,
	"rs": ClassSource, "swift": ClassSource, "dart": ClassSource, "lua": ClassSource,
	"ex": ClassSource, "exs": ClassSource, "erl": ClassSource, "hs": ClassSource, "zig": ClassSource,
	"vue": ClassSource, "svelte": ClassSource, "sql": ClassSource,

	"md": ClassDocs, "mdx": ClassDocs, "rst": ClassDocs, "txt": ClassDocs, "adoc": ClassDocs,
	"html": ClassDocs, "htm": ClassDocs, "tex": ClassDocs,

	"csv": ClassData, "tsv": ClassData, "log": ClassData, "sqlite": ClassData, "db": ClassData,
}

// Files that are classified by name rather than extension.
var nameClass = map[string]string{
	".env":           ClassEnv,
	".envrc":         ClassEnv,
	".netrc":         ClassKey,
	".pgpass":        ClassKey,
	"id_rsa":         ClassKey,
	"id_dsa":         ClassKey,
	"id_ecdsa":       ClassKey,
	"id_ed25519":     ClassKey,
	"credentials":    ClassKey,
	".npmrc":         ClassConfig,
	".pypirc":        ClassConfig,
	".dockercfg":     ClassConfig,
	"dockerfile":     ClassInfra,
	"docker-compose": ClassInfra,
	"makefile":       ClassScript,
	"gnumakefile":    ClassScript,
	"jenkinsfile":    ClassInfra,
	"vagrantfile":    ClassInfra,
	".gitlab-ci.yml": ClassInfra,
	".travis.yml":    ClassInfra,
	"gemfile":        ClassSource,
	"rakefile":       ClassSource,
}

// Detect returns the file class for a path, by name first and then by
// extension. Env variants such as ".env.local" are recognised by prefix.
func Detect(filePath string) string {
	base := strings.ToLower(filepath.Base(filePath))
	if class, ok := nameClass[base]; ok {
		return class
	}
	if strings.HasPrefix(base, ".env.") {
		return ClassEnv
	}

	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	if class, ok := extensionClass[ext]; ok {
		return class
	}
	return ClassUnknown
}
