package ignore

// DefaultSkipDirs are directory names pruned when defaults are enabled.
// Secrets in these trees belong to someone else or are regenerated.
var DefaultSkipDirs = map[string]bool{
	// Version control
	".git": true,
	".svn": true,
	".hg":  true,

	// Dependencies
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
	".yarn":            true,
	".venv":            true,
	"venv":             true,
	"__pycache__":      true,

	// Caches
	".cache":        true,
	".parcel-cache": true,
	".next":         true,
	".nuxt":         true,
	".nyc_output":   true,
}

// DefaultSkipFiles are lowercase globs matched against the base name of files
// when defaults are enabled. Env files, logs and databases are deliberately absent.
var DefaultSkipFiles = []string{
	// Compiled
	"*.{exe,dll,so,dylib,o,a,lib,class,pyc,pyo}",

	// Archives
	"*.{zip,tar,gz,tgz,rar,7z,bz2,xz}",

	// Images and fonts
	"*.{png,jpg,jpeg,gif,bmp,ico,webp,tiff,svgz}",
	"*.{woff,woff2,ttf,eot,otf}",

	// Media
	"*.{mp3,mp4,avi,mov,wav,flac}",

	// Minified bundles and source maps
	"*.min.{js,css}",
	"*.map",

	// Lock files
	"{package-lock.json,yarn.lock,pnpm-lock.yaml,gemfile.lock,poetry.lock,cargo.lock,go.sum,composer.lock}",

	// Editor swap files
	"*.{swp,swo}",
	".ds_store",
}
