package version

// Commit 在构建时通过 -ldflags "-X heritage-map/internal/version.Commit=..." 注入
var Commit = "dev"
