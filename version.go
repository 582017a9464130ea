package jarvik

// Version is overwritten at build time with -ldflags "-X github.com/a-h/jarvik.Version=...".
var Version = "dev"
