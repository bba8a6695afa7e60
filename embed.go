package topicblog

import "embed"

// EmbeddedAssets contains the static assets copied into every build under
// /public: styles.css and favicon.svg.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
