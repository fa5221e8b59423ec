package config

// Config file names searched by FindConfig, in order.
const (
	FileName    = "nodegraph.yaml"
	AltFileName = "nodegraph.yml"
)

// Defaults applied to fields left empty.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultColor     = "auto"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
