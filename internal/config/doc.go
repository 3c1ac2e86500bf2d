// Package config loads the ogimage site configuration from YAML or TOML.
//
// The file carries the site host, the generated output directory, the image
// defaults every page starts from, the ordered route_rules table and the
// settings of the capture pipeline (preview server, browser, history and
// logging). Load applies defaults, normalizes route rules into their core
// representation and validates the result.
package config
