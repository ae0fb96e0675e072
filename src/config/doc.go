// Package config defines the configuration of an NRS process.
//
// Regardless of how NRS is started, directly from Go code or as a standalone
// process from the command line, it uses the Config object defined in this
// package to store and forward configuration options. On top of these
// options, NRS relies on a data directory, defined by Config.DataDir, where it
// expects to find a few additional files:
//
//  nrs.toml // (optional) configuration file, .json and .yaml also work.
//  components.json // a JSON file mapping component names to addresses.
//  badger_db // the database of a component host started with --store.
package config
