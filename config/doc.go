// Package config loads a TOML pipeline configuration and turns it into the
// option slices taken by record.NewReader, record.WriterFor,
// seis.NewContainer and Container.Sync.
//
//	[reader]
//	format = "miniseed"
//	workers = 4
//
//	[merge]
//	gap_tolerance = "2ms"
//
//	[sync]
//	rate = 100.0
//	start = "2024-03-01T00:00:00Z"
//	stop = "2024-03-01T01:00:00Z"
//
//	[writer]
//	format = "native"
//	compression = "zstd"
//
// Every key is optional; missing keys keep the values of Default.
package config
