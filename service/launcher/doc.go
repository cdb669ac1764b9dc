// Package launcher starts job processes and exposes handles for
// waiting, killing and output retrieval. Single commands and
// stdout-to-stdin pipelines are supported; captured output can be
// kept in memory or uploaded to a storage URL.
package launcher
