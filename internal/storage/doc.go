// Package storage provides JSON file persistence for cached query results.
//
// Each key maps to one file (<key>.json) under a data directory. The read
// API keeps its timestamped cache blobs here. The default location is
// ~/.cache/meetups/.
package storage
