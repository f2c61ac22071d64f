// Package config provides configuration structures and utilities for wikienrich.
// It defines where a run reads its setlist pages and dump from, how many
// workers it uses, where results are stored and how reports are written.
package config
