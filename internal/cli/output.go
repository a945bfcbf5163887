// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of warp.
//
// warp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/jeremyhahn/warp/pkg/key"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// Valid reports whether f is a known format.
func (f OutputFormat) Valid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatTable:
		return true
	}
	return false
}

// KeyInfo is the printable form of an indexed key.
type KeyInfo struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Store   string    `json:"store"`
}

// NewKeyInfo describes k held by store.
func NewKeyInfo(k *key.Key, store string) KeyInfo {
	return KeyInfo{
		ID:      k.ID().String(),
		Created: k.Created().UTC(),
		Store:   store,
	}
}

// StoreInfo is the printable form of an enabled keystore.
type StoreInfo struct {
	ID   string `json:"id"`
	Keys int    `json:"keys"`
}

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintKeyList prints a list of keys
func (p *Printer) PrintKeyList(keys []KeyInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"keys": keys,
		})
	case OutputFormatTable:
		if len(keys) == 0 {
			fmt.Fprintln(p.writer, "No keys found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-32s  %-25s  %-12s\n", "ID", "CREATED", "STORE")
		fmt.Fprintln(p.writer, strings.Repeat("-", 73))
		for _, k := range keys {
			fmt.Fprintf(p.writer, "%-32s  %-25s  %-12s\n", k.ID, k.Created.Format(time.RFC3339), k.Store)
		}
		return nil
	case OutputFormatText:
		if len(keys) == 0 {
			fmt.Fprintln(p.writer, color.YellowString("!")+" No keys found")
			return nil
		}
		fmt.Fprintln(p.writer, "Keys:")
		for _, k := range keys {
			fmt.Fprintf(p.writer, "  %s %s (%s, created %s)\n",
				color.CyanString("•"), k.ID, k.Store, k.Created.Format(time.RFC3339))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintStoreList prints the enabled keystores
func (p *Printer) PrintStoreList(stores []StoreInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"keystores": stores,
		})
	case OutputFormatTable:
		if len(stores) == 0 {
			fmt.Fprintln(p.writer, "No keystores enabled")
			return nil
		}
		fmt.Fprintf(p.writer, "%-12s  %s\n", "KEYSTORE", "KEYS")
		fmt.Fprintln(p.writer, strings.Repeat("-", 20))
		for _, s := range stores {
			fmt.Fprintf(p.writer, "%-12s  %d\n", s.ID, s.Keys)
		}
		return nil
	case OutputFormatText:
		if len(stores) == 0 {
			fmt.Fprintln(p.writer, color.YellowString("!")+" No keystores enabled")
			return nil
		}
		fmt.Fprintln(p.writer, "Keystores:")
		for _, s := range stores {
			fmt.Fprintf(p.writer, "  %s %s (%d keys)\n", color.CyanString("•"), s.ID, s.Keys)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyInfo prints a single key under heading
func (p *Printer) PrintKeyInfo(heading string, k KeyInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(k)
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "%s %s %s\n", color.GreenString("✓"), heading, k.ID)
		fmt.Fprintf(p.writer, "  Store:   %s\n", k.Store)
		fmt.Fprintf(p.writer, "  Created: %s\n", k.Created.Format(time.RFC3339))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatTable, OutputFormatText:
		fmt.Fprintf(p.writer, "%s %s\n", color.GreenString("✓"), message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "%s %v\n", color.RedString("Error:"), err)
		return nil
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
