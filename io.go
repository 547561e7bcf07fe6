// Package nucleation reads, writes, edits and analyzes Minecraft voxel
// schematics. It round-trips Litematica .litematic, Sponge .schem (v1-v3)
// and Bedrock .mcstructure containers through one universal in-memory
// model, and serializes mesh caches in the NUCM binary format.
package nucleation

import (
	"io"
	"os"

	"github.com/schem-at/nucleation/format"
	"github.com/schem-at/nucleation/schematic"
)

// Read reads a schematic with auto-format detection.
func Read(r io.Reader) (*schematic.Schematic, error) {
	return format.Read(r)
}

// ReadFile reads a schematic from a file path.
func ReadFile(path string) (*schematic.Schematic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// ReadFormat reads a schematic with a specific format identifier.
func ReadFormat(r io.Reader, formatID string) (*schematic.Schematic, error) {
	return format.ReadFormat(r, formatID)
}

// Write writes the schematic in its native format.
func Write(w io.Writer, s *schematic.Schematic) error {
	return format.Write(w, s)
}

// WriteFile writes the schematic to a file in its native format.
func WriteFile(path string, s *schematic.Schematic) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, s)
}

// WriteFormat writes the schematic in the specified format.
func WriteFormat(w io.Writer, formatID string, s *schematic.Schematic) error {
	return format.WriteFormat(w, formatID, s)
}

// Formats returns a list of supported format identifiers.
func Formats() []string {
	return format.Formats()
}
