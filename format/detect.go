package format

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/oriumgames/nbt"
)

// Detect attempts to detect the schematic format from file data. Gzipped
// files are probed for Litematica first, then Sponge; uncompressed data is
// probed as a little-endian Bedrock structure.
func Detect(data []byte) (string, error) {
	if len(data) < 4 {
		return "", fmt.Errorf("insufficient data for format detection")
	}

	// Gzip magic marks the Java formats.
	if data[0] == 0x1F && data[1] == 0x8B {
		return detectGzipFormat(data)
	}

	if isMCStructure(data) {
		return "mcstructure", nil
	}
	return "", fmt.Errorf("unknown format")
}

func detectGzipFormat(data []byte) (string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("gzip decompress: %w", err)
	}
	defer gz.Close()

	nbtData, err := io.ReadAll(gz)
	if err != nil {
		return "", fmt.Errorf("read gzip data: %w", err)
	}

	var root map[string]any
	if err := nbt.NewDecoderWithEncoding(bytes.NewReader(nbtData), nbt.BigEndian).Decode(&root); err != nil {
		return "", fmt.Errorf("decode nbt: %w", err)
	}

	// Litematica has Version and Regions at the root.
	if version, ok := root["Version"].(int32); ok {
		if _, hasRegions := root["Regions"]; hasRegions {
			if version >= 5 && version <= 7 {
				return "litematic", nil
			}
			return "", fmt.Errorf("unsupported litematica version %d", version)
		}

		// Sponge v1/v2 have Version at the root.
		switch version {
		case 1:
			return "sponge_v1", nil
		case 2:
			return "sponge_v2", nil
		case 3:
			return "sponge_v3", nil
		default:
			return "", fmt.Errorf("unknown sponge schematic version %d", version)
		}
	}

	// Sponge v3 nests everything under a Schematic compound.
	if inner, ok := root["Schematic"].(map[string]any); ok {
		if version, ok := inner["Version"].(int32); ok && version == 3 {
			return "sponge_v3", nil
		}
	}

	return "", fmt.Errorf("unknown gzip NBT format")
}

// isMCStructure probes data as little-endian NBT with the .mcstructure
// root fields.
func isMCStructure(data []byte) bool {
	var root map[string]any
	if err := nbt.NewDecoderWithEncoding(bytes.NewReader(data), nbt.LittleEndian).Decode(&root); err != nil {
		return false
	}
	if _, ok := root["format_version"].(int32); !ok {
		return false
	}
	_, hasStructure := root["structure"]
	return hasStructure
}
