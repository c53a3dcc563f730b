package automatic

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GenerateSeeds creates n random bag seeds for deterministic game runs
func GenerateSeeds(n int) ([]uint64, error) {
	buf := make([]byte, 8*n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate seeds: %w", err)
	}
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return seeds, nil
}

// SaveSeeds writes seeds to a file in hex format (one per line)
func SaveSeeds(seeds []uint64, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	// Write header comment
	_, err = writer.WriteString("# Deterministic bag seeds (hex encoded, one per line)\n")
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, seed := range seeds {
		_, err = writer.WriteString(strconv.FormatUint(seed, 16) + "\n")
		if err != nil {
			return fmt.Errorf("failed to write seed %d: %w", i, err)
		}
	}

	return nil
}

// LoadSeeds reads seeds from a file in hex format
func LoadSeeds(path string) ([]uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	var seeds []uint64
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		seed, err := strconv.ParseUint(line, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode seed at line %d: %w", lineNum, err)
		}
		seeds = append(seeds, seed)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}

	return seeds, nil
}
