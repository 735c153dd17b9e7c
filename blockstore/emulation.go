package blockstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// EmulationConfig describes the scratch descriptor that parameterizes the
// storage emulation layer behind the block store. The descriptor is written
// once at startup and exported through an environment variable. Nothing in
// the simulator reads it back.
type EmulationConfig struct {
	Path     string
	DiskPath string
	Size     string
	Mode     string
	EnvVar   string
}

// DefaultEmulationConfig returns the descriptor used when nothing else is
// configured.
func DefaultEmulationConfig() EmulationConfig {
	return EmulationConfig{
		Path:     "blockstore_config.txt",
		DiskPath: "blockstore.tmp",
		Size:     "200MiB",
		Mode:     "syscall",
		EnvVar:   "CACHESIM_STORE_CFG",
	}
}

// Line returns the single descriptor line, without the trailing newline.
func (c EmulationConfig) Line() string {
	return fmt.Sprintf("disk=%s,%s,%s delete_on_exit",
		c.DiskPath, c.Size, c.Mode)
}

// Write creates the descriptor file and exports its path.
func (c EmulationConfig) Write() error {
	if c.Path == "" {
		return errors.New("storage emulation descriptor path is empty")
	}

	err := os.WriteFile(c.Path, []byte(c.Line()+"\n"), 0o644)
	if err != nil {
		return fmt.Errorf("writing storage emulation descriptor: %w", err)
	}

	if c.EnvVar == "" {
		return nil
	}

	return os.Setenv(c.EnvVar, c.Path)
}

// Remove deletes the descriptor file and unsets the exported variable. A
// descriptor that was never written is not an error.
func (c EmulationConfig) Remove() error {
	if c.EnvVar != "" {
		os.Unsetenv(c.EnvVar)
	}

	err := os.Remove(c.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing storage emulation descriptor: %w", err)
	}

	return nil
}
