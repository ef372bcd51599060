// Package atomicwrite reemplaza archivos sin dejar nunca un contenido a medias:
// quien lea el path ve el archivo viejo o el nuevo, nunca una mezcla.
package atomicwrite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// TempPattern es el patrón del temporal, junto al destino para que el rename
// no cruce filesystems. Los watchers pueden ignorar estos nombres.
func TempPattern(path string) string {
	return "." + filepath.Base(path) + ".tmp-*"
}

// WriteFile: tmp en el mismo directorio → Sync → Close → Chmod(perm) → Rename.
// El directorio de path tiene que existir. Si el rename falla (Windows con el
// destino abierto) prueba remove+rename.
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), TempPattern(path))
	if err != nil {
		return fmt.Errorf("atomicwrite: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("atomicwrite: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("atomicwrite: fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomicwrite: close temp: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("atomicwrite: chmod temp: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("atomicwrite: rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}
