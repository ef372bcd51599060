// Package envfile trata un archivo .env como registro durable clave=valor.
//
// Replace reescribe una sola línea KEY=... y deja el resto del archivo
// byte a byte igual (comentarios, orden, finales de línea). La escritura es
// atómica: tmp en el mismo directorio → fsync → rename.
package envfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/dashpay-relay/internal/util/atomicwrite"
	"github.com/dropDatabas3/dashpay-relay/internal/validation"
)

// ErrKeyNotFound se devuelve cuando la clave no está en el archivo.
var ErrKeyNotFound = errors.New("envfile: key not found")

// File es un .env en disco.
type File struct {
	Path string
}

// New crea un File con path absoluto (si se puede resolver).
func New(path string) *File {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &File{Path: path}
}

// Lookup lee el archivo con godotenv y devuelve el valor de key.
func (f *File) Lookup(key string) (string, error) {
	vals, err := godotenv.Read(f.Path)
	if err != nil {
		return "", fmt.Errorf("envfile: read %s: %w", f.Path, err)
	}
	v, ok := vals[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Replace sustituye la primera línea "KEY=..." (o "export KEY=...") por KEY=value.
// Si la clave no existe, agrega la línea al final.
func (f *File) Replace(key, value string) error {
	if !validation.ValidEnvKey(key) {
		return fmt.Errorf("envfile: invalid key %q", key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("envfile: value for %s contains a newline", key)
	}

	perm := fs.FileMode(0o600)
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("envfile: read %s: %w", f.Path, err)
	}
	if st, err := os.Stat(f.Path); err == nil {
		perm = st.Mode().Perm()
	}

	updated := ReplaceLine(content, key, value)
	if err := atomicwrite.WriteFile(f.Path, updated, perm); err != nil {
		return fmt.Errorf("envfile: write %s: %w", f.Path, err)
	}
	return nil
}

// ReplaceLine es la parte pura de Replace: devuelve content con la línea de key
// reemplazada (o agregada). Todas las demás líneas quedan intactas.
func ReplaceLine(content []byte, key, value string) []byte {
	newLine := []byte(key + "=" + value)

	var out bytes.Buffer
	out.Grow(len(content) + len(newLine) + 1)

	replaced := false
	rest := content
	for len(rest) > 0 {
		line := rest
		var eol []byte
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i]
			eol = []byte{'\n'}
			rest = rest[i+1:]
		} else {
			rest = nil
		}
		// \r\n: el \r queda como parte del fin de línea
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
			eol = append([]byte{'\r'}, eol...)
		}

		if !replaced && matchesKey(line, key) {
			out.Write(newLine)
			replaced = true
		} else {
			out.Write(line)
		}
		out.Write(eol)
	}

	if !replaced {
		if len(content) > 0 && content[len(content)-1] != '\n' {
			out.WriteByte('\n')
		}
		out.Write(newLine)
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func matchesKey(line []byte, key string) bool {
	s := strings.TrimLeft(string(line), " \t")
	s = strings.TrimPrefix(s, "export ")
	s = strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(s, key) {
		return false
	}
	s = strings.TrimLeft(s[len(key):], " \t")
	return strings.HasPrefix(s, "=")
}
