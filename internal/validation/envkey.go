package validation

import "regexp"

// Reglas para nombres de variable en un .env:
// - Empieza con letra o '_'.
// - Sigue con [A-Za-z0-9_.].
// - Largo 1..128.
// Sin espacios, '=', comillas ni saltos de línea: la clave se escribe tal cual
// al reescribir la línea.
//
// Válidos: DOORDASH_API_KEY, _X, app.key
// Inválidos: "", 1KEY, "A B", A=B, export
var envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]{0,127}$`)

// ValidEnvKey reporta si name puede usarse como clave en el .env.
func ValidEnvKey(name string) bool {
	return name != "export" && envKeyRe.MatchString(name)
}
