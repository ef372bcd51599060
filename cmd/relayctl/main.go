// Command relayctl: utilidades de operador para la credencial DoorDash.
//
//	relayctl token            imprime una credencial recién firmada
//	relayctl rotate           firma y la persiste en el .env
//	relayctl inspect          decodifica la credencial guardada en el .env
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// mismo .env que el relay; las flags pueden apuntar a otro archivo
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
